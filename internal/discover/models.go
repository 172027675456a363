package discover

import (
	"time"
)

const (
	StatusQueued   = "queued"
	StatusConsumed = "consumed"
)

// QueueEntry is one durable slot in a user's recommendation queue. An entry
// is created once per (user, target) pair; consuming it never deletes it, so
// a consumed target can never re-enter the deck.
type QueueEntry struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	TargetID   int64      `json:"target_id" db:"target_id"`
	Status     string     `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty" db:"consumed_at"`
}
