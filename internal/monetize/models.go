package monetize

import (
	"time"
)

const (
	TierFree    = "free"
	TierPlus    = "plus"
	TierGold    = "gold"
	TierPremium = "premium"
)

type Boost struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type BoostStatus struct {
	Active          bool       `json:"active"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	NextAvailableAt *time.Time `json:"next_available_at,omitempty"`
}

type SuperLike struct {
	ID         int64     `json:"id" db:"id"`
	SenderID   int64     `json:"sender_id" db:"sender_id"`
	ReceiverID int64     `json:"receiver_id" db:"receiver_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ResourceCredit is a consumable allowance, e.g. extra super likes carried
// over from a tier upgrade. Expired credits stop counting but are kept until
// the cleanup sweep removes them.
type ResourceCredit struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Kind      string    `json:"kind" db:"kind"`
	Amount    int       `json:"amount" db:"amount"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const CreditKindSuperLike = "super_like"

type SendSuperLikeDTO struct {
	ReceiverID int64 `json:"receiver_id" validate:"required"`
}

type UpgradeTierDTO struct {
	Tier string `json:"tier" validate:"required,oneof=free plus gold premium"`
}

type SuperLikeStatus struct {
	Remaining int64 `json:"remaining"`
	Unlimited bool  `json:"unlimited"`
}
