package matches

import (
	"time"
)

// Match is a mutual-like pairing. The pair is canonical: UserAID < UserBID.
type Match struct {
	ID                  int64     `json:"id" db:"id"`
	UserAID             int64     `json:"user_a_id" db:"user_a_id"`
	UserBID             int64     `json:"user_b_id" db:"user_b_id"`
	IsActive            bool      `json:"is_active" db:"is_active"`
	CelebrationShownToA bool      `json:"celebration_shown_to_a" db:"celebration_shown_to_a"`
	CelebrationShownToB bool      `json:"celebration_shown_to_b" db:"celebration_shown_to_b"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// OtherUserID returns the counterpart of userID in this match
func (m *Match) OtherUserID(userID int64) int64 {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

// Involves reports whether userID is one of the pair
func (m *Match) Involves(userID int64) bool {
	return m.UserAID == userID || m.UserBID == userID
}
