package swipes

import (
	"time"
)

const (
	DirectionLike = "like"
	DirectionPass = "pass"
)

type Swipe struct {
	ID        int64     `json:"id" db:"id"`
	SwiperID  int64     `json:"swiper_id" db:"swiper_id"`
	TargetID  int64     `json:"target_id" db:"target_id"`
	Direction string    `json:"direction" db:"direction"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Rejection is an active pass. UndoneAt set means the rejection was reversed
// and no longer excludes the target from discovery.
type Rejection struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	TargetID  int64      `json:"target_id" db:"target_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UndoneAt  *time.Time `json:"undone_at,omitempty" db:"undone_at"`
}

type RecordSwipeDTO struct {
	TargetID  int64  `json:"target_id" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=like pass"`
}

// Liker is a user who liked the viewer without a mutual match yet
type Liker struct {
	UserID  int64     `json:"user_id" db:"user_id"`
	Name    string    `json:"name" db:"name"`
	LikedAt time.Time `json:"liked_at" db:"liked_at"`
}

type LikersResponse struct {
	Count  int64    `json:"count"`
	Likers []*Liker `json:"likers"`
}

type RecordSwipeResponse struct {
	Swipe   *Swipe `json:"swipe"`
	Matched bool   `json:"matched"`
	MatchID int64  `json:"match_id,omitempty"`
}
