package users

import (
	"time"
)

// User is the directory record referenced by every other module
type User struct {
	ID               int64      `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Gender           *string    `json:"gender,omitempty" db:"gender"`
	Bio              *string    `json:"bio,omitempty" db:"bio"`
	Latitude         *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude        *float64   `json:"longitude,omitempty" db:"longitude"`
	SubscriptionTier string     `json:"subscription_tier" db:"subscription_tier"`
	IsDeleted        bool       `json:"-" db:"is_deleted"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt        *time.Time `json:"-" db:"deleted_at"`
}

// HasCoordinates reports whether the user has a usable location
func (u *User) HasCoordinates() bool {
	return u != nil && u.Latitude != nil && u.Longitude != nil
}

// NearbyParams constrains a proximity search around an origin point
type NearbyParams struct {
	ViewerID     int64
	OriginLat    float64
	OriginLon    float64
	MaxRadiusKm  float64
	GenderFilter string // "" or "any" means no filter
	ExcludeIDs   []int64
	Limit        int
}

// NearbyUser is a proximity search result
type NearbyUser struct {
	ID         int64   `db:"id"`
	DistanceKm float64 `db:"distance_km"`
}

// UpdateLocationDTO is the payload for a location update
type UpdateLocationDTO struct {
	Latitude  float64 `json:"latitude" validate:"required,latitude"`
	Longitude float64 `json:"longitude" validate:"required,longitude"`
}
