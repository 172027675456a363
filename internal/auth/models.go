package auth

import (
	"github.com/golang-jwt/jwt/v4"

	"github.com/emberly-app/emberly-backend/internal/users"
)

// Claims are the JWT claims carried by an access token
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Type   string `json:"type"` // always "access" for now
	jwt.RegisteredClaims
}

// SignupDTO is the payload for account creation
type SignupDTO struct {
	Name      string   `json:"name" validate:"required,min=1,max=100"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8,max=72"`
	Gender    string   `json:"gender" validate:"required,oneof=male female non-binary"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// SigninDTO is the payload for login
type SigninDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by signup and signin
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	User        *users.User `json:"user"`
}
