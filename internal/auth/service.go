package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/emberly-app/emberly-backend/internal/users"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Config holds auth settings
type Config struct {
	JWTSecret         string
	BCryptCost        int
	AccessTokenExpiry time.Duration
}

type Service interface {
	Signup(ctx context.Context, dto *SignupDTO) (*TokenResponse, error)
	Signin(ctx context.Context, dto *SigninDTO) (*TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

type service struct {
	users  users.Repository
	config *Config
}

func NewService(userRepo users.Repository, config *Config) Service {
	return &service{
		users:  userRepo,
		config: config,
	}
}

func (s *service) Signup(ctx context.Context, dto *SignupDTO) (*TokenResponse, error) {
	existing, err := s.users.FindByEmail(ctx, dto.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.config.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	gender := dto.Gender
	user := &users.User{
		Name:             dto.Name,
		Email:            dto.Email,
		PasswordHash:     string(hash),
		Gender:           &gender,
		Latitude:         dto.Latitude,
		Longitude:        dto.Longitude,
		SubscriptionTier: "free",
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

func (s *service) Signin(ctx context.Context, dto *SigninDTO) (*TokenResponse, error) {
	user, err := s.users.FindByEmail(ctx, dto.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDeleted {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *service) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *service) issueToken(user *users.User) (*TokenResponse, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Type:   "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{
		AccessToken: signed,
		User:        user,
	}, nil
}
