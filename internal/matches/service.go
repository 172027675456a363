package matches

import (
	"context"
	"errors"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrNotYourMatch  = errors.New("match does not involve this user")
)

type Service interface {
	List(ctx context.Context, userID int64) ([]*Match, error)
	Unmatch(ctx context.Context, userID, matchID int64) error
	PendingCelebrations(ctx context.Context, userID int64) ([]*Match, error)
	MarkCelebrationSeen(ctx context.Context, userID, matchID int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// List reconciles missing matches first so a mutual like is never invisible
// here even if the swipe-time creation failed. The sweep is best-effort.
func (s *service) List(ctx context.Context, userID int64) ([]*Match, error) {
	_ = s.repo.CreateMissingForUser(ctx, userID)
	return s.repo.ListForUser(ctx, userID)
}

func (s *service) Unmatch(ctx context.Context, userID, matchID int64) error {
	match, err := s.repo.FindByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match == nil {
		return ErrMatchNotFound
	}
	if !match.Involves(userID) {
		return ErrNotYourMatch
	}

	return s.repo.Deactivate(ctx, matchID)
}

func (s *service) PendingCelebrations(ctx context.Context, userID int64) ([]*Match, error) {
	return s.repo.ListPendingCelebrations(ctx, userID)
}

func (s *service) MarkCelebrationSeen(ctx context.Context, userID, matchID int64) error {
	match, err := s.repo.FindByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match == nil {
		return ErrMatchNotFound
	}
	if !match.Involves(userID) {
		return ErrNotYourMatch
	}

	return s.repo.MarkCelebrationShown(ctx, matchID, userID)
}
