package users

import (
	"context"
	"errors"

	"github.com/emberly-app/emberly-backend/internal/events"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

// PreferenceSource supplies the preference snapshot archived on account deletion
type PreferenceSource interface {
	SnapshotForUser(ctx context.Context, userID int64) (interface{}, error)
}

type Service interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	TierForUser(ctx context.Context, userID int64) (string, error)
	UpdateLocation(ctx context.Context, userID int64, dto *UpdateLocationDTO) error
	Delete(ctx context.Context, userID int64) error
}

type service struct {
	repo  Repository
	prefs PreferenceSource
	bus   *events.Bus
}

func NewService(repo Repository, prefs PreferenceSource, bus *events.Bus) Service {
	return &service{
		repo:  repo,
		prefs: prefs,
		bus:   bus,
	}
}

func (s *service) GetByID(ctx context.Context, userID int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDeleted {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *service) TierForUser(ctx context.Context, userID int64) (string, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.SubscriptionTier, nil
}

// UpdateLocation persists the new coordinates and publishes location.updated,
// which invalidates the user's discover queue.
func (s *service) UpdateLocation(ctx context.Context, userID int64, dto *UpdateLocationDTO) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateLocation(ctx, user.ID, dto.Latitude, dto.Longitude); err != nil {
		return err
	}

	s.bus.Publish(events.TopicLocationUpdated, events.LocationUpdated{
		UserID:    user.ID,
		Latitude:  dto.Latitude,
		Longitude: dto.Longitude,
	})

	return nil
}

// Delete soft-deletes the account after archiving a snapshot of it.
// The archive is best-effort; a failed snapshot never blocks the deletion.
func (s *service) Delete(ctx context.Context, userID int64) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	var prefSnapshot interface{}
	if s.prefs != nil {
		if snap, err := s.prefs.SnapshotForUser(ctx, userID); err == nil {
			prefSnapshot = snap
		}
	}
	_ = s.repo.ArchiveSnapshot(ctx, user, prefSnapshot)

	return s.repo.SoftDelete(ctx, userID)
}
