package preferences

import (
	"context"

	"github.com/emberly-app/emberly-backend/internal/common/utils"
	"github.com/emberly-app/emberly-backend/internal/events"
)

// QueueInvalidator clears a user's discover queue when filters change
type QueueInvalidator interface {
	ClearForUser(ctx context.Context, userID int64) error
}

// Notifier pushes realtime events to a connected user
type Notifier interface {
	SendToUser(userID int64, event string, payload interface{})
}

type Service interface {
	Get(ctx context.Context, userID int64) (*Preference, error)
	Update(ctx context.Context, userID int64, dto *UpdatePreferenceDTO) (*Preference, error)
	SnapshotForUser(ctx context.Context, userID int64) (interface{}, error)
}

type service struct {
	repo     Repository
	queue    QueueInvalidator
	bus      *events.Bus
	notifier Notifier
}

func NewService(repo Repository, queue QueueInvalidator, bus *events.Bus, notifier Notifier) Service {
	return &service{
		repo:     repo,
		queue:    queue,
		bus:      bus,
		notifier: notifier,
	}
}

func (s *service) Get(ctx context.Context, userID int64) (*Preference, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Update validates and upserts the preference, clears the discover queue so the
// next fetch rebuilds under the new filters, and announces the change.
// The queue clear is part of the primary path; the announcements are best-effort.
func (s *service) Update(ctx context.Context, userID int64, dto *UpdatePreferenceDTO) (*Preference, error) {
	if err := utils.ValidateStruct(dto); err != nil {
		return nil, err
	}

	before, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Upsert(ctx, userID, dto)
	if err != nil {
		return nil, err
	}

	if err := s.queue.ClearForUser(ctx, userID); err != nil {
		return nil, err
	}

	changed := changedFields(before, updated)

	s.bus.Publish(events.TopicPreferencesUpdated, events.PreferencesUpdated{
		UserID:        userID,
		ChangedFields: changed,
	})

	if s.notifier != nil {
		s.notifier.SendToUser(userID, "discover:refresh", map[string]interface{}{"changed": changed})
	}

	return updated, nil
}

// SnapshotForUser exposes the preference row for account-deletion archiving
func (s *service) SnapshotForUser(ctx context.Context, userID int64) (interface{}, error) {
	pref, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return nil, nil
	}
	return pref, nil
}

// changedFields computes the precise change-set between two preference rows
func changedFields(before, after *Preference) []string {
	if before == nil {
		return []string{"min_age", "max_age", "distance", "gender_preference", "interests"}
	}

	var out []string
	if before.MinAge != after.MinAge {
		out = append(out, "min_age")
	}
	if before.MaxAge != after.MaxAge {
		out = append(out, "max_age")
	}
	if before.Distance != after.Distance {
		out = append(out, "distance")
	}
	if before.GenderPreference != after.GenderPreference {
		out = append(out, "gender_preference")
	}
	if !sameInterestSet(before.Interests, after.Interests) {
		out = append(out, "interests")
	}
	return out
}

func sameInterestSet(a, b Interests) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, k := range a {
		set[k] = true
	}
	for _, k := range b {
		if !set[k] {
			return false
		}
	}
	return true
}
