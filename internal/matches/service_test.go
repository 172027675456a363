package matches

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memMatchRepo struct {
	matches         map[int64]*Match
	reconcileSweeps int
}

func newMemMatchRepo() *memMatchRepo {
	return &memMatchRepo{matches: make(map[int64]*Match)}
}

func (m *memMatchRepo) ListForUser(ctx context.Context, userID int64) ([]*Match, error) {
	var out []*Match
	for _, match := range m.matches {
		if match.Involves(userID) && match.IsActive {
			out = append(out, match)
		}
	}
	return out, nil
}

func (m *memMatchRepo) FindBetween(ctx context.Context, a, b int64) (*Match, error) {
	if a > b {
		a, b = b, a
	}
	for _, match := range m.matches {
		if match.UserAID == a && match.UserBID == b {
			return match, nil
		}
	}
	return nil, nil
}

func (m *memMatchRepo) FindByID(ctx context.Context, id int64) (*Match, error) {
	return m.matches[id], nil
}

func (m *memMatchRepo) CreateIfMutualLike(ctx context.Context, a, b int64) (*Match, error) {
	return nil, nil
}

func (m *memMatchRepo) CreateMissingForUser(ctx context.Context, userID int64) error {
	m.reconcileSweeps++
	return nil
}

func (m *memMatchRepo) Deactivate(ctx context.Context, id int64) error {
	if match, ok := m.matches[id]; ok {
		match.IsActive = false
	}
	return nil
}

func (m *memMatchRepo) ListPendingCelebrations(ctx context.Context, userID int64) ([]*Match, error) {
	var out []*Match
	for _, match := range m.matches {
		if !match.IsActive || !match.Involves(userID) {
			continue
		}
		if (match.UserAID == userID && !match.CelebrationShownToA) ||
			(match.UserBID == userID && !match.CelebrationShownToB) {
			out = append(out, match)
		}
	}
	return out, nil
}

func (m *memMatchRepo) MarkCelebrationShown(ctx context.Context, matchID, userID int64) error {
	match, ok := m.matches[matchID]
	if !ok {
		return nil
	}
	if match.UserAID == userID {
		match.CelebrationShownToA = true
	}
	if match.UserBID == userID {
		match.CelebrationShownToB = true
	}
	return nil
}

func (m *memMatchRepo) MatchedCounterpartIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func TestListRunsReconcileSweep(t *testing.T) {
	repo := newMemMatchRepo()
	repo.matches[1] = &Match{ID: 1, UserAID: 1, UserBID: 2, IsActive: true}
	svc := NewService(repo)

	list, err := svc.List(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, repo.reconcileSweeps)
}

func TestUnmatchDeactivates(t *testing.T) {
	repo := newMemMatchRepo()
	repo.matches[1] = &Match{ID: 1, UserAID: 1, UserBID: 2, IsActive: true}
	svc := NewService(repo)

	require.NoError(t, svc.Unmatch(context.Background(), 2, 1))
	assert.False(t, repo.matches[1].IsActive)
}

func TestUnmatchRejectsOutsiders(t *testing.T) {
	repo := newMemMatchRepo()
	repo.matches[1] = &Match{ID: 1, UserAID: 1, UserBID: 2, IsActive: true}
	svc := NewService(repo)

	err := svc.Unmatch(context.Background(), 3, 1)

	assert.ErrorIs(t, err, ErrNotYourMatch)
	assert.True(t, repo.matches[1].IsActive)
}

func TestUnmatchUnknownMatch(t *testing.T) {
	svc := NewService(newMemMatchRepo())

	err := svc.Unmatch(context.Background(), 1, 99)

	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestCelebrationSeenPerSide(t *testing.T) {
	repo := newMemMatchRepo()
	repo.matches[1] = &Match{ID: 1, UserAID: 1, UserBID: 2, IsActive: true}
	svc := NewService(repo)

	pending, err := svc.PendingCelebrations(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, svc.MarkCelebrationSeen(context.Background(), 1, 1))

	pending, err = svc.PendingCelebrations(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// the other side still has a pending celebration
	pending, err = svc.PendingCelebrations(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
