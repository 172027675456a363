package discover

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberly-app/emberly-backend/internal/matches"
	"github.com/emberly-app/emberly-backend/internal/monetize"
	"github.com/emberly-app/emberly-backend/internal/preferences"
	"github.com/emberly-app/emberly-backend/internal/swipes"
	"github.com/emberly-app/emberly-backend/internal/users"
)

type fakeUserRepo struct {
	users            map[int64]*users.User
	nearby           []users.NearbyUser
	nearbyCalls      int
	lastNearbyParams *users.NearbyParams
}

func (f *fakeUserRepo) Create(ctx context.Context, u *users.User) error { return nil }

func (f *fakeUserRepo) FindByID(ctx context.Context, id int64) (*users.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) FindAll(ctx context.Context) ([]*users.User, error) {
	ids := make([]int64, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*users.User, 0, len(ids))
	for _, id := range ids {
		if !f.users[id].IsDeleted {
			out = append(out, f.users[id])
		}
	}
	return out, nil
}

func (f *fakeUserRepo) FindNearby(ctx context.Context, params *users.NearbyParams) ([]users.NearbyUser, error) {
	f.nearbyCalls++
	f.lastNearbyParams = params

	excluded := make(map[int64]bool, len(params.ExcludeIDs))
	for _, id := range params.ExcludeIDs {
		excluded[id] = true
	}

	out := make([]users.NearbyUser, 0, len(f.nearby))
	for _, n := range f.nearby {
		if excluded[n.ID] || n.DistanceKm > params.MaxRadiusKm {
			continue
		}
		if params.GenderFilter != "" && params.GenderFilter != "any" {
			u := f.users[n.ID]
			if u == nil || u.Gender == nil || *u.Gender != params.GenderFilter {
				continue
			}
		}
		if len(out) == params.Limit {
			break
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateLocation(ctx context.Context, userID int64, lat, lon float64) error {
	return nil
}

func (f *fakeUserRepo) UpdateSubscriptionTier(ctx context.Context, userID int64, tier string) error {
	return nil
}

func (f *fakeUserRepo) SoftDelete(ctx context.Context, userID int64) error { return nil }

func (f *fakeUserRepo) ArchiveSnapshot(ctx context.Context, u *users.User, prefs interface{}) error {
	return nil
}

type fakePrefRepo struct {
	prefs     map[int64]*preferences.Preference
	interests map[int64][]string
}

func (f *fakePrefRepo) GetByUserID(ctx context.Context, userID int64) (*preferences.Preference, error) {
	return f.prefs[userID], nil
}

func (f *fakePrefRepo) Upsert(ctx context.Context, userID int64, dto *preferences.UpdatePreferenceDTO) (*preferences.Preference, error) {
	return nil, nil
}

func (f *fakePrefRepo) InterestsByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string)
	for _, id := range userIDs {
		if ints, ok := f.interests[id]; ok {
			out[id] = ints
		}
	}
	return out, nil
}

type fakeMatchRepo struct {
	matched         map[int64][]int64
	reconcileSweeps int
}

func (f *fakeMatchRepo) ListForUser(ctx context.Context, userID int64) ([]*matches.Match, error) {
	return nil, nil
}

func (f *fakeMatchRepo) FindBetween(ctx context.Context, a, b int64) (*matches.Match, error) {
	return nil, nil
}

func (f *fakeMatchRepo) FindByID(ctx context.Context, id int64) (*matches.Match, error) {
	return nil, nil
}

func (f *fakeMatchRepo) CreateIfMutualLike(ctx context.Context, a, b int64) (*matches.Match, error) {
	return nil, nil
}

func (f *fakeMatchRepo) CreateMissingForUser(ctx context.Context, userID int64) error {
	f.reconcileSweeps++
	return nil
}

func (f *fakeMatchRepo) Deactivate(ctx context.Context, id int64) error { return nil }

func (f *fakeMatchRepo) ListPendingCelebrations(ctx context.Context, userID int64) ([]*matches.Match, error) {
	return nil, nil
}

func (f *fakeMatchRepo) MarkCelebrationShown(ctx context.Context, matchID, userID int64) error {
	return nil
}

func (f *fakeMatchRepo) MatchedCounterpartIDs(ctx context.Context, userID int64) ([]int64, error) {
	return f.matched[userID], nil
}

type fakeSwipeRepo struct {
	swiped   map[int64][]int64
	rejected map[int64][]int64
}

func (f *fakeSwipeRepo) UpsertSwipe(ctx context.Context, swiperID, targetID int64, direction string) (*swipes.Swipe, error) {
	return nil, nil
}

func (f *fakeSwipeRepo) FindSwipe(ctx context.Context, swiperID, targetID int64) (*swipes.Swipe, error) {
	return nil, nil
}

func (f *fakeSwipeRepo) ListBySwiper(ctx context.Context, swiperID int64, limit int) ([]*swipes.Swipe, error) {
	return nil, nil
}

func (f *fakeSwipeRepo) SwipedEitherDirectionIDs(ctx context.Context, userID int64) ([]int64, error) {
	return f.swiped[userID], nil
}

func (f *fakeSwipeRepo) DeleteSwipe(ctx context.Context, swiperID, targetID int64, direction string) error {
	return nil
}

func (f *fakeSwipeRepo) AddRejection(ctx context.Context, userID, targetID int64) error { return nil }

func (f *fakeSwipeRepo) FindActiveRejection(ctx context.Context, userID, targetID int64) (*swipes.Rejection, error) {
	return nil, nil
}

func (f *fakeSwipeRepo) UndoRejection(ctx context.Context, userID, targetID int64) error { return nil }

func (f *fakeSwipeRepo) ActiveRejectedIDs(ctx context.Context, userID int64) ([]int64, error) {
	return f.rejected[userID], nil
}

func (f *fakeSwipeRepo) ListLikers(ctx context.Context, userID int64, limit int) ([]*swipes.Liker, error) {
	return nil, nil
}

func (f *fakeSwipeRepo) CountLikers(ctx context.Context, userID int64) (int64, error) { return 0, nil }

type fakeBoostRepo struct {
	boosted map[int64]bool
	sweeps  int
}

func (f *fakeBoostRepo) Create(ctx context.Context, userID int64, start, end time.Time) (*monetize.Boost, error) {
	return nil, nil
}

func (f *fakeBoostRepo) DeactivateExpired(ctx context.Context) error {
	f.sweeps++
	return nil
}

func (f *fakeBoostRepo) HasActive(ctx context.Context, userID int64) (bool, error) {
	return f.boosted[userID], nil
}

func (f *fakeBoostRepo) LatestForUser(ctx context.Context, userID int64) (*monetize.Boost, error) {
	return nil, nil
}

func (f *fakeBoostRepo) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	return 0, nil
}

func (f *fakeBoostRepo) ActiveBoostedAmong(ctx context.Context, candidateIDs []int64) ([]int64, error) {
	var out []int64
	for _, id := range candidateIDs {
		if f.boosted[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeSuperLikeRepo struct {
	likedViewer []int64
	mutual      map[int64]bool
}

func (f *fakeSuperLikeRepo) Create(ctx context.Context, senderID, receiverID int64) (*monetize.SuperLike, error) {
	return nil, nil
}

func (f *fakeSuperLikeRepo) CountSentSince(ctx context.Context, senderID int64, since time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeSuperLikeRepo) SendersWhoSuperLiked(ctx context.Context, receiverID int64, limit int) ([]int64, error) {
	return f.likedViewer, nil
}

func (f *fakeSuperLikeRepo) MutualSuperLikeIDs(ctx context.Context, userID int64, candidateIDs []int64) ([]int64, error) {
	var out []int64
	for _, id := range candidateIDs {
		if f.mutual[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// fakeQueueStore mirrors the durable queue semantics: unique pairs, entries
// survive consumption, and EnsureQueued never resurrects a consumed row.
type fakeQueueStore struct {
	entries []*QueueEntry
	clock   time.Time
	seq     int64
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (q *fakeQueueStore) seed(userID, targetID int64, status string, createdAt time.Time) {
	q.seq++
	q.entries = append(q.entries, &QueueEntry{
		ID:        q.seq,
		UserID:    userID,
		TargetID:  targetID,
		Status:    status,
		CreatedAt: createdAt,
	})
}

func (q *fakeQueueStore) find(userID, targetID int64) *QueueEntry {
	for _, e := range q.entries {
		if e.UserID == userID && e.TargetID == targetID {
			return e
		}
	}
	return nil
}

func (q *fakeQueueStore) QueuedEntries(ctx context.Context, userID int64, limit int) ([]*QueueEntry, error) {
	var out []*QueueEntry
	for _, e := range q.entries {
		if e.UserID == userID && e.Status == StatusQueued {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *fakeQueueStore) EnsureQueued(ctx context.Context, userID, targetID int64) error {
	if q.find(userID, targetID) != nil {
		return nil
	}
	q.seed(userID, targetID, StatusQueued, q.clock)
	return nil
}

func (q *fakeQueueStore) MarkConsumed(ctx context.Context, userID, targetID int64) error {
	if e := q.find(userID, targetID); e != nil && e.Status == StatusQueued {
		e.Status = StatusConsumed
		now := q.clock
		e.ConsumedAt = &now
	}
	return nil
}

func (q *fakeQueueStore) Prioritize(ctx context.Context, userID, targetID int64) error {
	if e := q.find(userID, targetID); e != nil && e.Status == StatusQueued {
		e.CreatedAt = q.clock.Add(-24 * time.Hour)
	}
	return nil
}

func (q *fakeQueueStore) Restamp(ctx context.Context, userID, targetID int64, secondsAgo int) error {
	if e := q.find(userID, targetID); e != nil && e.Status == StatusQueued {
		e.CreatedAt = q.clock.Add(-time.Duration(secondsAgo) * time.Second)
	}
	return nil
}

func (q *fakeQueueStore) ClearForUser(ctx context.Context, userID int64) error {
	var kept []*QueueEntry
	for _, e := range q.entries {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	return nil
}

type engineFixture struct {
	engine    *Engine
	userRepo  *fakeUserRepo
	prefRepo  *fakePrefRepo
	matchRepo *fakeMatchRepo
	swipeRepo *fakeSwipeRepo
	boostRepo *fakeBoostRepo
	superRepo *fakeSuperLikeRepo
	queue     *fakeQueueStore
}

func newEngineFixture(deckSize int) *engineFixture {
	f := &engineFixture{
		userRepo:  &fakeUserRepo{users: make(map[int64]*users.User)},
		prefRepo:  &fakePrefRepo{prefs: make(map[int64]*preferences.Preference), interests: make(map[int64][]string)},
		matchRepo: &fakeMatchRepo{matched: make(map[int64][]int64)},
		swipeRepo: &fakeSwipeRepo{swiped: make(map[int64][]int64), rejected: make(map[int64][]int64)},
		boostRepo: &fakeBoostRepo{boosted: make(map[int64]bool)},
		superRepo: &fakeSuperLikeRepo{mutual: make(map[int64]bool)},
		queue:     newFakeQueueStore(),
	}
	f.engine = NewEngine(
		f.userRepo, f.prefRepo, f.matchRepo, f.swipeRepo,
		f.boostRepo, f.superRepo, f.queue,
		deckSize, 100,
	)
	return f
}

func (f *engineFixture) addUser(id int64, gender string, lat, lon *float64) {
	g := gender
	f.userRepo.users[id] = &users.User{
		ID:               id,
		Name:             "user",
		Gender:           &g,
		Latitude:         lat,
		Longitude:        lon,
		SubscriptionTier: "free",
	}
}

func coords(lat, lon float64) (*float64, *float64) {
	return &lat, &lon
}

func deckIDs(deck []*users.User) []int64 {
	out := make([]int64, 0, len(deck))
	for _, u := range deck {
		out = append(out, u.ID)
	}
	return out
}

func TestGetDiscoverUnknownViewer(t *testing.T) {
	f := newEngineFixture(4)

	deck, err := f.engine.GetDiscover(context.Background(), 42)

	require.NoError(t, err)
	assert.Empty(t, deck)
}

func TestGetDiscoverFullQueueIsStable(t *testing.T) {
	f := newEngineFixture(3)
	lat, lon := coords(51.5, -0.1)
	f.addUser(1, "female", lat, lon)
	for id := int64(10); id <= 12; id++ {
		f.addUser(id, "male", nil, nil)
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.queue.seed(1, 12, StatusQueued, base.Add(2*time.Second))
	f.queue.seed(1, 10, StatusQueued, base)
	f.queue.seed(1, 11, StatusQueued, base.Add(time.Second))

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, deckIDs(deck))
	assert.Zero(t, f.userRepo.nearbyCalls, "a full queue must not trigger ranking")

	// a second read returns the same deck
	again, err := f.engine.GetDiscover(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, deckIDs(deck), deckIDs(again))
}

func TestGetDiscoverProximityTopUp(t *testing.T) {
	f := newEngineFixture(4)
	lat, lon := coords(51.5, -0.1)
	f.addUser(1, "female", lat, lon)
	f.prefRepo.prefs[1] = &preferences.Preference{UserID: 1, Distance: 50, GenderPreference: "any"}

	for id := int64(2); id <= 7; id++ {
		f.addUser(id, "male", nil, nil)
	}
	f.userRepo.nearby = []users.NearbyUser{
		{ID: 2, DistanceKm: 1}, {ID: 3, DistanceKm: 2}, {ID: 4, DistanceKm: 3},
		{ID: 5, DistanceKm: 4}, {ID: 6, DistanceKm: 5}, {ID: 7, DistanceKm: 6},
	}
	f.boostRepo.boosted[6] = true
	f.boostRepo.boosted[7] = true

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	// boosted candidates lead, capped at two in a row, then nearest regulars
	assert.Equal(t, []int64{6, 7, 2, 3}, deckIDs(deck))
	assert.Equal(t, 1, f.boostRepo.sweeps, "expired boosts must be swept before ranking")
}

func TestGetDiscoverProximityFiltersGenderAndRadius(t *testing.T) {
	f := newEngineFixture(20)
	lat, lon := coords(14.5995, 120.9842)
	f.addUser(1, "male", lat, lon)
	f.prefRepo.prefs[1] = &preferences.Preference{UserID: 1, Distance: 10, GenderPreference: "female"}

	f.addUser(2, "female", nil, nil)
	f.addUser(3, "male", nil, nil)
	f.addUser(4, "female", nil, nil)
	f.userRepo.nearby = []users.NearbyUser{
		{ID: 3, DistanceKm: 1},
		{ID: 2, DistanceKm: 2},
		{ID: 4, DistanceKm: 50},
	}

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	// 3 filtered by gender, 4 filtered by radius
	assert.Equal(t, []int64{2}, deckIDs(deck))
}

func TestGetDiscoverNoPreferenceRowUsesAffinity(t *testing.T) {
	f := newEngineFixture(2)
	lat, lon := coords(51.5, -0.1)
	f.addUser(1, "female", lat, lon)

	f.addUser(2, "male", nil, nil)
	f.addUser(3, "male", nil, nil)
	f.userRepo.nearby = []users.NearbyUser{
		{ID: 2, DistanceKm: 1}, {ID: 3, DistanceKm: 2},
	}

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	assert.Zero(t, f.userRepo.nearbyCalls, "coordinates without a saved search distance must not trigger proximity")
	assert.Equal(t, []int64{2, 3}, deckIDs(deck))
}

func TestTopUpQueuesOnlyWhatTheDeckNeeds(t *testing.T) {
	f := newEngineFixture(3)
	lat, lon := coords(51.5, -0.1)
	f.addUser(1, "female", lat, lon)
	f.prefRepo.prefs[1] = &preferences.Preference{UserID: 1, Distance: 50, GenderPreference: "any"}

	for id := int64(2); id <= 11; id++ {
		f.addUser(id, "male", nil, nil)
		f.userRepo.nearby = append(f.userRepo.nearby, users.NearbyUser{ID: id, DistanceKm: float64(id)})
	}

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, deckIDs(deck))

	queued := 0
	for _, e := range f.queue.entries {
		if e.UserID == 1 && e.Status == StatusQueued {
			queued++
		}
	}
	assert.Equal(t, 3, queued, "top-up must not queue beyond the deck size")
}

func TestGetDiscoverProximityExcludesHistory(t *testing.T) {
	f := newEngineFixture(3)
	lat, lon := coords(51.5, -0.1)
	f.addUser(1, "female", lat, lon)
	f.prefRepo.prefs[1] = &preferences.Preference{UserID: 1, Distance: 50, GenderPreference: "any"}

	for id := int64(2); id <= 6; id++ {
		f.addUser(id, "male", nil, nil)
	}
	f.userRepo.nearby = []users.NearbyUser{
		{ID: 2, DistanceKm: 1}, {ID: 3, DistanceKm: 2},
		{ID: 4, DistanceKm: 3}, {ID: 5, DistanceKm: 4}, {ID: 6, DistanceKm: 5},
	}
	f.matchRepo.matched[1] = []int64{2}
	f.swipeRepo.swiped[1] = []int64{3}
	f.swipeRepo.rejected[1] = []int64{4}

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, deckIDs(deck))

	exclude := make(map[int64]bool)
	for _, id := range f.userRepo.lastNearbyParams.ExcludeIDs {
		exclude[id] = true
	}
	for _, id := range []int64{1, 2, 3, 4} {
		assert.True(t, exclude[id], "expected %d in exclusion set", id)
	}
}

func TestGetDiscoverAffinityRanking(t *testing.T) {
	f := newEngineFixture(3)
	f.addUser(1, "female", nil, nil)
	f.prefRepo.prefs[1] = &preferences.Preference{
		UserID:           1,
		GenderPreference: "any",
		Interests:        preferences.Interests{"hiking", "jazz"},
	}

	f.addUser(2, "male", nil, nil)
	f.addUser(3, "male", nil, nil)
	f.addUser(4, "male", nil, nil)
	f.prefRepo.interests[2] = []string{"hiking", "jazz"}
	f.prefRepo.interests[3] = []string{"hiking"}
	f.prefRepo.interests[4] = nil
	f.boostRepo.boosted[4] = true

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	// 4 is priority (boosted, 0.3), 2 scores 1.0, 3 scores 0.5
	assert.Equal(t, []int64{4, 2, 3}, deckIDs(deck))
}

func TestGetDiscoverAffinityGenderFilter(t *testing.T) {
	f := newEngineFixture(3)
	f.addUser(1, "female", nil, nil)
	f.prefRepo.prefs[1] = &preferences.Preference{UserID: 1, GenderPreference: "male"}

	f.addUser(2, "male", nil, nil)
	f.addUser(3, "female", nil, nil)

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, deckIDs(deck))
}

func TestGetDiscoverSuperLikerGetsMutualBonus(t *testing.T) {
	f := newEngineFixture(3)
	f.addUser(1, "female", nil, nil)
	f.prefRepo.prefs[1] = &preferences.Preference{
		UserID:           1,
		GenderPreference: "any",
		Interests:        preferences.Interests{"hiking"},
	}

	f.addUser(2, "male", nil, nil)
	f.addUser(3, "male", nil, nil)
	f.prefRepo.interests[2] = []string{"hiking"}
	f.superRepo.likedViewer = []int64{3}
	f.superRepo.mutual[3] = true

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	// the super liker takes priority placement ahead of a perfect interest match
	assert.Equal(t, []int64{3, 2}, deckIDs(deck))
}

func TestConsumedEntriesNeverResurrected(t *testing.T) {
	f := newEngineFixture(2)
	lat, lon := coords(51.5, -0.1)
	f.addUser(1, "female", lat, lon)
	f.prefRepo.prefs[1] = &preferences.Preference{UserID: 1, Distance: 50, GenderPreference: "any"}
	f.addUser(7, "male", nil, nil)
	f.addUser(8, "male", nil, nil)

	f.queue.seed(1, 7, StatusConsumed, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	f.userRepo.nearby = []users.NearbyUser{
		{ID: 7, DistanceKm: 1}, {ID: 8, DistanceKm: 2},
	}

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, []int64{8}, deckIDs(deck))

	entry := f.queue.find(1, 7)
	require.NotNil(t, entry)
	assert.Equal(t, StatusConsumed, entry.Status)
}

func TestMarkConsumedRetiresEntry(t *testing.T) {
	f := newEngineFixture(2)
	f.addUser(1, "female", nil, nil)
	f.addUser(5, "male", nil, nil)
	f.queue.seed(1, 5, StatusQueued, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	require.NoError(t, f.engine.MarkConsumed(context.Background(), 1, 5))

	deck, err := f.engine.GetDiscover(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, deck)
}

func TestClearForUserEmptiesQueue(t *testing.T) {
	f := newEngineFixture(2)
	f.addUser(1, "female", nil, nil)
	f.addUser(5, "male", nil, nil)
	f.queue.seed(1, 5, StatusQueued, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	f.queue.seed(2, 5, StatusQueued, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	require.NoError(t, f.engine.ClearForUser(context.Background(), 1))

	assert.Nil(t, f.queue.find(1, 5))
	assert.NotNil(t, f.queue.find(2, 5), "other users' queues are untouched")
}

func TestDeletedTargetsDropFromDeck(t *testing.T) {
	f := newEngineFixture(2)
	f.addUser(1, "female", nil, nil)
	f.addUser(5, "male", nil, nil)
	f.userRepo.users[5].IsDeleted = true
	f.queue.seed(1, 5, StatusQueued, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	deck, err := f.engine.GetDiscover(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, deck)
}
