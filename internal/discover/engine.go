package discover

import (
	"context"
	"fmt"

	"github.com/emberly-app/emberly-backend/internal/matches"
	"github.com/emberly-app/emberly-backend/internal/monetize"
	"github.com/emberly-app/emberly-backend/internal/preferences"
	"github.com/emberly-app/emberly-backend/internal/swipes"
	"github.com/emberly-app/emberly-backend/internal/users"
)

const (
	modeProximity = "proximity"
	modeAffinity  = "affinity"

	candidateFetchMultiplier = 5
)

type Service interface {
	GetDiscover(ctx context.Context, viewerID int64) ([]*users.User, error)
	MarkConsumed(ctx context.Context, userID, targetID int64) error
	ClearForUser(ctx context.Context, userID int64) error
}

// Engine builds and serves per-user recommendation decks. Decks are durable:
// a request first drains the queued entries and only ranks fresh candidates
// when the queue runs short, so repeat requests see a stable deck.
type Engine struct {
	users               users.Repository
	prefs               preferences.Repository
	matches             matches.Repository
	swipes              swipes.Repository
	boosts              monetize.BoostRepository
	superLikes          monetize.SuperLikeRepository
	queue               QueueStore
	deckSize            int
	superLikeQueryLimit int
}

func NewEngine(
	userRepo users.Repository,
	prefRepo preferences.Repository,
	matchRepo matches.Repository,
	swipeRepo swipes.Repository,
	boostRepo monetize.BoostRepository,
	superLikeRepo monetize.SuperLikeRepository,
	queue QueueStore,
	deckSize int,
	superLikeQueryLimit int,
) *Engine {
	return &Engine{
		users:               userRepo,
		prefs:               prefRepo,
		matches:             matchRepo,
		swipes:              swipeRepo,
		boosts:              boostRepo,
		superLikes:          superLikeRepo,
		queue:               queue,
		deckSize:            deckSize,
		superLikeQueryLimit: superLikeQueryLimit,
	}
}

// GetDiscover returns the viewer's current deck, topping the queue up from
// ranked candidates when it holds fewer than deckSize entries.
func (e *Engine) GetDiscover(ctx context.Context, viewerID int64) ([]*users.User, error) {
	discoverRequests.Inc()

	// heal matches that a failed swipe-time creation left behind
	_ = e.matches.CreateMissingForUser(ctx, viewerID)

	viewer, err := e.users.FindByID(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("loading viewer: %w", err)
	}
	if viewer == nil || viewer.IsDeleted {
		return []*users.User{}, nil
	}

	entries, err := e.queue.QueuedEntries(ctx, viewerID, e.deckSize)
	if err != nil {
		return nil, fmt.Errorf("reading queue: %w", err)
	}

	if len(entries) < e.deckSize {
		if err := e.topUp(ctx, viewer, entries); err != nil {
			return nil, err
		}
		entries, err = e.queue.QueuedEntries(ctx, viewerID, e.deckSize)
		if err != nil {
			return nil, fmt.Errorf("re-reading queue: %w", err)
		}
	}

	deck, err := e.materialize(ctx, entries)
	if err != nil {
		return nil, err
	}

	discoverDeckSize.Observe(float64(len(deck)))
	return deck, nil
}

// MarkConsumed retires a deck entry after its target was swiped
func (e *Engine) MarkConsumed(ctx context.Context, userID, targetID int64) error {
	if err := e.queue.MarkConsumed(ctx, userID, targetID); err != nil {
		return err
	}
	discoverConsumed.Inc()
	return nil
}

// ClearForUser drops the whole queue so the next request rebuilds it under
// fresh filters
func (e *Engine) ClearForUser(ctx context.Context, userID int64) error {
	return e.queue.ClearForUser(ctx, userID)
}

// topUp ranks fresh candidates and queues them behind the existing entries.
// Proximity ranking applies only when the viewer has coordinates AND a saved
// preference row carrying a search distance; otherwise the engine falls back
// to interest affinity.
func (e *Engine) topUp(ctx context.Context, viewer *users.User, queued []*QueueEntry) error {
	need := e.deckSize - len(queued)

	exclude, err := e.exclusionSet(ctx, viewer.ID, queued)
	if err != nil {
		return err
	}

	pref, err := e.prefs.GetByUserID(ctx, viewer.ID)
	if err != nil {
		return fmt.Errorf("loading preferences: %w", err)
	}

	// expired boosts must not grant priority placement
	if err := e.boosts.DeactivateExpired(ctx); err != nil {
		return fmt.Errorf("sweeping expired boosts: %w", err)
	}

	var picks []candidate
	mode := modeAffinity
	if viewer.HasCoordinates() && pref != nil {
		mode = modeProximity
		picks, err = e.rankByProximity(ctx, viewer, pref, exclude, need)
	} else {
		picks, err = e.rankByAffinity(ctx, viewer, pref, exclude, need)
	}
	if err != nil {
		return err
	}
	discoverTopUps.WithLabelValues(mode).Inc()

	for _, pick := range picks {
		if err := e.queue.EnsureQueued(ctx, viewer.ID, pick.ID); err != nil {
			return fmt.Errorf("queueing candidate %d: %w", pick.ID, err)
		}
	}

	// stamp picks into rank order behind the surviving entries; position is
	// cosmetic once written, so failures are not fatal
	for i, pick := range picks {
		_ = e.queue.Restamp(ctx, viewer.ID, pick.ID, len(picks)-i)
	}

	return nil
}

// exclusionSet gathers every user the viewer must never see again: matches,
// anyone swiped in either direction, actively rejected users, anything
// already queued, and the viewer themselves.
func (e *Engine) exclusionSet(ctx context.Context, viewerID int64, queued []*QueueEntry) (map[int64]bool, error) {
	matched, err := e.matches.MatchedCounterpartIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("loading matched ids: %w", err)
	}

	swiped, err := e.swipes.SwipedEitherDirectionIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("loading swipe history: %w", err)
	}

	rejected, err := e.swipes.ActiveRejectedIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("loading rejections: %w", err)
	}

	exclude := toIDSet(matched)
	for _, id := range swiped {
		exclude[id] = true
	}
	for _, id := range rejected {
		exclude[id] = true
	}
	for _, entry := range queued {
		exclude[entry.TargetID] = true
	}
	exclude[viewerID] = true
	return exclude, nil
}

func (e *Engine) rankByProximity(ctx context.Context, viewer *users.User, pref *preferences.Preference, exclude map[int64]bool, need int) ([]candidate, error) {
	nearby, err := e.users.FindNearby(ctx, &users.NearbyParams{
		ViewerID:     viewer.ID,
		OriginLat:    *viewer.Latitude,
		OriginLon:    *viewer.Longitude,
		MaxRadiusKm:  float64(pref.Distance),
		GenderFilter: pref.GenderPreference,
		ExcludeIDs:   setToIDs(exclude),
		Limit:        need * candidateFetchMultiplier,
	})
	if err != nil {
		return nil, fmt.Errorf("finding nearby candidates: %w", err)
	}

	candIDs := make([]int64, 0, len(nearby))
	for _, n := range nearby {
		candIDs = append(candIDs, n.ID)
	}

	boosted, superLiked, err := e.prioritySets(ctx, viewer.ID, candIDs)
	if err != nil {
		return nil, err
	}

	// nearby rows arrive sorted closest first; keep that order within
	// each priority class
	cands := make([]candidate, 0, len(nearby))
	for _, n := range nearby {
		cands = append(cands, candidate{
			ID:       n.ID,
			Score:    -n.DistanceKm,
			Priority: boosted[n.ID] || superLiked[n.ID],
		})
	}

	priority, regular := splitByPriority(cands)
	return interleave(priority, regular, need), nil
}

func (e *Engine) rankByAffinity(ctx context.Context, viewer *users.User, pref *preferences.Preference, exclude map[int64]bool, need int) ([]candidate, error) {
	all, err := e.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	gender := "any"
	var viewerInterests []string
	if pref != nil {
		gender = pref.GenderPreference
		viewerInterests = pref.Interests
	}

	pool := make([]*users.User, 0, len(all))
	for _, u := range all {
		if exclude[u.ID] {
			continue
		}
		if gender != "any" && (u.Gender == nil || *u.Gender != gender) {
			continue
		}
		pool = append(pool, u)
	}

	candIDs := make([]int64, 0, len(pool))
	for _, u := range pool {
		candIDs = append(candIDs, u.ID)
	}

	interests, err := e.prefs.InterestsByUserIDs(ctx, candIDs)
	if err != nil {
		return nil, fmt.Errorf("loading candidate interests: %w", err)
	}

	boosted, superLiked, err := e.prioritySets(ctx, viewer.ID, candIDs)
	if err != nil {
		return nil, err
	}

	mutual, err := e.superLikes.MutualSuperLikeIDs(ctx, viewer.ID, candIDs)
	if err != nil {
		return nil, fmt.Errorf("loading mutual super likes: %w", err)
	}
	mutualSet := toIDSet(mutual)

	cands := make([]candidate, 0, len(pool))
	for _, u := range pool {
		score := jaccardSimilarity(viewerInterests, interests[u.ID])
		if boosted[u.ID] {
			score += boostScoreBonus
		}
		if mutualSet[u.ID] {
			score += mutualSuperLikeBonus
		} else if superLiked[u.ID] {
			score += receivedSuperLikeBonus
		}

		cands = append(cands, candidate{
			ID:       u.ID,
			Score:    score,
			Priority: boosted[u.ID] || superLiked[u.ID],
		})
	}

	sortByScore(cands)
	priority, regular := splitByPriority(cands)
	return interleave(priority, regular, need), nil
}

// prioritySets resolves which candidates get monetized placement: active
// boosts, and senders of a super like to the viewer.
func (e *Engine) prioritySets(ctx context.Context, viewerID int64, candIDs []int64) (boosted, superLiked map[int64]bool, err error) {
	boostedIDs, err := e.boosts.ActiveBoostedAmong(ctx, candIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("loading boosted candidates: %w", err)
	}

	senderIDs, err := e.superLikes.SendersWhoSuperLiked(ctx, viewerID, e.superLikeQueryLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("loading super likers: %w", err)
	}

	return toIDSet(boostedIDs), toIDSet(senderIDs), nil
}

// materialize resolves queue entries to profiles, silently dropping targets
// that vanished since they were queued
func (e *Engine) materialize(ctx context.Context, entries []*QueueEntry) ([]*users.User, error) {
	deck := make([]*users.User, 0, len(entries))
	for _, entry := range entries {
		user, err := e.users.FindByID(ctx, entry.TargetID)
		if err != nil {
			return nil, fmt.Errorf("loading deck profile %d: %w", entry.TargetID, err)
		}
		if user == nil || user.IsDeleted {
			continue
		}
		deck = append(deck, user)
	}
	return deck, nil
}

func setToIDs(set map[int64]bool) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
