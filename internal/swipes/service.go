package swipes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/emberly-app/emberly-backend/internal/common/utils"
	"github.com/emberly-app/emberly-backend/internal/matches"
)

var (
	ErrSelfSwipe          = errors.New("cannot swipe on yourself")
	ErrNoActiveRejection  = errors.New("no active rejection to undo")
	ErrUndoRequiresUpsell = errors.New("rejection undo requires a paid tier")
)

const (
	likersPageLimit      = 50
	likersCountCacheTTL  = time.Hour
	swipeHistoryPageSize = 100
)

// Notifier pushes realtime events to a connected user
type Notifier interface {
	SendToUser(userID int64, event string, payload interface{})
}

// QueueConsumer marks a discover queue entry consumed once its target is swiped
type QueueConsumer interface {
	MarkConsumed(ctx context.Context, userID, targetID int64) error
}

// TierSource resolves a user's subscription tier
type TierSource interface {
	TierForUser(ctx context.Context, userID int64) (string, error)
}

type Service interface {
	Record(ctx context.Context, swiperID int64, dto *RecordSwipeDTO) (*RecordSwipeResponse, error)
	History(ctx context.Context, swiperID int64) ([]*Swipe, error)
	Likers(ctx context.Context, userID int64) (*LikersResponse, error)
	UndoRejection(ctx context.Context, userID, targetID int64) error
}

type service struct {
	repo     Repository
	matches  matches.Repository
	queue    QueueConsumer
	tiers    TierSource
	notifier Notifier
	cache    *redis.Client
}

func NewService(repo Repository, matchRepo matches.Repository, queue QueueConsumer, tiers TierSource, notifier Notifier, cache *redis.Client) Service {
	return &service{
		repo:     repo,
		matches:  matchRepo,
		queue:    queue,
		tiers:    tiers,
		notifier: notifier,
		cache:    cache,
	}
}

// Record persists a swipe and runs its side effects. The swipe row itself is
// the primary path; queue consumption, cache invalidation and realtime pushes
// are best-effort and never fail the request.
func (s *service) Record(ctx context.Context, swiperID int64, dto *RecordSwipeDTO) (*RecordSwipeResponse, error) {
	if err := utils.ValidateStruct(dto); err != nil {
		return nil, err
	}
	if dto.TargetID == swiperID {
		return nil, ErrSelfSwipe
	}

	swipe, err := s.repo.UpsertSwipe(ctx, swiperID, dto.TargetID, dto.Direction)
	if err != nil {
		return nil, fmt.Errorf("recording swipe: %w", err)
	}

	// the target leaves the deck whichever way the card went
	if s.queue != nil {
		_ = s.queue.MarkConsumed(ctx, swiperID, dto.TargetID)
	}

	resp := &RecordSwipeResponse{Swipe: swipe}

	if dto.Direction == DirectionPass {
		if err := s.repo.AddRejection(ctx, swiperID, dto.TargetID); err != nil {
			return nil, fmt.Errorf("recording rejection: %w", err)
		}
		return resp, nil
	}

	s.invalidateLikersCount(ctx, dto.TargetID)

	match, err := s.matches.CreateIfMutualLike(ctx, swiperID, dto.TargetID)
	if err != nil {
		return nil, fmt.Errorf("checking mutual like: %w", err)
	}

	if match != nil {
		resp.Matched = true
		resp.MatchID = match.ID
		if s.notifier != nil {
			payload := map[string]interface{}{"match_id": match.ID}
			s.notifier.SendToUser(swiperID, "match:created", payload)
			s.notifier.SendToUser(dto.TargetID, "match:created", payload)
		}
	} else if s.notifier != nil {
		s.notifier.SendToUser(dto.TargetID, "likers:refresh", nil)
	}

	return resp, nil
}

func (s *service) History(ctx context.Context, swiperID int64) ([]*Swipe, error) {
	return s.repo.ListBySwiper(ctx, swiperID, swipeHistoryPageSize)
}

// Likers serves the liked-you list with a cache-aside count. A missing or
// unreachable cache degrades to the database silently.
func (s *service) Likers(ctx context.Context, userID int64) (*LikersResponse, error) {
	list, err := s.repo.ListLikers(ctx, userID, likersPageLimit)
	if err != nil {
		return nil, err
	}

	count, ok := s.cachedLikersCount(ctx, userID)
	if !ok {
		count, err = s.repo.CountLikers(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.storeLikersCount(ctx, userID, count)
	}

	return &LikersResponse{Count: count, Likers: list}, nil
}

// UndoRejection reverses a pass for paid tiers, restoring the target to
// discovery eligibility by removing both the rejection and the pass swipe.
func (s *service) UndoRejection(ctx context.Context, userID, targetID int64) error {
	tier, err := s.tiers.TierForUser(ctx, userID)
	if err != nil {
		return err
	}
	if tier == "free" {
		return ErrUndoRequiresUpsell
	}

	rej, err := s.repo.FindActiveRejection(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if rej == nil {
		return ErrNoActiveRejection
	}

	if err := s.repo.UndoRejection(ctx, userID, targetID); err != nil {
		return err
	}
	return s.repo.DeleteSwipe(ctx, userID, targetID, DirectionPass)
}

func likersCountKey(userID int64) string {
	return "likers:count:" + strconv.FormatInt(userID, 10)
}

func (s *service) cachedLikersCount(ctx context.Context, userID int64) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	val, err := s.cache.Get(ctx, likersCountKey(userID)).Int64()
	if err != nil {
		return 0, false
	}
	return val, true
}

func (s *service) storeLikersCount(ctx context.Context, userID int64, count int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, likersCountKey(userID), count, likersCountCacheTTL).Err()
}

func (s *service) invalidateLikersCount(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, likersCountKey(userID)).Err()
}
