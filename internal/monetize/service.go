package monetize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emberly-app/emberly-backend/internal/common/utils"
	"github.com/emberly-app/emberly-backend/internal/swipes"
	"github.com/emberly-app/emberly-backend/internal/users"
)

var (
	ErrBoostNotAllowed   = errors.New("boost requires gold or premium tier")
	ErrBoostCooldown     = errors.New("boost is still on cooldown")
	ErrBoostActive       = errors.New("a boost is already active")
	ErrSuperLikeQuota    = errors.New("super like quota exhausted")
	ErrSelfSuperLike     = errors.New("cannot super like yourself")
	ErrTierNotUpgrade    = errors.New("requested tier is not an upgrade")
	ErrRecipientNotFound = errors.New("recipient not found")
)

const (
	premiumBoostCooldown = 12 * time.Hour
	goldSuperLikesPerDay = 5
	baseSuperLikesPerDay = 1
	superLikeWindow      = 24 * time.Hour
	upgradeCreditExpiry  = 7 * 24 * time.Hour
	superLikersPageLimit = 100
)

// QueuePrioritizer pushes a super-liker to the front of the receiver's deck
type QueuePrioritizer interface {
	EnsureQueued(ctx context.Context, userID, targetID int64) error
	Prioritize(ctx context.Context, userID, targetID int64) error
}

// Notifier pushes realtime events to a connected user
type Notifier interface {
	SendToUser(userID int64, event string, payload interface{})
}

type Service interface {
	ActivateBoost(ctx context.Context, userID int64) (*Boost, error)
	BoostStatus(ctx context.Context, userID int64) (*BoostStatus, error)
	SendSuperLike(ctx context.Context, senderID int64, dto *SendSuperLikeDTO) (*SuperLike, error)
	SuperLikeStatus(ctx context.Context, userID int64) (*SuperLikeStatus, error)
	SuperLikers(ctx context.Context, userID int64) ([]*users.User, error)
	UpgradeTier(ctx context.Context, userID int64, dto *UpgradeTierDTO) (*users.User, error)
}

type service struct {
	boosts        BoostRepository
	superLikes    SuperLikeRepository
	credits       CreditRepository
	users         users.Repository
	swipeService  swipes.Service
	queue         QueuePrioritizer
	notifier      Notifier
	boostDuration time.Duration
	now           func() time.Time
}

func NewService(
	boosts BoostRepository,
	superLikes SuperLikeRepository,
	credits CreditRepository,
	userRepo users.Repository,
	swipeService swipes.Service,
	queue QueuePrioritizer,
	notifier Notifier,
	boostDuration time.Duration,
) Service {
	return &service{
		boosts:        boosts,
		superLikes:    superLikes,
		credits:       credits,
		users:         userRepo,
		swipeService:  swipeService,
		queue:         queue,
		notifier:      notifier,
		boostDuration: boostDuration,
		now:           time.Now,
	}
}

// ActivateBoost starts a visibility boost. Premium users are limited by a
// rolling cooldown after their last boost ended; gold users get one boost per
// window, with windows resetting at 12:00 and 18:00 local time.
func (s *service) ActivateBoost(ctx context.Context, userID int64) (*Boost, error) {
	if err := s.boosts.DeactivateExpired(ctx); err != nil {
		return nil, fmt.Errorf("sweeping expired boosts: %w", err)
	}

	tier, err := s.tierFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	switch tier {
	case TierPremium:
		last, err := s.boosts.LatestForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			if last.IsActive && last.EndTime.After(now) {
				return nil, ErrBoostActive
			}
			if now.Before(last.EndTime.Add(premiumBoostCooldown)) {
				return nil, ErrBoostCooldown
			}
		}
	case TierGold:
		active, err := s.boosts.HasActive(ctx, userID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, ErrBoostActive
		}
		used, err := s.boosts.CountSince(ctx, userID, boostWindowStart(now))
		if err != nil {
			return nil, err
		}
		if used > 0 {
			return nil, ErrBoostCooldown
		}
	default:
		return nil, ErrBoostNotAllowed
	}

	return s.boosts.Create(ctx, userID, now, now.Add(s.boostDuration))
}

func (s *service) BoostStatus(ctx context.Context, userID int64) (*BoostStatus, error) {
	if err := s.boosts.DeactivateExpired(ctx); err != nil {
		return nil, fmt.Errorf("sweeping expired boosts: %w", err)
	}

	last, err := s.boosts.LatestForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &BoostStatus{}
	if last == nil {
		return status, nil
	}

	now := s.now()
	if last.IsActive && last.EndTime.After(now) {
		status.Active = true
		status.EndsAt = &last.EndTime
		return status, nil
	}

	tier, err := s.tierFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tier == TierPremium {
		next := last.EndTime.Add(premiumBoostCooldown)
		if next.After(now) {
			status.NextAvailableAt = &next
		}
	}
	return status, nil
}

// SendSuperLike spends quota, records the underlying like, and pushes the
// sender to the front of the receiver's deck.
func (s *service) SendSuperLike(ctx context.Context, senderID int64, dto *SendSuperLikeDTO) (*SuperLike, error) {
	if err := utils.ValidateStruct(dto); err != nil {
		return nil, err
	}
	if dto.ReceiverID == senderID {
		return nil, ErrSelfSuperLike
	}

	receiver, err := s.users.FindByID(ctx, dto.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrRecipientNotFound
	}

	status, err := s.SuperLikeStatus(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if !status.Unlimited && status.Remaining <= 0 {
		return nil, ErrSuperLikeQuota
	}

	sl, err := s.superLikes.Create(ctx, senderID, dto.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("recording super like: %w", err)
	}

	// a super like implies a like; a resulting match is handled by the swipe
	// flow. The super like itself stands even if the implied like fails.
	_, _ = s.swipeService.Record(ctx, senderID, &swipes.RecordSwipeDTO{
		TargetID:  dto.ReceiverID,
		Direction: swipes.DirectionLike,
	})

	if s.queue != nil {
		_ = s.queue.EnsureQueued(ctx, dto.ReceiverID, senderID)
		_ = s.queue.Prioritize(ctx, dto.ReceiverID, senderID)
	}

	if s.notifier != nil {
		s.notifier.SendToUser(dto.ReceiverID, "superlike:received", map[string]interface{}{
			"sender_id": senderID,
		})
	}

	return sl, nil
}

func (s *service) SuperLikeStatus(ctx context.Context, userID int64) (*SuperLikeStatus, error) {
	tier, err := s.tierFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	if tier == TierPremium {
		return &SuperLikeStatus{Unlimited: true}, nil
	}

	quota := int64(baseSuperLikesPerDay)
	if tier == TierGold {
		quota = goldSuperLikesPerDay
	}

	// carry-over credits top up every non-premium tier
	credits, err := s.credits.SumActive(ctx, userID, CreditKindSuperLike)
	if err != nil {
		return nil, err
	}
	quota += credits

	used, err := s.superLikes.CountSentSince(ctx, userID, s.now().Add(-superLikeWindow))
	if err != nil {
		return nil, err
	}

	remaining := quota - used
	if remaining < 0 {
		remaining = 0
	}
	return &SuperLikeStatus{Remaining: remaining}, nil
}

// SuperLikers lists the users who sent this user a super like
func (s *service) SuperLikers(ctx context.Context, userID int64) ([]*users.User, error) {
	ids, err := s.superLikes.SendersWhoSuperLiked(ctx, userID, superLikersPageLimit)
	if err != nil {
		return nil, err
	}

	out := make([]*users.User, 0, len(ids))
	for _, id := range ids {
		sender, err := s.users.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sender == nil || sender.IsDeleted {
			continue
		}
		out = append(out, sender)
	}
	return out, nil
}

// UpgradeTier moves a user to a higher tier. Unused daily super likes from the
// old tier carry over as expiring credits.
func (s *service) UpgradeTier(ctx context.Context, userID int64, dto *UpgradeTierDTO) (*users.User, error) {
	if err := utils.ValidateStruct(dto); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, users.ErrUserNotFound
	}

	if tierRank(dto.Tier) <= tierRank(user.SubscriptionTier) {
		return nil, ErrTierNotUpgrade
	}

	if remaining := s.carryOverAmount(ctx, userID, user.SubscriptionTier); remaining > 0 {
		_ = s.credits.Add(ctx, userID, CreditKindSuperLike, remaining, s.now().Add(upgradeCreditExpiry))
	}

	if err := s.users.UpdateSubscriptionTier(ctx, userID, dto.Tier); err != nil {
		return nil, err
	}

	user.SubscriptionTier = dto.Tier
	return user, nil
}

func (s *service) carryOverAmount(ctx context.Context, userID int64, oldTier string) int {
	if oldTier == TierPremium {
		return 0
	}

	quota := int64(baseSuperLikesPerDay)
	if oldTier == TierGold {
		quota = goldSuperLikesPerDay
	}

	used, err := s.superLikes.CountSentSince(ctx, userID, s.now().Add(-superLikeWindow))
	if err != nil {
		return 0
	}

	remaining := quota - used
	if remaining <= 0 {
		return 0
	}
	return int(remaining)
}

func (s *service) tierFor(ctx context.Context, userID int64) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", users.ErrUserNotFound
	}
	return user.SubscriptionTier, nil
}

func tierRank(tier string) int {
	switch tier {
	case TierPlus:
		return 1
	case TierGold:
		return 2
	case TierPremium:
		return 3
	default:
		return 0
	}
}

// boostWindowStart returns the start of the current gold boost window.
// Windows reset at 12:00 and 18:00 local time.
func boostWindowStart(now time.Time) time.Time {
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	evening := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())

	switch {
	case !now.Before(evening):
		return evening
	case !now.Before(noon):
		return noon
	default:
		return evening.AddDate(0, 0, -1)
	}
}
