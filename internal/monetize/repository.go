package monetize

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type BoostRepository interface {
	Create(ctx context.Context, userID int64, start, end time.Time) (*Boost, error)
	DeactivateExpired(ctx context.Context) error
	HasActive(ctx context.Context, userID int64) (bool, error)
	LatestForUser(ctx context.Context, userID int64) (*Boost, error)
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
	ActiveBoostedAmong(ctx context.Context, candidateIDs []int64) ([]int64, error)
}

type SuperLikeRepository interface {
	Create(ctx context.Context, senderID, receiverID int64) (*SuperLike, error)
	CountSentSince(ctx context.Context, senderID int64, since time.Time) (int64, error)
	SendersWhoSuperLiked(ctx context.Context, receiverID int64, limit int) ([]int64, error)
	MutualSuperLikeIDs(ctx context.Context, userID int64, candidateIDs []int64) ([]int64, error)
}

type CreditRepository interface {
	Add(ctx context.Context, userID int64, kind string, amount int, expiresAt time.Time) error
	SumActive(ctx context.Context, userID int64, kind string) (int64, error)
	CleanupExpired(ctx context.Context) error
}

type postgresBoostRepository struct {
	db *sqlx.DB
}

func NewPostgresBoostRepository(db *sqlx.DB) BoostRepository {
	return &postgresBoostRepository{db: db}
}

func (r *postgresBoostRepository) Create(ctx context.Context, userID int64, start, end time.Time) (*Boost, error) {
	var boost Boost
	query := `
		INSERT INTO boosts (user_id, start_time, end_time, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, user_id, start_time, end_time, is_active, created_at
	`

	if err := r.db.GetContext(ctx, &boost, query, userID, start, end); err != nil {
		return nil, err
	}
	return &boost, nil
}

func (r *postgresBoostRepository) DeactivateExpired(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE boosts SET is_active = FALSE WHERE is_active = TRUE AND end_time <= NOW()`)
	return err
}

func (r *postgresBoostRepository) HasActive(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM boosts WHERE user_id = $1 AND is_active = TRUE AND end_time > NOW())`

	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresBoostRepository) LatestForUser(ctx context.Context, userID int64) (*Boost, error) {
	var boost Boost
	query := `
		SELECT id, user_id, start_time, end_time, is_active, created_at
		FROM boosts WHERE user_id = $1
		ORDER BY end_time DESC LIMIT 1
	`

	err := r.db.GetContext(ctx, &boost, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &boost, nil
}

func (r *postgresBoostRepository) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM boosts WHERE user_id = $1 AND start_time >= $2`

	if err := r.db.GetContext(ctx, &count, query, userID, since); err != nil {
		return 0, err
	}
	return count, nil
}

// ActiveBoostedAmong filters the candidate set down to currently boosted users
func (r *postgresBoostRepository) ActiveBoostedAmong(ctx context.Context, candidateIDs []int64) ([]int64, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	var ids []int64
	query := `
		SELECT DISTINCT user_id FROM boosts
		WHERE is_active = TRUE AND end_time > NOW() AND user_id = ANY($1)
	`

	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(candidateIDs)); err != nil {
		return nil, err
	}
	return ids, nil
}

type postgresSuperLikeRepository struct {
	db *sqlx.DB
}

func NewPostgresSuperLikeRepository(db *sqlx.DB) SuperLikeRepository {
	return &postgresSuperLikeRepository{db: db}
}

func (r *postgresSuperLikeRepository) Create(ctx context.Context, senderID, receiverID int64) (*SuperLike, error) {
	var sl SuperLike
	query := `
		INSERT INTO super_likes (sender_id, receiver_id)
		VALUES ($1, $2)
		RETURNING id, sender_id, receiver_id, created_at
	`

	if err := r.db.GetContext(ctx, &sl, query, senderID, receiverID); err != nil {
		return nil, err
	}
	return &sl, nil
}

func (r *postgresSuperLikeRepository) CountSentSince(ctx context.Context, senderID int64, since time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM super_likes WHERE sender_id = $1 AND created_at >= $2`

	if err := r.db.GetContext(ctx, &count, query, senderID, since); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresSuperLikeRepository) SendersWhoSuperLiked(ctx context.Context, receiverID int64, limit int) ([]int64, error) {
	var ids []int64
	query := `
		SELECT sender_id FROM super_likes
		WHERE receiver_id = $1
		GROUP BY sender_id
		ORDER BY MAX(created_at) DESC
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &ids, query, receiverID, limit); err != nil {
		return nil, err
	}
	return ids, nil
}

// MutualSuperLikeIDs returns candidates who both sent a super like to the user
// and received one from them.
func (r *postgresSuperLikeRepository) MutualSuperLikeIDs(ctx context.Context, userID int64, candidateIDs []int64) ([]int64, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	var ids []int64
	query := `
		SELECT DISTINCT a.sender_id
		FROM super_likes a
		JOIN super_likes b ON b.sender_id = a.receiver_id AND b.receiver_id = a.sender_id
		WHERE a.receiver_id = $1 AND a.sender_id = ANY($2)
	`

	if err := r.db.SelectContext(ctx, &ids, query, userID, pq.Array(candidateIDs)); err != nil {
		return nil, err
	}
	return ids, nil
}

type postgresCreditRepository struct {
	db *sqlx.DB
}

func NewPostgresCreditRepository(db *sqlx.DB) CreditRepository {
	return &postgresCreditRepository{db: db}
}

func (r *postgresCreditRepository) Add(ctx context.Context, userID int64, kind string, amount int, expiresAt time.Time) error {
	query := `INSERT INTO resource_credits (user_id, kind, amount, expires_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, userID, kind, amount, expiresAt)
	return err
}

func (r *postgresCreditRepository) SumActive(ctx context.Context, userID int64, kind string) (int64, error) {
	var sum int64
	query := `
		SELECT COALESCE(SUM(amount), 0) FROM resource_credits
		WHERE user_id = $1 AND kind = $2 AND expires_at > NOW()
	`

	if err := r.db.GetContext(ctx, &sum, query, userID, kind); err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *postgresCreditRepository) CleanupExpired(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM resource_credits WHERE expires_at <= NOW()`)
	return err
}
