package matches

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	ListForUser(ctx context.Context, userID int64) ([]*Match, error)
	FindBetween(ctx context.Context, a, b int64) (*Match, error)
	FindByID(ctx context.Context, id int64) (*Match, error)
	CreateIfMutualLike(ctx context.Context, a, b int64) (*Match, error)
	CreateMissingForUser(ctx context.Context, userID int64) error
	Deactivate(ctx context.Context, id int64) error
	ListPendingCelebrations(ctx context.Context, userID int64) ([]*Match, error)
	MarkCelebrationShown(ctx context.Context, matchID, userID int64) error
	MatchedCounterpartIDs(ctx context.Context, userID int64) ([]int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const matchColumns = `id, user_a_id, user_b_id, is_active, celebration_shown_to_a, celebration_shown_to_b, created_at`

func (r *postgresRepository) ListForUser(ctx context.Context, userID int64) ([]*Match, error) {
	var list []*Match
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (user_a_id = $1 OR user_b_id = $1) AND is_active = TRUE
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *postgresRepository) FindBetween(ctx context.Context, a, b int64) (*Match, error) {
	if a > b {
		a, b = b, a
	}

	var match Match
	query := `
		SELECT ` + matchColumns + `
		FROM matches WHERE user_a_id = $1 AND user_b_id = $2
	`

	err := r.db.GetContext(ctx, &match, query, a, b)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*Match, error) {
	var match Match
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	err := r.db.GetContext(ctx, &match, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// CreateIfMutualLike materializes a match when reciprocal likes exist.
// Returns nil for self-pairs and for pairs without both like directions.
func (r *postgresRepository) CreateIfMutualLike(ctx context.Context, a, b int64) (*Match, error) {
	if a == b {
		return nil, nil
	}

	var mutual bool
	checkQuery := `
		SELECT EXISTS(
			SELECT 1 FROM swipes s1
			JOIN swipes s2 ON s2.swiper_id = s1.target_id AND s2.target_id = s1.swiper_id
			WHERE s1.swiper_id = $1 AND s1.target_id = $2
			  AND s1.direction = 'like' AND s2.direction = 'like'
		)
	`
	if err := r.db.GetContext(ctx, &mutual, checkQuery, a, b); err != nil {
		return nil, err
	}
	if !mutual {
		return nil, nil
	}

	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}

	insertQuery := `
		INSERT INTO matches (user_a_id, user_b_id, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (user_a_id, user_b_id) DO UPDATE SET is_active = TRUE
	`
	if _, err := r.db.ExecContext(ctx, insertQuery, lo, hi); err != nil {
		return nil, err
	}

	return r.FindBetween(ctx, lo, hi)
}

// CreateMissingForUser backfills match rows for every reciprocal like pair
// involving the user that has no match row yet.
func (r *postgresRepository) CreateMissingForUser(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO matches (user_a_id, user_b_id, is_active)
		SELECT DISTINCT LEAST(s1.swiper_id, s1.target_id),
		                GREATEST(s1.swiper_id, s1.target_id),
		                TRUE
		FROM swipes s1
		JOIN swipes s2 ON s1.swiper_id = s2.target_id AND s1.target_id = s2.swiper_id
		WHERE s1.direction = 'like' AND s2.direction = 'like'
		  AND (s1.swiper_id = $1 OR s1.target_id = $1)
		ON CONFLICT (user_a_id, user_b_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *postgresRepository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE matches SET is_active = FALSE WHERE id = $1`, id)
	return err
}

func (r *postgresRepository) ListPendingCelebrations(ctx context.Context, userID int64) ([]*Match, error) {
	var list []*Match
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE is_active = TRUE AND (
			   (user_a_id = $1 AND celebration_shown_to_a = FALSE)
			OR (user_b_id = $1 AND celebration_shown_to_b = FALSE)
		)
		ORDER BY created_at ASC
	`

	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *postgresRepository) MarkCelebrationShown(ctx context.Context, matchID, userID int64) error {
	query := `
		UPDATE matches
		SET celebration_shown_to_a = CASE WHEN user_a_id = $2 THEN TRUE ELSE celebration_shown_to_a END,
		    celebration_shown_to_b = CASE WHEN user_b_id = $2 THEN TRUE ELSE celebration_shown_to_b END
		WHERE id = $1 AND (user_a_id = $2 OR user_b_id = $2)
	`

	_, err := r.db.ExecContext(ctx, query, matchID, userID)
	return err
}

// MatchedCounterpartIDs returns the ids matched with the user, for exclusion sets
func (r *postgresRepository) MatchedCounterpartIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	query := `
		SELECT CASE WHEN user_a_id = $1 THEN user_b_id ELSE user_a_id END
		FROM matches
		WHERE (user_a_id = $1 OR user_b_id = $1) AND is_active = TRUE
	`

	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, err
	}
	return ids, nil
}
