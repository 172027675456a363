package swipes

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	UpsertSwipe(ctx context.Context, swiperID, targetID int64, direction string) (*Swipe, error)
	FindSwipe(ctx context.Context, swiperID, targetID int64) (*Swipe, error)
	ListBySwiper(ctx context.Context, swiperID int64, limit int) ([]*Swipe, error)
	SwipedEitherDirectionIDs(ctx context.Context, userID int64) ([]int64, error)
	DeleteSwipe(ctx context.Context, swiperID, targetID int64, direction string) error

	AddRejection(ctx context.Context, userID, targetID int64) error
	FindActiveRejection(ctx context.Context, userID, targetID int64) (*Rejection, error)
	UndoRejection(ctx context.Context, userID, targetID int64) error
	ActiveRejectedIDs(ctx context.Context, userID int64) ([]int64, error)

	ListLikers(ctx context.Context, userID int64, limit int) ([]*Liker, error)
	CountLikers(ctx context.Context, userID int64) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// UpsertSwipe records a swipe; re-swiping the same target replaces the
// previous direction (last direction wins).
func (r *postgresRepository) UpsertSwipe(ctx context.Context, swiperID, targetID int64, direction string) (*Swipe, error) {
	var swipe Swipe
	query := `
		INSERT INTO swipes (swiper_id, target_id, direction)
		VALUES ($1, $2, $3)
		ON CONFLICT (swiper_id, target_id)
		DO UPDATE SET direction = EXCLUDED.direction, updated_at = NOW()
		RETURNING id, swiper_id, target_id, direction, created_at, updated_at
	`

	if err := r.db.GetContext(ctx, &swipe, query, swiperID, targetID, direction); err != nil {
		return nil, err
	}
	return &swipe, nil
}

func (r *postgresRepository) FindSwipe(ctx context.Context, swiperID, targetID int64) (*Swipe, error) {
	var swipe Swipe
	query := `
		SELECT id, swiper_id, target_id, direction, created_at, updated_at
		FROM swipes WHERE swiper_id = $1 AND target_id = $2
	`

	err := r.db.GetContext(ctx, &swipe, query, swiperID, targetID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

func (r *postgresRepository) ListBySwiper(ctx context.Context, swiperID int64, limit int) ([]*Swipe, error) {
	var list []*Swipe
	query := `
		SELECT id, swiper_id, target_id, direction, created_at, updated_at
		FROM swipes
		WHERE swiper_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &list, query, swiperID, limit); err != nil {
		return nil, err
	}
	return list, nil
}

// SwipedEitherDirectionIDs returns every user the given user has swiped on
// plus every user who has swiped on them, for discovery exclusion.
func (r *postgresRepository) SwipedEitherDirectionIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	query := `
		SELECT target_id FROM swipes WHERE swiper_id = $1
		UNION
		SELECT swiper_id FROM swipes WHERE target_id = $1
	`

	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *postgresRepository) DeleteSwipe(ctx context.Context, swiperID, targetID int64, direction string) error {
	query := `DELETE FROM swipes WHERE swiper_id = $1 AND target_id = $2 AND direction = $3`
	_, err := r.db.ExecContext(ctx, query, swiperID, targetID, direction)
	return err
}

func (r *postgresRepository) AddRejection(ctx context.Context, userID, targetID int64) error {
	query := `
		INSERT INTO rejections (user_id, target_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, target_id)
		DO UPDATE SET undone_at = NULL, created_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, userID, targetID)
	return err
}

func (r *postgresRepository) FindActiveRejection(ctx context.Context, userID, targetID int64) (*Rejection, error) {
	var rej Rejection
	query := `
		SELECT id, user_id, target_id, created_at, undone_at
		FROM rejections
		WHERE user_id = $1 AND target_id = $2 AND undone_at IS NULL
	`

	err := r.db.GetContext(ctx, &rej, query, userID, targetID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rej, nil
}

func (r *postgresRepository) UndoRejection(ctx context.Context, userID, targetID int64) error {
	query := `
		UPDATE rejections SET undone_at = NOW()
		WHERE user_id = $1 AND target_id = $2 AND undone_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, userID, targetID)
	return err
}

func (r *postgresRepository) ActiveRejectedIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	query := `SELECT target_id FROM rejections WHERE user_id = $1 AND undone_at IS NULL`

	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListLikers returns users who liked this user where no mutual like or
// active match exists yet, newest first.
func (r *postgresRepository) ListLikers(ctx context.Context, userID int64, limit int) ([]*Liker, error) {
	var list []*Liker
	query := `
		SELECT s.swiper_id AS user_id, u.name, s.updated_at AS liked_at
		FROM swipes s
		JOIN users u ON u.id = s.swiper_id AND u.is_deleted = FALSE
		WHERE s.target_id = $1 AND s.direction = 'like'
		  AND NOT EXISTS (
			SELECT 1 FROM swipes back
			WHERE back.swiper_id = $1 AND back.target_id = s.swiper_id AND back.direction = 'like'
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM matches m
			WHERE m.is_active = TRUE
			  AND m.user_a_id = LEAST($1, s.swiper_id)
			  AND m.user_b_id = GREATEST($1, s.swiper_id)
		  )
		ORDER BY s.updated_at DESC
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &list, query, userID, limit); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *postgresRepository) CountLikers(ctx context.Context, userID int64) (int64, error) {
	var count int64
	query := `
		SELECT COUNT(*)
		FROM swipes s
		JOIN users u ON u.id = s.swiper_id AND u.is_deleted = FALSE
		WHERE s.target_id = $1 AND s.direction = 'like'
		  AND NOT EXISTS (
			SELECT 1 FROM swipes back
			WHERE back.swiper_id = $1 AND back.target_id = s.swiper_id AND back.direction = 'like'
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM matches m
			WHERE m.is_active = TRUE
			  AND m.user_a_id = LEAST($1, s.swiper_id)
			  AND m.user_b_id = GREATEST($1, s.swiper_id)
		  )
	`

	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, err
	}
	return count, nil
}
