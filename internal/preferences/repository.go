package preferences

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID int64) (*Preference, error)
	Upsert(ctx context.Context, userID int64, dto *UpdatePreferenceDTO) (*Preference, error)
	InterestsByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// GetByUserID returns nil without error when no preference row exists;
// discovery treats a missing row as "any gender, no distance bound".
func (r *postgresRepository) GetByUserID(ctx context.Context, userID int64) (*Preference, error) {
	var pref Preference
	query := `
		SELECT user_id, min_age, max_age, distance, gender_preference, interests, created_at, updated_at
		FROM profile_preferences WHERE user_id = $1
	`

	err := r.db.GetContext(ctx, &pref, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *postgresRepository) Upsert(ctx context.Context, userID int64, dto *UpdatePreferenceDTO) (*Preference, error) {
	query := `
		INSERT INTO profile_preferences (user_id, min_age, max_age, distance, gender_preference, interests)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			min_age = EXCLUDED.min_age,
			max_age = EXCLUDED.max_age,
			distance = EXCLUDED.distance,
			gender_preference = EXCLUDED.gender_preference,
			interests = EXCLUDED.interests,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		userID, dto.MinAge, dto.MaxAge, dto.Distance, dto.GenderPreference, Interests(dto.Interests),
	)
	if err != nil {
		return nil, err
	}

	return r.GetByUserID(ctx, userID)
}

// InterestsByUserIDs bulk-loads interest lists for affinity scoring
func (r *postgresRepository) InterestsByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string)
	if len(userIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT user_id, interests FROM profile_preferences WHERE user_id = ANY($1)
	`

	rows, err := r.db.QueryxContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var interests Interests
		if err := rows.Scan(&userID, &interests); err != nil {
			return nil, err
		}
		result[userID] = interests
	}

	return result, rows.Err()
}
