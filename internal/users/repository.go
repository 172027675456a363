package users

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)
	FindNearby(ctx context.Context, params *NearbyParams) ([]NearbyUser, error)
	UpdateLocation(ctx context.Context, userID int64, lat, lon float64) error
	UpdateSubscriptionTier(ctx context.Context, userID int64, tier string) error
	SoftDelete(ctx context.Context, userID int64) error
	ArchiveSnapshot(ctx context.Context, user *User, preferences interface{}) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (name, email, password_hash, gender, latitude, longitude, subscription_tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowxContext(
		ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Gender,
		user.Latitude, user.Longitude, user.SubscriptionTier,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// FindByID returns nil without error when the user does not exist.
// A stale viewer id is a normal condition for discovery, not a failure.
func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	var user User
	query := `
		SELECT id, name, email, password_hash, gender, bio, latitude, longitude,
		       subscription_tier, is_deleted, created_at, updated_at, deleted_at
		FROM users WHERE id = $1
	`

	err := r.db.GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	query := `
		SELECT id, name, email, password_hash, gender, bio, latitude, longitude,
		       subscription_tier, is_deleted, created_at, updated_at, deleted_at
		FROM users WHERE email = $1
	`

	err := r.db.GetContext(ctx, &user, query, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAll returns every non-deleted user
func (r *postgresRepository) FindAll(ctx context.Context) ([]*User, error) {
	var list []*User
	query := `
		SELECT id, name, email, password_hash, gender, bio, latitude, longitude,
		       subscription_tier, is_deleted, created_at, updated_at, deleted_at
		FROM users WHERE is_deleted = FALSE ORDER BY id ASC
	`

	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, err
	}
	return list, nil
}

// FindNearby ranks candidates by great-circle distance from the origin.
// Candidates without coordinates never appear in the result.
func (r *postgresRepository) FindNearby(ctx context.Context, params *NearbyParams) ([]NearbyUser, error) {
	excluded := params.ExcludeIDs
	if excluded == nil {
		excluded = []int64{}
	}
	gender := params.GenderFilter
	if gender == "" {
		gender = "any"
	}

	query := `
		SELECT id, distance_km FROM (
			SELECT id,
			       (6371 * acos(LEAST(1.0,
			           cos(radians($1)) * cos(radians(latitude)) *
			           cos(radians(longitude) - radians($2)) +
			           sin(radians($1)) * sin(radians(latitude))
			       ))) AS distance_km
			FROM users
			WHERE is_deleted = FALSE
			  AND id <> $3
			  AND latitude IS NOT NULL AND longitude IS NOT NULL
			  AND ($4 = 'any' OR gender = $4)
			  AND NOT (id = ANY($5))
		) c
		WHERE c.distance_km <= $6
		ORDER BY c.distance_km ASC, c.id ASC
		LIMIT $7
	`

	var rows []NearbyUser
	err := r.db.SelectContext(ctx, &rows, query,
		params.OriginLat, params.OriginLon, params.ViewerID,
		gender, pq.Array(excluded), params.MaxRadiusKm, params.Limit,
	)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *postgresRepository) UpdateLocation(ctx context.Context, userID int64, lat, lon float64) error {
	query := `
		UPDATE users SET latitude = $2, longitude = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND is_deleted = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, userID, lat, lon)
	return err
}

func (r *postgresRepository) UpdateSubscriptionTier(ctx context.Context, userID int64, tier string) error {
	query := `
		UPDATE users SET subscription_tier = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND is_deleted = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, userID, tier)
	return err
}

func (r *postgresRepository) SoftDelete(ctx context.Context, userID int64) error {
	query := `
		UPDATE users
		SET is_deleted = TRUE, deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND is_deleted = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// ArchiveSnapshot stores a point-in-time copy of the account for recovery
func (r *postgresRepository) ArchiveSnapshot(ctx context.Context, user *User, preferences interface{}) error {
	prefsJSON, err := json.Marshal(preferences)
	if err != nil {
		prefsJSON = []byte("null")
	}

	query := `
		INSERT INTO soft_deleted_users (source_user_id, email, name, gender, bio, preferences, subscription_tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Gender, user.Bio, prefsJSON, user.SubscriptionTier,
	)
	return err
}
