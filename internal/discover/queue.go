package discover

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// QueueStore is the durable recommendation queue. It also serves as the
// invalidation hook for preference and location changes.
type QueueStore interface {
	QueuedEntries(ctx context.Context, userID int64, limit int) ([]*QueueEntry, error)
	EnsureQueued(ctx context.Context, userID, targetID int64) error
	MarkConsumed(ctx context.Context, userID, targetID int64) error
	Prioritize(ctx context.Context, userID, targetID int64) error
	Restamp(ctx context.Context, userID, targetID int64, secondsAgo int) error
	ClearForUser(ctx context.Context, userID int64) error
}

type postgresQueueStore struct {
	db *sqlx.DB
}

func NewPostgresQueueStore(db *sqlx.DB) QueueStore {
	return &postgresQueueStore{db: db}
}

func (s *postgresQueueStore) QueuedEntries(ctx context.Context, userID int64, limit int) ([]*QueueEntry, error) {
	var entries []*QueueEntry
	query := `
		SELECT id, user_id, target_id, status, created_at, consumed_at
		FROM recommendation_queue
		WHERE user_id = $1 AND status = 'queued'
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`

	if err := s.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureQueued inserts the pair if it has never been queued. A conflict with
// an existing row is left untouched, so a consumed entry is never resurrected.
func (s *postgresQueueStore) EnsureQueued(ctx context.Context, userID, targetID int64) error {
	query := `
		INSERT INTO recommendation_queue (user_id, target_id, status)
		VALUES ($1, $2, 'queued')
		ON CONFLICT (user_id, target_id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query, userID, targetID)
	return err
}

func (s *postgresQueueStore) MarkConsumed(ctx context.Context, userID, targetID int64) error {
	query := `
		UPDATE recommendation_queue
		SET status = 'consumed', consumed_at = NOW()
		WHERE user_id = $1 AND target_id = $2 AND status = 'queued'
	`

	_, err := s.db.ExecContext(ctx, query, userID, targetID)
	return err
}

// Prioritize backdates the entry a full day so it sorts ahead of everything
// queued organically.
func (s *postgresQueueStore) Prioritize(ctx context.Context, userID, targetID int64) error {
	query := `
		UPDATE recommendation_queue
		SET created_at = NOW() - INTERVAL '1 day'
		WHERE user_id = $1 AND target_id = $2 AND status = 'queued'
	`

	_, err := s.db.ExecContext(ctx, query, userID, targetID)
	return err
}

// Restamp rewrites the entry's queue position relative to now
func (s *postgresQueueStore) Restamp(ctx context.Context, userID, targetID int64, secondsAgo int) error {
	query := `
		UPDATE recommendation_queue
		SET created_at = NOW() - make_interval(secs => $3)
		WHERE user_id = $1 AND target_id = $2 AND status = 'queued'
	`

	_, err := s.db.ExecContext(ctx, query, userID, targetID, secondsAgo)
	return err
}

func (s *postgresQueueStore) ClearForUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recommendation_queue WHERE user_id = $1`, userID)
	return err
}
