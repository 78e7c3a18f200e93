package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepository persists durable copies of in-flight attempt progress.
// The hot path lives in Redis; this table is the fallback the autosave worker
// writes to, so a cache flush does not wipe a half-finished attempt.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// Upsert writes the latest progress snapshot for an attempt, replacing any
// previous one.
func (r *ProgressRepository) Upsert(ctx context.Context, examID, userID int64, snapshot json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempt_progress (exam_id, user_id, snapshot, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (exam_id, user_id)
		 DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`,
		examID, userID, snapshot)
	return err
}

// Get loads the durable snapshot for an attempt, or nil when none exists.
func (r *ProgressRepository) Get(ctx context.Context, examID, userID int64) (json.RawMessage, error) {
	var snapshot json.RawMessage
	err := r.pool.QueryRow(ctx,
		`SELECT snapshot FROM attempt_progress WHERE exam_id = $1 AND user_id = $2`,
		examID, userID).Scan(&snapshot)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Delete removes the durable snapshot once an attempt reaches a terminal state.
func (r *ProgressRepository) Delete(ctx context.Context, examID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM attempt_progress WHERE exam_id = $1 AND user_id = $2`,
		examID, userID)
	return err
}
