package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/examlane/examlane-backend/internal/config"
	"github.com/examlane/examlane-backend/internal/repository"
	"github.com/examlane/examlane-backend/internal/session"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ProgressService exposes attempt progress: the Tracker holds the hot copy in
// the session store, and every save is queued for the autosave worker to
// mirror into PostgreSQL.
type ProgressService struct {
	tracker      *session.Tracker
	store        session.Store
	progressRepo *repository.ProgressRepository
	rdb          *redis.Client
}

// NewProgressService creates a new ProgressService.
func NewProgressService(tracker *session.Tracker, store session.Store, progressRepo *repository.ProgressRepository, rdb *redis.Client) *ProgressService {
	return &ProgressService{tracker: tracker, store: store, progressRepo: progressRepo, rdb: rdb}
}

// persistPayload is one autosave job on the worker queue.
type persistPayload struct {
	ExamID   int64           `json:"exam_id"`
	UserID   int64           `json:"user_id"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// Open loads or initializes progress for an attempt. When the session store
// has nothing (evicted or flushed), the durable PostgreSQL copy is rehydrated
// into the store first, so a cache wipe does not reset a running attempt.
func (s *ProgressService) Open(ctx context.Context, examID, userID int64, durationMinutes int) (*session.Snapshot, error) {
	snap, err := s.store.Load(ctx, examID, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if snap == nil {
		if err := s.rehydrate(ctx, examID, userID); err != nil {
			return nil, err
		}
	}
	return s.tracker.Open(ctx, examID, userID, durationMinutes)
}

// rehydrate copies the durable snapshot back into the session store, if one
// exists.
func (s *ProgressService) rehydrate(ctx context.Context, examID, userID int64) error {
	raw, err := s.progressRepo.Get(ctx, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load durable progress: %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Warn().Err(err).Int64("exam_id", examID).Int64("user_id", userID).
			Msg("corrupt durable progress snapshot, discarding")
		return nil
	}
	return s.store.Save(ctx, examID, userID, &snap)
}

// Save persists an updated snapshot and queues it for durable mirroring.
// Queueing is best effort: the hot copy is already written, so a full queue
// or a Redis hiccup only delays durability.
func (s *ProgressService) Save(ctx context.Context, examID, userID int64, snap *session.Snapshot) error {
	if err := s.tracker.Save(ctx, examID, userID, snap); err != nil {
		return err
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	job, _ := json.Marshal(persistPayload{ExamID: examID, UserID: userID, Snapshot: raw})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistProgressQueue, job).Err(); err != nil {
		log.Warn().Err(err).Int64("exam_id", examID).Int64("user_id", userID).
			Msg("failed to queue progress for durable persistence")
	}
	return nil
}
