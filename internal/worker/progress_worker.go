package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examlane/examlane-backend/internal/config"
	"github.com/examlane/examlane-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ProgressWorker consumes the persist queue and mirrors attempt progress
// snapshots into PostgreSQL.
type ProgressWorker struct {
	progressRepo *repository.ProgressRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewProgressWorker creates a new ProgressWorker.
func NewProgressWorker(progressRepo *repository.ProgressRepository, rdb *redis.Client, log zerolog.Logger) *ProgressWorker {
	return &ProgressWorker{
		progressRepo: progressRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "progress_worker").Logger(),
	}
}

type progressPayload struct {
	ExamID   int64           `json:"exam_id"`
	UserID   int64           `json:"user_id"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// Start begins the worker loop. Call in a goroutine.
func (w *ProgressWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ProgressWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or the 1 second timeout.
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistProgressQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload progressPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.progressRepo.Upsert(ctx, payload.ExamID, payload.UserID, payload.Snapshot); err != nil {
		w.log.Error().Err(err).
			Int64("user_id", payload.UserID).
			Int64("exam_id", payload.ExamID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistProgressQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *ProgressWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistProgressQueue).Result()
		if err != nil {
			break
		}

		var payload progressPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.progressRepo.Upsert(ctx, payload.ExamID, payload.UserID, payload.Snapshot); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistProgressQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
