// Package session implements the exam attempt progress store: the snapshot a
// taker's client periodically saves (answers, question pointer, remaining
// time) and the restore logic that survives page reloads without losing
// progress or undercounting elapsed time.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/examlane/examlane-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// Snapshot is one saved progress record for an exam attempt. SavedAt is the
// wall-clock time of the save; on restore the elapsed time since SavedAt is
// subtracted from TimeLeftSeconds.
type Snapshot struct {
	CurrentQuestionIndex int             `json:"current_question_index"`
	Answers              map[int64]int64 `json:"answers"`
	TimeLeftSeconds      int             `json:"time_left"`
	IsSubmitted          bool            `json:"is_submitted"`
	SavedAt              time.Time       `json:"timestamp"`
	ExamStartTime        time.Time       `json:"exam_start_time"`
}

// Store persists attempt progress keyed by (exam, user). Implementations must
// return (nil, nil) from Load when no snapshot exists.
type Store interface {
	Load(ctx context.Context, examID, userID int64) (*Snapshot, error)
	Save(ctx context.Context, examID, userID int64, snap *Snapshot) error
	Clear(ctx context.Context, examID, userID int64) error
}

// snapshotTTL bounds how long an abandoned attempt snapshot lives in Redis.
// Long enough to cover the longest configurable exam plus a wide margin.
const snapshotTTL = 24 * time.Hour

// RedisStore is the Redis-backed Store used in production.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Load retrieves a snapshot, or (nil, nil) if none is saved.
func (s *RedisStore) Load(ctx context.Context, examID, userID int64) (*Snapshot, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.AttemptProgressKey(examID, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &snap, nil
}

// Save writes a snapshot with a bounded TTL.
func (s *RedisStore) Save(ctx context.Context, examID, userID int64, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.AttemptProgressKey(examID, userID), raw, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Clear removes the snapshot and the recorded attempt start time together, so
// a terminal outcome leaves no persisted state behind.
func (s *RedisStore) Clear(ctx context.Context, examID, userID int64) error {
	return s.rdb.Del(ctx,
		config.CacheKey.AttemptProgressKey(examID, userID),
		config.CacheKey.AttemptStartKey(examID, userID),
	).Err()
}

// MemoryStore is an in-process Store. Used by tests and as a dependency-free
// fallback; production wiring uses RedisStore.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]Snapshot)}
}

func memKey(examID, userID int64) string {
	return fmt.Sprintf("%d:%d", examID, userID)
}

// cloneSnapshot copies a snapshot including its answers map, so stored state
// never aliases a caller's snapshot.
func cloneSnapshot(snap Snapshot) Snapshot {
	cp := snap
	if snap.Answers != nil {
		cp.Answers = make(map[int64]int64, len(snap.Answers))
		for q, o := range snap.Answers {
			cp.Answers[q] = o
		}
	}
	return cp
}

// Load retrieves a snapshot, or (nil, nil) if none is saved.
func (s *MemoryStore) Load(_ context.Context, examID, userID int64) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[memKey(examID, userID)]
	if !ok {
		return nil, nil
	}
	cp := cloneSnapshot(snap)
	return &cp, nil
}

// Save stores a copy of the snapshot.
func (s *MemoryStore) Save(_ context.Context, examID, userID int64, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[memKey(examID, userID)] = cloneSnapshot(*snap)
	return nil
}

// Clear removes the snapshot.
func (s *MemoryStore) Clear(_ context.Context, examID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, memKey(examID, userID))
	return nil
}
