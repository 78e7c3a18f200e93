package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAlreadySubmitted is returned by Open when the saved snapshot is flagged
// submitted. The caller must treat the attempt as finished: the snapshot has
// already been cleared by the time this error is returned.
var ErrAlreadySubmitted = errors.New("exam already submitted")

// Tracker drives the attempt progress lifecycle over a Store:
//
//	no snapshot          -> Open initializes a fresh one (full time budget)
//	saved, not submitted -> Open restores it, charging wall-clock elapsed
//	                        time since the last save against the remaining time
//	saved, submitted     -> Open clears it and reports ErrAlreadySubmitted
//
// Save stamps each incoming snapshot; Finalize clears state on terminal
// outcomes (successful submission or duplicate-attempt rejection).
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a Tracker over the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Open loads or initializes the progress snapshot for an attempt.
func (t *Tracker) Open(ctx context.Context, examID, userID int64, durationMinutes int) (*Snapshot, error) {
	snap, err := t.store.Load(ctx, examID, userID)
	if err != nil {
		return nil, err
	}

	now := t.now()

	if snap == nil {
		fresh := &Snapshot{
			CurrentQuestionIndex: 0,
			Answers:              map[int64]int64{},
			TimeLeftSeconds:      durationMinutes * 60,
			SavedAt:              now,
			ExamStartTime:        now,
		}
		if err := t.store.Save(ctx, examID, userID, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}

	if snap.IsSubmitted {
		if err := t.store.Clear(ctx, examID, userID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadySubmitted
	}

	// Charge the time the attempt spent off-page against the countdown, so a
	// reload cannot pause the clock. Clamped at zero: the taker gets one
	// auto-submit shot, never negative time.
	elapsed := int(now.Sub(snap.SavedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	snap.TimeLeftSeconds -= elapsed
	if snap.TimeLeftSeconds < 0 {
		snap.TimeLeftSeconds = 0
	}
	snap.SavedAt = now

	if err := t.store.Save(ctx, examID, userID, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Save persists an updated snapshot. The save timestamp is always stamped
// server-side, and the original attempt start time is preserved from the
// stored snapshot when the incoming one omits it.
func (t *Tracker) Save(ctx context.Context, examID, userID int64, snap *Snapshot) error {
	if snap.IsSubmitted {
		return fmt.Errorf("refusing to save submitted snapshot")
	}
	if snap.Answers == nil {
		snap.Answers = map[int64]int64{}
	}

	if snap.ExamStartTime.IsZero() {
		prev, err := t.store.Load(ctx, examID, userID)
		if err != nil {
			return err
		}
		if prev != nil {
			snap.ExamStartTime = prev.ExamStartTime
		} else {
			snap.ExamStartTime = t.now()
		}
	}

	snap.SavedAt = t.now()
	return t.store.Save(ctx, examID, userID, snap)
}

// Finalize clears all persisted progress for an attempt. Called on successful
// submission and on duplicate-attempt rejection, so the next load starts from
// a clean slate.
func (t *Tracker) Finalize(ctx context.Context, examID, userID int64) error {
	return t.store.Clear(ctx, examID, userID)
}
