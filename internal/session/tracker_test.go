package session

import (
	"context"
	"testing"
	"time"
)

// fixedClock lets tests control the tracker's notion of now.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTracker() (*Tracker, *MemoryStore, *fixedClock) {
	store := NewMemoryStore()
	clock := &fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tr := NewTracker(store)
	tr.now = clock.Now
	return tr, store, clock
}

func TestOpenInitializesFreshSnapshot(t *testing.T) {
	tr, store, clock := newTestTracker()
	ctx := context.Background()

	snap, err := tr.Open(ctx, 1, 42, 30)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if snap.TimeLeftSeconds != 30*60 {
		t.Errorf("time left = %d, want %d", snap.TimeLeftSeconds, 30*60)
	}
	if snap.CurrentQuestionIndex != 0 {
		t.Errorf("question index = %d, want 0", snap.CurrentQuestionIndex)
	}
	if len(snap.Answers) != 0 {
		t.Errorf("answers = %v, want empty", snap.Answers)
	}
	if !snap.ExamStartTime.Equal(clock.now) {
		t.Errorf("start time = %v, want %v", snap.ExamStartTime, clock.now)
	}

	// Fresh snapshot must be persisted immediately.
	stored, err := store.Load(ctx, 1, 42)
	if err != nil || stored == nil {
		t.Fatalf("fresh snapshot not persisted: %v", err)
	}
}

func TestOpenChargesElapsedTime(t *testing.T) {
	tr, _, clock := newTestTracker()
	ctx := context.Background()

	if _, err := tr.Open(ctx, 1, 42, 30); err != nil {
		t.Fatalf("Open: %v", err)
	}

	// The taker disappears for 5 minutes, then reloads.
	clock.Advance(5 * time.Minute)

	snap, err := tr.Open(ctx, 1, 42, 30)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if want := 25 * 60; snap.TimeLeftSeconds != want {
		t.Errorf("time left = %d, want %d", snap.TimeLeftSeconds, want)
	}
}

func TestOpenClampsTimeLeftAtZero(t *testing.T) {
	tr, _, clock := newTestTracker()
	ctx := context.Background()

	if _, err := tr.Open(ctx, 1, 42, 30); err != nil {
		t.Fatalf("Open: %v", err)
	}

	clock.Advance(2 * time.Hour)

	snap, err := tr.Open(ctx, 1, 42, 30)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if snap.TimeLeftSeconds != 0 {
		t.Errorf("time left = %d, want 0", snap.TimeLeftSeconds)
	}
}

func TestOpenIgnoresBackwardClock(t *testing.T) {
	tr, store, clock := newTestTracker()
	ctx := context.Background()

	if _, err := tr.Open(ctx, 1, 42, 30); err != nil {
		t.Fatalf("Open: %v", err)
	}

	// A snapshot stamped in the future must not grant extra time.
	stored, _ := store.Load(ctx, 1, 42)
	stored.SavedAt = clock.now.Add(time.Hour)
	if err := store.Save(ctx, 1, 42, stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err := tr.Open(ctx, 1, 42, 30)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if want := 30 * 60; snap.TimeLeftSeconds != want {
		t.Errorf("time left = %d, want %d", snap.TimeLeftSeconds, want)
	}
}

func TestOpenSubmittedSnapshotClearsAndErrors(t *testing.T) {
	tr, store, _ := newTestTracker()
	ctx := context.Background()

	if _, err := tr.Open(ctx, 1, 42, 30); err != nil {
		t.Fatalf("Open: %v", err)
	}
	stored, _ := store.Load(ctx, 1, 42)
	stored.IsSubmitted = true
	if err := store.Save(ctx, 1, 42, stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err := tr.Open(ctx, 1, 42, 30)
	if err != ErrAlreadySubmitted {
		t.Fatalf("err = %v, want ErrAlreadySubmitted", err)
	}

	// The stale snapshot must be gone so a later load starts clean.
	leftover, err := store.Load(ctx, 1, 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if leftover != nil {
		t.Errorf("snapshot still present after submitted open: %+v", leftover)
	}
}

func TestSaveStampsServerTime(t *testing.T) {
	tr, store, clock := newTestTracker()
	ctx := context.Background()

	if _, err := tr.Open(ctx, 1, 42, 30); err != nil {
		t.Fatalf("Open: %v", err)
	}
	clock.Advance(time.Minute)

	snap := &Snapshot{
		CurrentQuestionIndex: 3,
		Answers:              map[int64]int64{10: 101, 11: 111},
		TimeLeftSeconds:      29 * 60,
		// Client-supplied timestamp must be ignored.
		SavedAt: clock.now.Add(-time.Hour),
	}
	if err := tr.Save(ctx, 1, 42, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stored, _ := store.Load(ctx, 1, 42)
	if !stored.SavedAt.Equal(clock.now) {
		t.Errorf("saved at = %v, want %v", stored.SavedAt, clock.now)
	}
	if stored.CurrentQuestionIndex != 3 {
		t.Errorf("question index = %d, want 3", stored.CurrentQuestionIndex)
	}
	if stored.Answers[10] != 101 || stored.Answers[11] != 111 {
		t.Errorf("answers = %v", stored.Answers)
	}
}

func TestSavePreservesExamStartTime(t *testing.T) {
	tr, store, clock := newTestTracker()
	ctx := context.Background()

	first, err := tr.Open(ctx, 1, 42, 30)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	clock.Advance(10 * time.Minute)

	snap := &Snapshot{TimeLeftSeconds: 20 * 60}
	if err := tr.Save(ctx, 1, 42, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stored, _ := store.Load(ctx, 1, 42)
	if !stored.ExamStartTime.Equal(first.ExamStartTime) {
		t.Errorf("start time = %v, want %v", stored.ExamStartTime, first.ExamStartTime)
	}
}

func TestSaveRefusesSubmittedSnapshot(t *testing.T) {
	tr, _, _ := newTestTracker()

	err := tr.Save(context.Background(), 1, 42, &Snapshot{IsSubmitted: true})
	if err == nil {
		t.Fatal("expected error saving submitted snapshot")
	}
}

func TestFinalizeClearsState(t *testing.T) {
	tr, store, _ := newTestTracker()
	ctx := context.Background()

	if _, err := tr.Open(ctx, 1, 42, 30); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := tr.Finalize(ctx, 1, 42); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	snap, err := store.Load(ctx, 1, 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Errorf("snapshot survived finalize: %+v", snap)
	}

	// Opening again starts a fresh attempt snapshot.
	fresh, err := tr.Open(ctx, 1, 42, 30)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if fresh.TimeLeftSeconds != 30*60 || len(fresh.Answers) != 0 {
		t.Errorf("reopen not fresh: %+v", fresh)
	}
}

func TestSnapshotsIsolatedPerAttempt(t *testing.T) {
	tr, _, _ := newTestTracker()
	ctx := context.Background()

	if _, err := tr.Open(ctx, 1, 42, 30); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := tr.Save(ctx, 1, 42, &Snapshot{TimeLeftSeconds: 100, Answers: map[int64]int64{1: 2}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Same user, different exam: fresh snapshot.
	other, err := tr.Open(ctx, 2, 42, 15)
	if err != nil {
		t.Fatalf("Open other exam: %v", err)
	}
	if other.TimeLeftSeconds != 15*60 || len(other.Answers) != 0 {
		t.Errorf("cross-attempt leak: %+v", other)
	}

	// Same exam, different user: fresh snapshot.
	otherUser, err := tr.Open(ctx, 1, 43, 30)
	if err != nil {
		t.Fatalf("Open other user: %v", err)
	}
	if len(otherUser.Answers) != 0 {
		t.Errorf("cross-user leak: %+v", otherUser)
	}
}
