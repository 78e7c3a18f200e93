package session

import (
	"context"
	"testing"
)

func TestMemoryStoreIsolatesSnapshots(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := &Snapshot{
		Answers:         map[int64]int64{1: 10},
		TimeLeftSeconds: 60,
	}
	if err := store.Save(ctx, 1, 42, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's snapshot after Save must not reach the store, and
	// neither must mutations on a loaded copy.
	saved.Answers[1] = 99

	loaded, err := store.Load(ctx, 1, 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	loaded.Answers[2] = 20

	fresh, err := store.Load(ctx, 1, 42)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.Answers[1] != 10 {
		t.Errorf("answer 1 = %d, want 10", fresh.Answers[1])
	}
	if len(fresh.Answers) != 1 {
		t.Errorf("answers = %v, want exactly the saved entry", fresh.Answers)
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	store := NewMemoryStore()

	snap, err := store.Load(context.Background(), 7, 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Errorf("snapshot = %+v, want nil", snap)
	}
}
