package state

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	draft := Draft{
		SessionID:   "s1",
		Phase:       PhaseAwaitingTaskName,
		Phone:       "+380501234567",
		ProjectID:   "p1",
		ProjectName: "Alpha",
	}
	if err := s.Put(ctx, draft); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Phase != PhaseAwaitingTaskName || got.ProjectID != "p1" || got.Phone != "+380501234567" {
		t.Fatalf("Get() = %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("Put() did not stamp UpdatedAt")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}

	draft.Phase = PhaseAwaitingDescription
	draft.TaskName = "Fix login"
	if err := s.Put(ctx, draft); err != nil {
		t.Fatalf("Put(update) error = %v", err)
	}
	got, _ = s.Get(ctx, "s1")
	if got.Phase != PhaseAwaitingDescription || got.TaskName != "Fix login" {
		t.Fatalf("update lost: %+v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d after update, want 1", s.Len())
	}

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(deleted) error = %v, want ErrNotFound", err)
	}

	// A second delete is a no-op, matching the other backends.
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete(missing) error = %v", err)
	}
}

func TestPhaseValid(t *testing.T) {
	for _, p := range []Phase{PhaseProjectList, PhaseAwaitingTaskName, PhaseAwaitingDescription, PhaseAwaitingPhoto} {
		if !p.Valid() {
			t.Fatalf("Phase(%q).Valid() = false", p)
		}
	}
	for _, p := range []Phase{"", "idle", "done", "garbage"} {
		if p.Valid() {
			t.Fatalf("Phase(%q).Valid() = true", p)
		}
	}
}
