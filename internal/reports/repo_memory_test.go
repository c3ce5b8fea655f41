package reports

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoListByUserNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		r := sampleReport(string(rune('a'+i)), "user-1", base.Add(time.Duration(i)*time.Minute))
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := repo.Save(ctx, sampleReport("other", "user-2", base.Add(time.Hour))); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.ListByUser(ctx, "user-1", HistoryLimit)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != HistoryLimit {
		t.Fatalf("expected %d reports, got %d", HistoryLimit, len(got))
	}
	if got[0].ID != "l" || got[9].ID != "c" {
		t.Fatalf("unexpected order: first=%s last=%s", got[0].ID, got[9].ID)
	}
	for _, r := range got {
		if r.UserID != "user-1" {
			t.Fatalf("leaked report of %s", r.UserID)
		}
	}
}

func TestMemoryRepoGetByIDScopedToUser(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Save(ctx, sampleReport("r1", "user-1", time.Now()))

	if _, err := repo.GetByID(ctx, "user-1", "r1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := repo.GetByID(ctx, "user-2", "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}
