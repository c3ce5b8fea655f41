package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"medreport-backend/internal/shared/storage/db"
)

func newSQLiteRepo(t *testing.T, clock func() time.Time) *SQLiteRepo {
	t.Helper()
	ctx := context.Background()
	conn, err := db.ConnectSQLite(ctx, ":memory:", db.SQLiteOptions())
	if err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.RunMigrations(ctx, conn, db.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &SQLiteRepo{DB: conn, Now: clock}
}

func TestSQLiteRepoUpsertPreservesCreatedAt(t *testing.T) {
	first := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := first
	repo := newSQLiteRepo(t, func() time.Time { return now })
	ctx := context.Background()

	if err := repo.Upsert(ctx, User{ID: "google:1", Email: "a@example.com"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	now = first.Add(time.Hour)
	if err := repo.Upsert(ctx, User{ID: "google:1", Email: "b@example.com", Name: "Ada"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	user, err := repo.GetByID(ctx, "google:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user.Email != "b@example.com" || user.Name != "Ada" || user.PictureURL != "" {
		t.Fatalf("unexpected profile %+v", user)
	}
	if !user.CreatedAt.Equal(first) || !user.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamps created=%v updated=%v", user.CreatedAt, user.UpdatedAt)
	}
}

func TestSQLiteRepoGetByIDNotFound(t *testing.T) {
	repo := newSQLiteRepo(t, nil)
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReposRejectEmptyID(t *testing.T) {
	for name, repo := range map[string]Repo{
		"memory": NewMemoryRepo(),
		"sqlite": newSQLiteRepo(t, nil),
		"pg":     &PGRepo{},
		"mongo":  &MongoRepo{},
	} {
		if err := repo.Upsert(context.Background(), User{ID: "  "}); !errors.Is(err, ErrMissingID) {
			t.Fatalf("%s: expected ErrMissingID, got %v", name, err)
		}
	}
}
