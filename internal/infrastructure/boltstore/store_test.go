package boltstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fastygo/taskflow/domain"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "session.db"), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionCache_RoundTrip(t *testing.T) {
	cache := NewSessionCache(openTemp(t))

	got, err := cache.Load()
	if err != nil || got != nil {
		t.Fatalf("expected empty cache, got %+v / %v", got, err)
	}

	expires := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	want := &domain.Session{
		ID:          "s1",
		UserID:      "u1",
		AccessToken: "tok",
		ExpiresAt:   expires,
		User:        &domain.User{ID: "u1", Email: "a@example.com", FullName: "Ada"},
	}
	if err := cache.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err = cache.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.UserID != "u1" || got.AccessToken != "tok" || !got.ExpiresAt.Equal(expires) {
		t.Errorf("unexpected session: %+v", got)
	}
	if got.User == nil || got.User.FullName != "Ada" {
		t.Errorf("expected user profile to persist, got %+v", got.User)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := cache.Load(); got != nil {
		t.Errorf("expected cleared cache, got %+v", got)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := Open(path, "b")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put("k", map[string]int{"n": 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = Open(path, "b")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	var out map[string]int
	found, err := store.Get("k", &out)
	if err != nil || !found || out["n"] != 1 {
		t.Errorf("expected persisted value, got %v found=%v err=%v", out, found, err)
	}
}

func TestStore_ClosedIsError(t *testing.T) {
	var s *Store
	if err := s.Put("k", 1); err == nil {
		t.Error("expected error on nil store")
	}
}
