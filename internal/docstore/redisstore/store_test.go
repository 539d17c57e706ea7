package redisstore

import (
	"context"
	"errors"
	"testing"

	"github.com/arellanoelden/think-piece/internal/docstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	snap, err := store.Get(ctx, "users/u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if snap.Exists {
		t.Fatal("expected missing document")
	}

	if err := store.Create(ctx, "users/u1", map[string]any{"email": "a@b.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !mr.Exists("doc:users/u1") {
		t.Error("expected key doc:users/u1 in redis")
	}

	err = store.Create(ctx, "users/u1", map[string]any{"email": "x@b.com"})
	if !errors.Is(err, docstore.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	snap, err = store.Get(ctx, "users/u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !snap.Exists || snap.Fields["email"] != "a@b.com" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	if err := store.Set(ctx, "users/u1", map[string]any{"email": "c@d.com"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	snap, _ = store.Get(ctx, "users/u1")
	if snap.Fields["email"] != "c@d.com" {
		t.Errorf("email = %v, want c@d.com", snap.Fields["email"])
	}
}

func TestStoreRejectsInvalidPath(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Set(context.Background(), "users", nil); !errors.Is(err, docstore.ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}
