package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arellanoelden/think-piece/internal/docstore"
)

func TestNormalize(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	got := normalize(map[string]any{
		"createdAt": primitive.NewDateTimeFromTime(ts),
		"nested":    bson.D{{Key: "a", Value: "b"}},
		"tags":      bson.A{"x", primitive.NewDateTimeFromTime(ts)},
		"plain":     "value",
	})

	if got["createdAt"] != ts {
		t.Errorf("createdAt = %v, want %v", got["createdAt"], ts)
	}
	nested, ok := got["nested"].(map[string]any)
	if !ok || nested["a"] != "b" {
		t.Errorf("nested = %#v", got["nested"])
	}
	tags, ok := got["tags"].([]any)
	if !ok || len(tags) != 2 || tags[1] != ts {
		t.Errorf("tags = %#v", got["tags"])
	}
	if got["plain"] != "value" {
		t.Errorf("plain = %v", got["plain"])
	}
}

func TestNormalizeNil(t *testing.T) {
	if got := normalize(nil); got == nil || len(got) != 0 {
		t.Errorf("normalize(nil) = %#v, want empty map", got)
	}
}

// Runs against a real server when TEST_MONGO_URI is set.
func TestStoreIntegration(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := New(ctx, uri, "think_piece_test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	path := "users/" + uuid.NewString()
	if err := store.Create(ctx, path, map[string]any{"displayName": "A"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, path, map[string]any{"displayName": "B"}); !errors.Is(err, docstore.ErrAlreadyExists) {
		t.Fatalf("second Create = %v, want ErrAlreadyExists", err)
	}

	snap, err := store.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !snap.Exists || snap.Fields["displayName"] != "A" {
		t.Errorf("snapshot = %#v", snap)
	}
}
