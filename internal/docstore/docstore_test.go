package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"users/u1", false},
		{"users/u1/posts/p1", false},
		{"", true},
		{"users", true},
		{"users/", true},
		{"/u1", true},
		{"users//posts/p1", true},
		{"users/u1/posts", true},
	}

	for _, tt := range tests {
		err := ValidatePath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ValidatePath(%q) error should wrap ErrInvalidPath, got %v", tt.path, err)
		}
	}
}

func TestCollectionDoc(t *testing.T) {
	store := NewMemoryStore()

	ref, err := Collection(store, "users").Doc("u1")
	if err != nil {
		t.Fatalf("Doc failed: %v", err)
	}
	if ref.Path != "users/u1" {
		t.Errorf("Path = %q, want users/u1", ref.Path)
	}
	if ref.ID() != "u1" {
		t.Errorf("ID = %q, want u1", ref.ID())
	}

	if _, err := Collection(store, "users").Doc(""); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath for empty id, got %v", err)
	}
	for _, id := range []string{"a/b", "u1/posts/p1", "/u1/", "u1/"} {
		if _, err := Collection(store, "users").Doc(id); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Doc(%q): expected ErrInvalidPath, got %v", id, err)
		}
	}

	// nested documents remain reachable by full path
	if _, err := Doc(store, "users/u1/posts/p1"); err != nil {
		t.Errorf("Doc(users/u1/posts/p1): %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ref, _ := Doc(store, "users/u1")

	t.Run("missing document", func(t *testing.T) {
		exists, err := ref.Exists(ctx)
		if err != nil {
			t.Fatalf("Exists failed: %v", err)
		}
		if exists {
			t.Error("expected document to be absent")
		}
	})

	t.Run("create then create again", func(t *testing.T) {
		if err := ref.Create(ctx, map[string]any{"email": "a@b.com"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		err := ref.Create(ctx, map[string]any{"email": "other@b.com"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}

		snap, err := ref.Get(ctx)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if snap.Fields["email"] != "a@b.com" {
			t.Errorf("second Create must not overwrite, email = %v", snap.Fields["email"])
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		if err := ref.Set(ctx, map[string]any{"email": "new@b.com"}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		snap, _ := ref.Get(ctx)
		if snap.Fields["email"] != "new@b.com" {
			t.Errorf("email = %v, want new@b.com", snap.Fields["email"])
		}
	})

	t.Run("returned fields are copies", func(t *testing.T) {
		snap, _ := ref.Get(ctx)
		snap.Fields["email"] = "mutated"

		again, _ := ref.Get(ctx)
		if again.Fields["email"] == "mutated" {
			t.Error("mutating a snapshot changed stored state")
		}
	})
}

func TestMemoryStoreConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Create(ctx, "users/race", map[string]any{"n": 1}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("expected exactly one successful create, got %d", created)
	}
}
