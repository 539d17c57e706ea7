package profile

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/docstore"
)

// countingStore records calls made against a MemoryStore.
type countingStore struct {
	*docstore.MemoryStore
	gets      atomic.Int32
	creates   atomic.Int32
	sets      atomic.Int32
	createErr error
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: docstore.NewMemoryStore()}
}

func (c *countingStore) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	c.gets.Add(1)
	return c.MemoryStore.Get(ctx, path)
}

func (c *countingStore) Set(ctx context.Context, path string, fields map[string]any) error {
	c.sets.Add(1)
	return c.MemoryStore.Set(ctx, path, fields)
}

func (c *countingStore) Create(ctx context.Context, path string, fields map[string]any) error {
	if c.createErr != nil {
		return c.createErr
	}
	err := c.MemoryStore.Create(ctx, path, fields)
	if err == nil {
		c.creates.Add(1)
	}
	return err
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store docstore.Store) *Service {
	s := NewService(store)
	s.now = func() time.Time { return fixedNow }
	return s
}

func testIdentity() *auth.Identity {
	return &auth.Identity{
		UID:         "u1",
		DisplayName: "A",
		Email:       "a@b.com",
		PhotoURL:    "p",
	}
}

func TestEnsure_WritesRecord(t *testing.T) {
	store := newCountingStore()
	svc := newTestService(store)

	ref, err := svc.Ensure(context.Background(), testIdentity(), map[string]any{"role": "admin"})
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if ref.Path != "users/u1" {
		t.Errorf("path = %q, want users/u1", ref.Path)
	}

	snap, _ := store.MemoryStore.Get(context.Background(), "users/u1")
	want := map[string]any{
		"displayName": "A",
		"email":       "a@b.com",
		"photoURL":    "p",
		"createdAt":   fixedNow,
		"role":        "admin",
	}
	if !reflect.DeepEqual(snap.Fields, want) {
		t.Errorf("document = %#v\nwant %#v", snap.Fields, want)
	}
}

func TestEnsure_AdditionalFieldsOverride(t *testing.T) {
	store := newCountingStore()
	svc := newTestService(store)

	_, err := svc.Ensure(context.Background(), testIdentity(), map[string]any{"displayName": "Custom"})
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	snap, _ := store.MemoryStore.Get(context.Background(), "users/u1")
	if snap.Fields["displayName"] != "Custom" {
		t.Errorf("displayName = %v, want Custom", snap.Fields["displayName"])
	}
}

func TestEnsure_Idempotent(t *testing.T) {
	store := newCountingStore()
	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.Ensure(ctx, testIdentity(), nil)
	if err != nil {
		t.Fatalf("first Ensure: %v", err)
	}

	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := svc.Ensure(ctx, testIdentity(), map[string]any{"role": "admin"})
	if err != nil {
		t.Fatalf("second Ensure: %v", err)
	}

	if got := store.creates.Load(); got != 1 {
		t.Errorf("creates = %d, want 1", got)
	}
	if store.sets.Load() != 0 {
		t.Errorf("unexpected Set calls")
	}
	if first.Path != second.Path {
		t.Errorf("paths differ: %q vs %q", first.Path, second.Path)
	}

	snap, _ := store.MemoryStore.Get(ctx, "users/u1")
	if snap.Fields["createdAt"] != fixedNow {
		t.Errorf("createdAt was overwritten: %v", snap.Fields["createdAt"])
	}
	if _, ok := snap.Fields["role"]; ok {
		t.Errorf("second call must not modify the document")
	}
}

func TestEnsure_Concurrent(t *testing.T) {
	store := newCountingStore()
	svc := newTestService(store)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := svc.Ensure(context.Background(), testIdentity(), nil)
			if err != nil || ref == nil {
				t.Errorf("Ensure = %v, %v", ref, err)
			}
		}()
	}
	wg.Wait()

	if got := store.creates.Load(); got != 1 {
		t.Errorf("creates = %d, want 1", got)
	}
}

func TestEnsure_NilIdentity(t *testing.T) {
	store := newCountingStore()
	svc := newTestService(store)

	ref, err := svc.Ensure(context.Background(), nil, map[string]any{"role": "admin"})
	if err != nil || ref != nil {
		t.Fatalf("Ensure(nil) = %v, %v; want nil, nil", ref, err)
	}
	if store.gets.Load() != 0 || store.creates.Load() != 0 {
		t.Error("nil identity must not touch the store")
	}
}

func TestEnsure_WriteFailureReturnsHandle(t *testing.T) {
	store := newCountingStore()
	store.createErr = errors.New("quota exceeded")
	svc := newTestService(store)

	ref, err := svc.Ensure(context.Background(), testIdentity(), nil)
	if !errors.Is(err, ErrProfileWrite) {
		t.Fatalf("err = %v, want ErrProfileWrite", err)
	}
	if !errors.Is(err, store.createErr) {
		t.Errorf("cause not wrapped: %v", err)
	}
	if ref == nil || ref.Path != "users/u1" {
		t.Errorf("ref = %v, want users/u1 handle", ref)
	}
}

func TestEnsure_InvalidUID(t *testing.T) {
	store := newCountingStore()
	svc := newTestService(store)

	for _, uid := range []string{"a/b", "u1/posts/p1", "x/y/z"} {
		ref, err := svc.Ensure(context.Background(), &auth.Identity{UID: uid}, nil)
		if !errors.Is(err, docstore.ErrInvalidPath) {
			t.Errorf("Ensure(%q) err = %v, want ErrInvalidPath", uid, err)
		}
		if ref != nil {
			t.Errorf("Ensure(%q) ref = %v, want nil", uid, ref.Path)
		}
	}
	if store.gets.Load() != 0 || store.creates.Load() != 0 {
		t.Error("invalid uid must not touch the store")
	}
}

func TestUpsert_Outcome(t *testing.T) {
	ctx := context.Background()

	store := newCountingStore()
	svc := newTestService(store)

	_, outcome, err := svc.Upsert(ctx, testIdentity(), nil)
	if err != nil || outcome != OutcomeCreated {
		t.Fatalf("first Upsert = %q, %v; want created", outcome, err)
	}
	_, outcome, err = svc.Upsert(ctx, testIdentity(), nil)
	if err != nil || outcome != OutcomeExisting {
		t.Fatalf("second Upsert = %q, %v; want existing", outcome, err)
	}
	_, outcome, err = svc.Upsert(ctx, nil, nil)
	if err != nil || outcome != "" {
		t.Fatalf("nil Upsert = %q, %v; want empty outcome", outcome, err)
	}

	failing := newCountingStore()
	failing.createErr = errors.New("quota exceeded")
	_, outcome, err = newTestService(failing).Upsert(ctx, testIdentity(), nil)
	if !errors.Is(err, ErrProfileWrite) || outcome != OutcomeFailed {
		t.Fatalf("failing Upsert = %q, %v; want failed", outcome, err)
	}
}

func TestGet(t *testing.T) {
	store := newCountingStore()
	svc := newTestService(store)

	ref, err := svc.Get("")
	if ref != nil || err != nil {
		t.Errorf("Get(\"\") = %v, %v; want nil, nil", ref, err)
	}

	ref, err = svc.Get("u9")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ref.Path != "users/u9" || ref.ID() != "u9" {
		t.Errorf("ref = %+v", ref)
	}
	if store.gets.Load() != 0 {
		t.Error("Get must not check existence")
	}

	for _, uid := range []string{"a/b", "x/y/z"} {
		if _, err := svc.Get(uid); !errors.Is(err, docstore.ErrInvalidPath) {
			t.Errorf("Get(%q) err = %v, want ErrInvalidPath", uid, err)
		}
	}
}
