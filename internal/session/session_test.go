package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_CreateGetDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	s := Session{
		SessionID: "sid-1",
		UserID:    "u1",
		Provider:  "password",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ttl := mr.TTL("session:sid-1"); ttl <= 0 || ttl > time.Hour {
		t.Errorf("ttl = %v", ttl)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.UserID != "u1" || !got.CreatedAt.Equal(now) {
		t.Errorf("Get = %+v", got)
	}

	if err := store.Create(ctx, s); err == nil {
		t.Error("expected collision error on duplicate id")
	}

	if err := store.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = store.Get(ctx, "sid-1")
	if err != nil || got != nil {
		t.Errorf("after Delete: %v, %v", got, err)
	}
}

func TestRedisStore_Validation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.Create(ctx, Session{SessionID: "x", ExpiresAt: time.Now().Add(time.Hour)})
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("missing user: %v", err)
	}

	err = store.Create(ctx, Session{SessionID: "x", UserID: "u", ExpiresAt: time.Now().Add(-time.Second)})
	if !errors.Is(err, ErrExpired) {
		t.Errorf("past expiry: %v", err)
	}
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s := Session{SessionID: "sid-2", UserID: "u2", ExpiresAt: time.Now().Add(time.Minute)}
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "sid-2")
	if err != nil || got != nil {
		t.Errorf("expected session to be gone, got %v, %v", got, err)
	}
}

func TestRedisStore_UpdateExpiredDeletes(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s := Session{SessionID: "sid-3", UserID: "u3", ExpiresAt: time.Now().Add(time.Minute)}
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.ExpiresAt = time.Now().Add(-time.Second)
	if err := store.Update(ctx, s); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if mr.Exists("session:sid-3") {
		t.Error("expired update should delete the key")
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now}
	if !s.Expired(now) {
		t.Error("session at its expiry instant should be expired")
	}
	if s.Expired(now.Add(-time.Second)) {
		t.Error("session before expiry should be valid")
	}
}

func TestCookies(t *testing.T) {
	tests := []struct {
		name     string
		secure   bool
		wantName string
	}{
		{"secure", true, SecureCookieName},
		{"plain", false, CookieName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SetCookie(rec, "abc", time.Now().Add(time.Hour), CookieOptions{Secure: tt.secure})

			cookies := rec.Result().Cookies()
			if len(cookies) != 1 {
				t.Fatalf("got %d cookies", len(cookies))
			}
			c := cookies[0]
			if c.Name != tt.wantName || c.Value != "abc" || !c.HttpOnly || c.Path != "/" {
				t.Errorf("cookie = %+v", c)
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			if got := ReadCookie(req); got != "abc" {
				t.Errorf("ReadCookie = %q", got)
			}

			rec = httptest.NewRecorder()
			ClearCookie(rec, CookieOptions{Secure: tt.secure})
			cleared := rec.Result().Cookies()[0]
			if cleared.MaxAge >= 0 || cleared.Name != tt.wantName {
				t.Errorf("cleared cookie = %+v", cleared)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	b, _ := GenerateID()
	if a == b {
		t.Error("ids should differ")
	}
	if len(a) != 43 {
		t.Errorf("len = %d, want 43", len(a))
	}
}
