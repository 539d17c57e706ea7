package provider

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/arellanoelden/think-piece/internal/auth"
)

type stubProvider struct{ name string }

func (s stubProvider) Name() string { return s.name }
func (s stubProvider) AuthCodeURL(_, _ string) string {
	return "https://" + s.name
}
func (s stubProvider) ExchangeCode(context.Context, string, string) (*auth.ExternalIdentity, error) {
	return &auth.ExternalIdentity{Provider: s.name}, nil
}

func TestRegistry(t *testing.T) {
	var missing OAuthProvider
	r := NewRegistry(stubProvider{"google"}, missing, stubProvider{"corp"})

	p, err := r.Get("google")
	if err != nil {
		t.Fatalf("Get(google): %v", err)
	}
	if p.Name() != "google" {
		t.Errorf("Name = %q", p.Name())
	}

	if _, err := r.Get("github"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Get(github) = %v, want ErrUnknownProvider", err)
	}

	if !r.Has("corp") || r.Has("github") {
		t.Error("Has returned wrong result")
	}

	if got := r.Names(); !reflect.DeepEqual(got, []string{"corp", "google"}) {
		t.Errorf("Names = %v", got)
	}
}
