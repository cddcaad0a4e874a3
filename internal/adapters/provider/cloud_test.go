package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mahhuOps/portfoliovn/internal/domain"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestCloudSignInSuccess(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/sign-in" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["email"] != "ann@x.com" {
			t.Fatalf("unexpected email: %s", req["email"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "uid-1", "email": "ann@x.com", "display_name": "Ann",
		})
	})

	c := NewCloud(srv.URL, "test-key", time.Second)
	identity, err := c.SignIn(context.Background(), "ann@x.com", "abcdef")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if identity.ProviderID != "uid-1" || identity.DisplayName != "Ann" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestCloudSignInRejected(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := NewCloud(srv.URL, "", time.Second)
	_, err := c.SignIn(context.Background(), "ann@x.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCloudSignUpEmailTaken(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	c := NewCloud(srv.URL, "", time.Second)
	_, err := c.SignUp(context.Background(), "taken@x.com", "abcdef", "Ann")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCloudUnconfiguredIsUnavailable(t *testing.T) {
	c := NewCloud("", "", time.Second)

	if _, err := c.SignIn(context.Background(), "a@x.com", "p"); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("sign in: expected ErrProviderUnavailable, got %v", err)
	}
	if _, err := c.SignUp(context.Background(), "a@x.com", "p", "A"); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("sign up: expected ErrProviderUnavailable, got %v", err)
	}

	// initial subscription state is signed out
	ch, cancel := c.Subscribe()
	defer cancel()
	ev := <-ch
	if ev.Identity != nil {
		t.Fatalf("expected nil identity, got %+v", ev.Identity)
	}
}

func TestCloudSignOutClearsDespiteRemoteError(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/accounts/sign-in":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "uid-1", "email": "a@x.com"})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	c := NewCloud(srv.URL, "", time.Second)
	if _, err := c.SignIn(context.Background(), "a@x.com", "p"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	ch, cancel := c.Subscribe()
	defer cancel()
	if ev := <-ch; ev.Identity == nil {
		t.Fatal("expected signed-in initial state")
	}

	if err := c.SignOut(context.Background()); err == nil {
		t.Fatal("expected remote error to surface")
	}
	if ev := <-ch; ev.Identity != nil {
		t.Fatal("expected nil identity after sign out")
	}
}

func TestCloudEmitsOneEventPerTransition(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "uid-1", "email": "a@x.com", "display_name": "A"})
	})

	c := NewCloud(srv.URL, "", time.Second)
	ch, cancel := c.Subscribe()
	defer cancel()

	if ev := <-ch; ev.Identity != nil {
		t.Fatal("expected initial signed-out event")
	}

	if _, err := c.SignIn(context.Background(), "a@x.com", "p"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if ev := <-ch; ev.Identity == nil || ev.Identity.ProviderID != "uid-1" {
		t.Fatalf("unexpected event: %+v", ev.Identity)
	}

	_ = c.SignOut(context.Background())
	if ev := <-ch; ev.Identity != nil {
		t.Fatal("expected signed-out event")
	}

	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
