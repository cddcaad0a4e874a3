package credstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/mahhuOps/portfoliovn/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "credentials.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestRegisterAndAuthenticate(t *testing.T) {
	s := newTestStore(t)

	cred, err := s.Register("ann@x.com", "abcdef", "Ann")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if cred.ID == "" || cred.Role != domain.RoleUser {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if cred.PasswordHash == "abcdef" {
		t.Fatal("password stored in plaintext")
	}

	got, err := s.Authenticate("ann@x.com", "abcdef")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.Email != "ann@x.com" || got.Name != "Ann" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Register("dup@x.com", "abcdef", "First"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := s.Register("dup@x.com", "ghijkl", "Second")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	// case-insensitive
	_, err = s.Register("DUP@X.COM", "ghijkl", "Third")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Register("ann@x.com", "abcdef", "Ann"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := s.Authenticate("ann@x.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	_, err = s.Authenticate("nobody@x.com", "abcdef")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestDemoCredentialsOnEmptyStore(t *testing.T) {
	s := newTestStore(t)

	admin, err := s.Authenticate(DemoAdminEmail, DemoAdminPassword)
	if err != nil {
		t.Fatalf("demo admin: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}

	user, err := s.Authenticate(DemoUserEmail, DemoUserPassword)
	if err != nil {
		t.Fatalf("demo user: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %s", user.Role)
	}
}

func TestDemoPairSurvivesRegisteredRecord(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Register(DemoUserEmail, "mypassword", "Real Demo"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.Authenticate(DemoUserEmail, "mypassword"); err != nil {
		t.Fatalf("authenticate stored record: %v", err)
	}
	// fixed demo credentials keep working even with a record at that address
	got, err := s.Authenticate(DemoUserEmail, DemoUserPassword)
	if err != nil {
		t.Fatalf("demo pair: %v", err)
	}
	if got.Name != "Demo User" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Register("ann@x.com", "abcdef", "Ann"); err != nil {
		t.Fatalf("register: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := reopened.Authenticate("ann@x.com", "abcdef"); err != nil {
		t.Fatalf("authenticate after reopen: %v", err)
	}
}
