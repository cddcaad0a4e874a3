// Package credstore holds local username/password records for fallback mode,
// when no cloud identity provider is configured. The collection is a flat
// JSON-file-backed slice; lookup is a linear scan by email. Collections are
// small and single-host-local, so no index is kept.
package credstore

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mahhuOps/portfoliovn/internal/domain"
)

// Reserved demo identities. They authenticate regardless of store contents,
// with fixed well-known credentials, to support zero-setup demos.
const (
	DemoAdminEmail    = domain.BootstrapAdminEmail
	DemoAdminPassword = "admin"
	DemoUserEmail     = "demo@example.com"
	DemoUserPassword  = "demo"
)

type Store struct {
	mu    sync.Mutex
	path  string
	creds []domain.LocalCredential
}

// Open loads the credential file if it exists. A missing file is an empty
// store, not an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.creds); err != nil {
		return nil, err
	}
	return s, nil
}

// Register creates a new credential record. Email must be unique across the
// store (case-insensitive).
func (s *Store) Register(email, password, name string) (*domain.LocalCredential, error) {
	norm := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.creds {
		if normalizeEmail(c.Email) == norm {
			return nil, domain.ErrDuplicateEmail
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	cred := domain.LocalCredential{
		ID:           uuid.NewString(),
		Email:        norm,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
	}
	s.creds = append(s.creds, cred)
	if err := s.persist(); err != nil {
		s.creds = s.creds[:len(s.creds)-1]
		return nil, err
	}
	return &cred, nil
}

// Authenticate checks a password against the stored records. The two demo
// identities always win, even against an empty store.
func (s *Store) Authenticate(email, password string) (*domain.LocalCredential, error) {
	norm := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.creds {
		if normalizeEmail(c.Email) != norm {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil {
			cred := c
			return &cred, nil
		}
		break
	}

	switch {
	case norm == DemoAdminEmail && password == DemoAdminPassword:
		return &domain.LocalCredential{ID: "admin", Email: norm, Name: "Admin", Role: domain.RoleAdmin, CreatedAt: time.Now()}, nil
	case norm == DemoUserEmail && password == DemoUserPassword:
		return &domain.LocalCredential{ID: "demo", Email: norm, Name: "Demo User", Role: domain.RoleUser, CreatedAt: time.Now()}, nil
	}
	return nil, domain.ErrInvalidCredentials
}

func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }
