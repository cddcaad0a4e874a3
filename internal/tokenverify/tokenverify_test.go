package tokenverify

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type stubParser struct {
	token  *jwt.Token
	claims jwt.MapClaims
	err    error
}

func (s stubParser) Parse(string) (*jwt.Token, jwt.MapClaims, error) {
	return s.token, s.claims, s.err
}

func TestVerifyExtractsSessionFields(t *testing.T) {
	exp := float64(time.Now().Add(time.Minute).Unix())
	parser := stubParser{
		token:  &jwt.Token{Valid: true},
		claims: jwt.MapClaims{"sub": "uid-1", "email": "a@x.com", "name": "Ann", "role": "admin", "locale": "vi", "exp": exp},
	}

	result, err := Verify(parser, "token", time.Now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.UserID != "uid-1" || result.Email != "a@x.com" || result.Name != "Ann" || result.Role != "admin" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Claims["locale"] != "vi" {
		t.Fatalf("custom claims lost: %+v", result.Claims)
	}
	if _, ok := result.Claims["sub"]; ok {
		t.Fatal("session fields must be filtered out of claims")
	}
}

func TestVerifyExpired(t *testing.T) {
	exp := float64(time.Now().Add(-time.Minute).Unix())
	parser := stubParser{
		token:  &jwt.Token{Valid: true},
		claims: jwt.MapClaims{"sub": "uid-1", "exp": exp},
	}

	if _, err := Verify(parser, "token", time.Now); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyInvalid(t *testing.T) {
	parser := stubParser{err: errors.New("parse failed")}
	if _, err := Verify(parser, "token", time.Now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifySubjectMissing(t *testing.T) {
	exp := float64(time.Now().Add(time.Minute).Unix())
	parser := stubParser{
		token:  &jwt.Token{Valid: true},
		claims: jwt.MapClaims{"email": "a@x.com", "exp": exp},
	}
	if _, err := Verify(parser, "token", time.Now); !errors.Is(err, ErrSubjectMissing) {
		t.Fatalf("expected ErrSubjectMissing, got %v", err)
	}
}
