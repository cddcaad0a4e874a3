package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mahhuOps/portfoliovn/internal/domain"
	"github.com/mahhuOps/portfoliovn/internal/usecase"
	res "github.com/mahhuOps/portfoliovn/pkg/http"
)

type mockService struct {
	signUpFn   func(email, password, name string) (usecase.SessionView, *usecase.Tokens, error)
	signInFn   func(email, password string) (usecase.SessionView, *usecase.Tokens, error)
	signOutFn  func(refreshToken string) error
	refreshFn  func(token string) (*usecase.Tokens, error)
	currentFn  func() usecase.SessionView
	profilesFn func() ([]domain.Profile, error)
}

func (m *mockService) SignUp(_ context.Context, _ string, email, password, name string) (usecase.SessionView, *usecase.Tokens, error) {
	return m.signUpFn(email, password, name)
}

func (m *mockService) SignIn(_ context.Context, _ string, email, password string) (usecase.SessionView, *usecase.Tokens, error) {
	return m.signInFn(email, password)
}

func (m *mockService) SignOut(_ context.Context, _ string, refreshToken string) error {
	return m.signOutFn(refreshToken)
}

func (m *mockService) Refresh(_ context.Context, _ string, token string) (*usecase.Tokens, error) {
	return m.refreshFn(token)
}

func (m *mockService) CurrentSession() usecase.SessionView { return m.currentFn() }

func (m *mockService) ListProfiles(context.Context) ([]domain.Profile, error) {
	return m.profilesFn()
}

var _ usecase.Service = (*mockService)(nil)

func postJSON(t *testing.T, e *echo.Echo, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSignUpSuccess(t *testing.T) {
	e := echo.New()
	svc := &mockService{
		signUpFn: func(email, password, name string) (usecase.SessionView, *usecase.Tokens, error) {
			if email != "new@x.com" || name != "Ann" {
				t.Fatalf("unexpected args: %s %s", email, name)
			}
			session := domain.Session{ID: "uid-1", Email: email, Name: name, Role: domain.RoleUser}
			return usecase.SessionView{Session: &session}, &usecase.Tokens{AccessToken: "at", RefreshToken: "rt"}, nil
		},
	}
	h := NewAuthHandler(svc)

	c, rec := postJSON(t, e, map[string]string{"email": "new@x.com", "password": "abcdef", "name": "Ann"})
	if err := h.SignUp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Session.Email != "new@x.com" || resp.Session.Role != domain.RoleUser {
		t.Fatalf("unexpected session: %+v", resp.Session)
	}
}

func TestSignUpEmailTaken(t *testing.T) {
	e := echo.New()
	svc := &mockService{
		signUpFn: func(string, string, string) (usecase.SessionView, *usecase.Tokens, error) {
			return usecase.SessionView{}, nil, domain.ErrEmailTaken
		},
	}
	h := NewAuthHandler(svc)

	c, rec := postJSON(t, e, map[string]string{"email": "taken@x.com", "password": "abcdef", "name": "Ann"})
	_ = h.SignUp(c)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var errResp res.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &errResp)
	if errResp.Error.Code != "signup_failed" {
		t.Fatalf("unexpected error code: %s", errResp.Error.Code)
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	e := echo.New()
	svc := &mockService{
		signInFn: func(string, string) (usecase.SessionView, *usecase.Tokens, error) {
			return usecase.SessionView{}, nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(svc)

	c, rec := postJSON(t, e, map[string]string{"email": "a@x.com", "password": "wrong"})
	_ = h.SignIn(c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSignInProviderUnavailable(t *testing.T) {
	e := echo.New()
	svc := &mockService{
		signInFn: func(string, string) (usecase.SessionView, *usecase.Tokens, error) {
			return usecase.SessionView{}, nil, domain.ErrProviderUnavailable
		},
	}
	h := NewAuthHandler(svc)

	c, rec := postJSON(t, e, map[string]string{"email": "a@x.com", "password": "p"})
	_ = h.SignIn(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestSignOutNoContent(t *testing.T) {
	e := echo.New()
	svc := &mockService{signOutFn: func(string) error { return nil }}
	h := NewAuthHandler(svc)

	c, rec := postJSON(t, e, map[string]string{})
	if err := h.SignOut(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestSessionSnapshot(t *testing.T) {
	e := echo.New()
	session := domain.Session{ID: "uid-1", Email: "a@x.com", Name: "Ann", Role: domain.RoleAdmin}
	svc := &mockService{
		currentFn: func() usecase.SessionView {
			return usecase.SessionView{Loading: false, Session: &session}
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp res.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	data := resp.Data.(map[string]interface{})
	inner := data["session"].(map[string]interface{})
	if inner["role"] != "admin" {
		t.Fatalf("unexpected session payload: %+v", data)
	}
}
