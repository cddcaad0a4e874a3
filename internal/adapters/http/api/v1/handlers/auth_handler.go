package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mahhuOps/portfoliovn/internal/domain"
	"github.com/mahhuOps/portfoliovn/internal/usecase"
	res "github.com/mahhuOps/portfoliovn/pkg/http"
)

type AuthHandler struct {
	service usecase.Service
}

func NewAuthHandler(s usecase.Service) *AuthHandler { return &AuthHandler{service: s} }

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	Session *domain.Session `json:"session"`
	Tokens  *usecase.Tokens `json:"tokens"`
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	req := new(signupRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	view, tokens, err := h.service.SignUp(c.Request().Context(), requestIDFromCtx(c), req.Email, req.Password, req.Name)
	if err != nil {
		return authError(c, "signup_failed", err)
	}
	return c.JSON(http.StatusCreated, authResponse{Session: view.Session, Tokens: tokens})
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	req := new(signinRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	view, tokens, err := h.service.SignIn(c.Request().Context(), requestIDFromCtx(c), req.Email, req.Password)
	if err != nil {
		return authError(c, "signin_failed", err)
	}
	return c.JSON(http.StatusOK, authResponse{Session: view.Session, Tokens: tokens})
}

func (h *AuthHandler) SignOut(c echo.Context) error {
	req := new(signoutRequest)
	_ = c.Bind(req)
	if err := h.service.SignOut(c.Request().Context(), requestIDFromCtx(c), req.RefreshToken); err != nil {
		// the local session is cleared regardless
		return res.ErrorJSON(c, http.StatusBadGateway, "provider_unavailable", err.Error(), requestIDFromCtx(c), nil)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	req := new(refreshRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	tokens, err := h.service.Refresh(c.Request().Context(), requestIDFromCtx(c), req.RefreshToken)
	if err != nil {
		return res.ErrorJSON(c, http.StatusUnauthorized, "refresh_failed", err.Error(), requestIDFromCtx(c), nil)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Session reports the reconciler's current snapshot: the merged session plus
// a loading flag while a resolution is in flight.
func (h *AuthHandler) Session(c echo.Context) error {
	return res.JSON(c, http.StatusOK, h.service.CurrentSession())
}

func (h *AuthHandler) AdminUsers(c echo.Context) error {
	profiles, err := h.service.ListProfiles(c.Request().Context())
	if err != nil {
		return res.ErrorJSON(c, http.StatusServiceUnavailable, "profiles_unavailable", err.Error(), requestIDFromCtx(c), nil)
	}
	return res.JSON(c, http.StatusOK, profiles)
}

func authError(c echo.Context, code string, err error) error {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
	}
	return res.ErrorJSON(c, status, code, err.Error(), requestIDFromCtx(c), nil)
}

func requestIDFromCtx(c echo.Context) string {
	if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
		return reqID
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
