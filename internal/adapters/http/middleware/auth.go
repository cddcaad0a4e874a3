package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mahhuOps/portfoliovn/internal/domain"
	"github.com/mahhuOps/portfoliovn/internal/usecase"
	res "github.com/mahhuOps/portfoliovn/pkg/http"
)

type AuthMiddleware struct {
	signer usecase.JWTSigner
}

func NewAuthMiddleware(signer usecase.JWTSigner) *AuthMiddleware {
	return &AuthMiddleware{signer: signer}
}

func (m *AuthMiddleware) Handler(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get(echo.HeaderAuthorization)
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return res.ErrorJSON(c, http.StatusUnauthorized, "unauthorized", "missing token", requestIDFromCtx(c), nil)
		}
		tok, claims, err := m.signer.Parse(parts[1])
		if err != nil || tok == nil || !tok.Valid {
			return res.ErrorJSON(c, http.StatusUnauthorized, "unauthorized", "invalid token", requestIDFromCtx(c), nil)
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return res.ErrorJSON(c, http.StatusUnauthorized, "unauthorized", "subject missing", requestIDFromCtx(c), nil)
		}
		email, _ := claims["email"].(string)
		name, _ := claims["name"].(string)
		role, _ := claims["role"].(string)
		c.Set("user_id", sub)
		c.Set("email", email)
		c.Set("name", name)
		c.Set("role", role)
		return next(c)
	}
}

// RequireAdmin gates admin-only views. Must run after Handler.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("role").(string)
		if role != domain.RoleAdmin {
			return res.ErrorJSON(c, http.StatusForbidden, "forbidden", "admin role required", requestIDFromCtx(c), nil)
		}
		return next(c)
	}
}

func requestIDFromCtx(c echo.Context) string {
	if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
		return reqID
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
