package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/mahhuOps/portfoliovn/internal/adapters/http/api/v1/handlers"
)

type Router struct {
	handlers *handlers.AuthHandler
	authMW   echo.MiddlewareFunc
	adminMW  echo.MiddlewareFunc
}

func NewRouter(h *handlers.AuthHandler, authMW, adminMW echo.MiddlewareFunc) *Router {
	return &Router{handlers: h, authMW: authMW, adminMW: adminMW}
}

func (r *Router) Register(g *echo.Group) {
	auth := g.Group("/auth")
	auth.POST("/signup", r.handlers.SignUp)
	auth.POST("/signin", r.handlers.SignIn)
	auth.POST("/signout", r.handlers.SignOut)
	auth.POST("/refresh", r.handlers.Refresh)

	g.GET("/session", r.handlers.Session, r.authMW)

	admin := g.Group("/admin", r.authMW, r.adminMW)
	admin.GET("/users", r.handlers.AdminUsers)
}
