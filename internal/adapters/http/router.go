package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mahhuOps/portfoliovn/config"
	v1 "github.com/mahhuOps/portfoliovn/internal/adapters/http/api/v1"
	internalhttp "github.com/mahhuOps/portfoliovn/internal/adapters/http/internal"
)

type Router struct {
	cfg            *config.Config
	apiRouter      *v1.Router
	metricsHandler http.Handler
}

func NewRouter(cfg *config.Config, apiRouter *v1.Router, metricsHandler http.Handler) *Router {
	return &Router{cfg: cfg, apiRouter: apiRouter, metricsHandler: metricsHandler}
}

func (r *Router) Setup(e *echo.Echo) {
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())

	internalhttp.Register(e, r.metricsHandler)
	apiGroup := e.Group(r.cfg.HTTPBasePath)
	r.apiRouter.Register(apiGroup)
}
