package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	nats "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/mahhuOps/portfoliovn/config"
	httpadapter "github.com/mahhuOps/portfoliovn/internal/adapters/http"
	apiv1 "github.com/mahhuOps/portfoliovn/internal/adapters/http/api/v1"
	handlers "github.com/mahhuOps/portfoliovn/internal/adapters/http/api/v1/handlers"
	authmw "github.com/mahhuOps/portfoliovn/internal/adapters/http/middleware"
	natsadapter "github.com/mahhuOps/portfoliovn/internal/adapters/nats"
	repo "github.com/mahhuOps/portfoliovn/internal/adapters/postgres"
	"github.com/mahhuOps/portfoliovn/internal/adapters/provider"
	"github.com/mahhuOps/portfoliovn/internal/credstore"
	"github.com/mahhuOps/portfoliovn/internal/domain"
	"github.com/mahhuOps/portfoliovn/internal/metrics"
	"github.com/mahhuOps/portfoliovn/internal/reconciler"
	"github.com/mahhuOps/portfoliovn/internal/usecase"
	pkglog "github.com/mahhuOps/portfoliovn/pkg/log"
)

type App struct {
	cfg        *config.Config
	logger     pkglog.Logger
	db         *gorm.DB
	natsConn   *nats.Conn
	echo       *echo.Echo
	reconciler *reconciler.Reconciler
	publisher  *natsadapter.SessionPublisher
}

func New(ctx context.Context) (*App, error) {
	cfg := config.MustLoad()
	log := pkglog.New(cfg.AppEnv)

	// The profile backend being down must not prevent startup; the
	// reconciler degrades to identity-only sessions.
	db, err := gorm.Open(postgres.Open(buildDSN(cfg)), &gorm.Config{
		Logger:               loggerForGorm(cfg),
		NamingStrategy:       schema.NamingStrategy{SingularTable: true},
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.Profile{}, &domain.RefreshToken{}); err != nil {
		log.Warn().Err(err).Msg("migration failed, continuing with profile backend offline")
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Warn().Err(err).Msg("nats connect failed")
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	profiles := repo.NewProfileRepository(db, repo.Timeouts{
		Get:   cfg.ProfileGetTimeout,
		Put:   cfg.ProfilePutTimeout,
		Probe: cfg.ProfileProbeTimeout,
	})
	refreshRepo := repo.NewRefreshTokenRepository(db)

	idp, err := buildProvider(cfg, log)
	if err != nil {
		return nil, err
	}

	rec := reconciler.New(log, idp, profiles, collector)

	signer, err := usecase.NewJWTSigner(cfg)
	if err != nil {
		return nil, err
	}

	service := usecase.NewSessionService(cfg, log, idp, profiles, refreshRepo, rec, signer, collector)
	handler := handlers.NewAuthHandler(service)
	authMW := authmw.NewAuthMiddleware(signer)
	router := httpadapter.NewRouter(cfg, apiv1.NewRouter(handler, authMW.Handler, authMW.RequireAdmin), metrics.Handler(registry))

	var publisher *natsadapter.SessionPublisher
	if nc != nil {
		publisher = natsadapter.NewSessionPublisher(nc, cfg.NATSSessionSubject)
		verifyHandler := natsadapter.NewVerifyHandler(signer)
		if err := verifyHandler.Subscribe(nc, cfg.NATSVerifySubject, cfg.AppName); err != nil {
			log.Warn().Err(err).Msg("verify subscription failed")
		}
	}

	e := echo.New()
	router.Setup(e)

	return &App{
		cfg:        cfg,
		logger:     log,
		db:         db,
		natsConn:   nc,
		echo:       e,
		reconciler: rec,
		publisher:  publisher,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	go a.reconciler.Run(ctx)
	if a.publisher != nil {
		go a.publisher.Run(ctx, a.reconciler)
	}

	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.echo.Shutdown(shutdownCtx)
	}()
	go func() {
		errCh <- a.echo.Start(fmt.Sprintf("%s:%s", a.cfg.HTTPHost, a.cfg.HTTPPort))
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close() {
	if a.natsConn != nil {
		_ = a.natsConn.Drain()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func buildProvider(cfg *config.Config, log pkglog.Logger) (provider.Provider, error) {
	if cfg.ProviderBaseURL != "" {
		log.Info().Str("base_url", cfg.ProviderBaseURL).Msg("using cloud identity provider")
		return provider.NewCloud(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderTimeout), nil
	}
	log.Info().Str("file", cfg.CredentialFile).Msg("no provider configured, using local credentials")
	store, err := credstore.Open(cfg.CredentialFile)
	if err != nil {
		return nil, err
	}
	return provider.NewLocal(store), nil
}

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

func loggerForGorm(cfg *config.Config) logger.Interface {
	level := logger.Silent
	switch cfg.AppEnv {
	case "local":
		level = logger.Info
	default:
		level = logger.Warn
	}
	return logger.Default.LogMode(level)
}
