package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mahhuOps/portfoliovn/config"
	repo "github.com/mahhuOps/portfoliovn/internal/adapters/postgres"
	"github.com/mahhuOps/portfoliovn/internal/adapters/provider"
	"github.com/mahhuOps/portfoliovn/internal/domain"
	"github.com/mahhuOps/portfoliovn/internal/metrics"
	"github.com/mahhuOps/portfoliovn/internal/reconciler"
	pkglog "github.com/mahhuOps/portfoliovn/pkg/log"
)

// SessionView is what consumers read: the published session plus a loading
// flag set while a resolution is still in flight.
type SessionView struct {
	Loading bool            `json:"loading"`
	Session *domain.Session `json:"session"`
}

// SessionSource is the slice of the reconciler the service depends on.
type SessionSource interface {
	Current() reconciler.Snapshot
	Subscribe() (<-chan reconciler.Snapshot, func())
}

type Service interface {
	SignUp(ctx context.Context, traceID, email, password, name string) (SessionView, *Tokens, error)
	SignIn(ctx context.Context, traceID, email, password string) (SessionView, *Tokens, error)
	SignOut(ctx context.Context, traceID, refreshToken string) error
	Refresh(ctx context.Context, traceID, refreshToken string) (*Tokens, error)
	CurrentSession() SessionView
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
}

type sessionService struct {
	cfg      *config.Config
	logger   pkglog.Logger
	provider provider.Provider
	profiles repo.ProfileRepository
	refresh  repo.RefreshTokenRepository
	sessions SessionSource
	signer   JWTSigner
	metrics  metrics.Collector
}

func NewSessionService(cfg *config.Config, logger pkglog.Logger, p provider.Provider, profiles repo.ProfileRepository, refresh repo.RefreshTokenRepository, sessions SessionSource, signer JWTSigner, collector metrics.Collector) Service {
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &sessionService{
		cfg:      cfg,
		logger:   logger,
		provider: p,
		profiles: profiles,
		refresh:  refresh,
		sessions: sessions,
		signer:   signer,
		metrics:  collector,
	}
}

func (s *sessionService) SignUp(ctx context.Context, traceID, email, password, name string) (SessionView, *Tokens, error) {
	norm := normalizeEmail(email)
	if err := validateEmail(norm); err != nil {
		return SessionView{}, nil, err
	}
	if err := validatePassword(password); err != nil {
		return SessionView{}, nil, err
	}

	identity, err := s.provider.SignUp(ctx, norm, password, name)
	if err != nil {
		return SessionView{}, nil, err
	}

	// Best-effort profile creation. The identity is authoritative; a write
	// failure must not fail the sign-up.
	go s.createProfile(identity)

	session := s.awaitSession(ctx, identity)
	tokens, err := s.issueTokens(ctx, session)
	if err != nil {
		return SessionView{}, nil, err
	}
	s.metrics.RecordSignUp()
	s.logger.Info().Str("trace_id", traceID).Str("user_id", identity.ProviderID).Msg("signup complete")
	return SessionView{Session: &session}, tokens, nil
}

func (s *sessionService) SignIn(ctx context.Context, traceID, email, password string) (SessionView, *Tokens, error) {
	norm := normalizeEmail(email)
	identity, err := s.provider.SignIn(ctx, norm, password)
	if err != nil {
		return SessionView{}, nil, err
	}

	session := s.awaitSession(ctx, identity)
	tokens, err := s.issueTokens(ctx, session)
	if err != nil {
		return SessionView{}, nil, err
	}
	s.metrics.RecordSignIn()
	s.logger.Info().Str("trace_id", traceID).Str("user_id", identity.ProviderID).Str("role", session.Role).Msg("signin")
	return SessionView{Session: &session}, tokens, nil
}

func (s *sessionService) SignOut(ctx context.Context, traceID, refreshToken string) error {
	if refreshToken != "" {
		if _, claims, err := s.signer.Parse(refreshToken); err == nil {
			if jti, _ := claims["jti"].(string); jti != "" {
				_ = s.refresh.RevokeByHash(ctx, hashToken(jti))
			}
		}
	}
	err := s.provider.SignOut(ctx)
	s.logger.Info().Str("trace_id", traceID).Msg("signout")
	return err
}

func (s *sessionService) Refresh(ctx context.Context, traceID, refreshToken string) (*Tokens, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domain.ErrInvalidCredentials
	}
	tok, claims, err := s.signer.Parse(refreshToken)
	if err != nil || tok == nil || !tok.Valid {
		return nil, domain.ErrInvalidCredentials
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return nil, domain.ErrInvalidCredentials
	}
	jti, _ := claims["jti"].(string)
	sub, _ := claims["sub"].(string)
	if jti == "" || sub == "" {
		return nil, domain.ErrInvalidCredentials
	}
	stored, err := s.refresh.FindActive(ctx, hashToken(jti))
	if err != nil || stored.UserID != sub {
		return nil, domain.ErrInvalidCredentials
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	session := domain.Session{ID: sub, Email: email, Name: name, Role: role}

	// Pick up a role/name change if the profile backend answers in time.
	if profile, err := s.profiles.Get(ctx, sub); err == nil {
		session = domain.Merge(domain.Identity{ProviderID: sub, Email: email, DisplayName: name}, profile)
	}
	return s.issueTokens(ctx, session)
}

func (s *sessionService) CurrentSession() SessionView {
	snap := s.sessions.Current()
	return SessionView{Loading: snap.State == reconciler.Resolving, Session: snap.Session}
}

func (s *sessionService) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	return s.profiles.List(ctx)
}

// awaitSession waits for the reconciler to settle the just-signed-in
// identity. The repository's own timeout bounds the wait; if nothing matches
// in time, token claims are built from identity data alone.
func (s *sessionService) awaitSession(ctx context.Context, identity domain.Identity) domain.Session {
	snapshots, cancel := s.sessions.Subscribe()
	defer cancel()

	wait := s.cfg.ProfileGetTimeout + time.Second
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case snap := <-snapshots:
			if snap.Session != nil && snap.Session.ID == identity.ProviderID &&
				(snap.State == reconciler.Authenticated || snap.State == reconciler.AuthenticatedFallback) {
				return *snap.Session
			}
		case <-timer.C:
			return domain.Fallback(identity)
		case <-ctx.Done():
			return domain.Fallback(identity)
		}
	}
}

func (s *sessionService) createProfile(identity domain.Identity) {
	profile := domain.NewProfile(identity)
	if err := s.profiles.Put(context.Background(), profile); err != nil {
		s.logger.Warn().
			Str("user_id", identity.ProviderID).
			Err(err).
			Msg("profile creation failed, account remains usable")
		return
	}
	s.logger.Info().Str("user_id", identity.ProviderID).Msg("profile created")
}

func (s *sessionService) issueTokens(ctx context.Context, session domain.Session) (*Tokens, error) {
	claims := map[string]interface{}{"email": session.Email, "name": session.Name, "role": session.Role}
	access, err := s.signer.SignAccessToken(session.ID, claims, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	jti := GenerateJTI()
	refresh, err := s.signer.SignRefreshToken(session.ID, jti, claims, s.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	_ = s.refresh.Create(ctx, &domain.RefreshToken{
		UserID:           session.ID,
		RefreshTokenHash: hashToken(jti),
		ExpiresAt:        time.Now().Add(s.cfg.RefreshTTL),
	})
	return &Tokens{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(s.cfg.AccessTTL.Seconds())}, nil
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func validateEmail(email string) error {
	if !strings.Contains(email, "@") || len(email) > 255 {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password too short")
	}
	return nil
}

func hashToken(jti string) string {
	return fmt.Sprintf("rt:%s", jti)
}
