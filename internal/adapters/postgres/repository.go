package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mahhuOps/portfoliovn/internal/domain"
	"github.com/mahhuOps/portfoliovn/pkg/deadline"
)

// ProfileRepository reads and writes per-user profile documents. Every call
// is bounded by a fixed timeout; callers get a classified error instead of a
// hanging round-trip.
type ProfileRepository interface {
	Get(ctx context.Context, providerID string) (*domain.Profile, error)
	Put(ctx context.Context, profile *domain.Profile) error
	List(ctx context.Context) ([]domain.Profile, error)
	// IsReachable probes connectivity. The result is cached until
	// ResetProbe, so a reconciliation cycle costs at most one probe.
	IsReachable(ctx context.Context) bool
	ResetProbe()
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindActive(ctx context.Context, hash string) (*domain.RefreshToken, error)
	RevokeByHash(ctx context.Context, hash string) error
}

type Timeouts struct {
	Get   time.Duration
	Put   time.Duration
	Probe time.Duration
}

type profileRepo struct {
	db       *gorm.DB
	timeouts Timeouts

	probeMu sync.Mutex
	probed  bool
	reached bool
}

func NewProfileRepository(db *gorm.DB, timeouts Timeouts) ProfileRepository {
	return &profileRepo{db: db, timeouts: timeouts}
}

func (r *profileRepo) Get(ctx context.Context, providerID string) (*domain.Profile, error) {
	profile, err := deadline.Run(ctx, r.timeouts.Get, func(ctx context.Context) (*domain.Profile, error) {
		var p domain.Profile
		if err := r.db.WithContext(ctx).Where("provider_id = ?", providerID).First(&p).Error; err != nil {
			return nil, err
		}
		return &p, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return profile, nil
}

func (r *profileRepo) Put(ctx context.Context, profile *domain.Profile) error {
	_, err := deadline.Run(ctx, r.timeouts.Put, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.db.WithContext(ctx).Save(profile).Error
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (r *profileRepo) List(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := deadline.Run(ctx, r.timeouts.Get, func(ctx context.Context) ([]domain.Profile, error) {
		var out []domain.Profile
		if err := r.db.WithContext(ctx).Order("created_at").Find(&out).Error; err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return profiles, nil
}

func (r *profileRepo) IsReachable(ctx context.Context) bool {
	r.probeMu.Lock()
	defer r.probeMu.Unlock()
	if r.probed {
		return r.reached
	}
	r.probed = true
	r.reached = r.ping(ctx)
	return r.reached
}

func (r *profileRepo) ResetProbe() {
	r.probeMu.Lock()
	defer r.probeMu.Unlock()
	r.probed = false
}

func (r *profileRepo) ping(ctx context.Context) bool {
	sqlDB, err := r.db.DB()
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeouts.Probe)
	defer cancel()
	return sqlDB.PingContext(ctx) == nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, deadline.ErrTimedOut), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrProfileTimeout
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrProfileNotFound
	default:
		return fmt.Errorf("%w: %v", domain.ErrProfileOffline, err)
	}
}

type refreshTokenRepo struct{ db *gorm.DB }

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepo{db: db}
}

func (r *refreshTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *refreshTokenRepo) FindActive(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	if err := r.db.WithContext(ctx).
		Where("refresh_token_hash = ? AND (revoked_at IS NULL) AND expires_at > ?", hash, time.Now()).
		First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepo) RevokeByHash(ctx context.Context, hash string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("refresh_token_hash = ?", hash).
		Updates(map[string]interface{}{"revoked_at": &now}).Error
}
