// Package reconciler derives the published Session from provider identity
// events and the profile store. It is the single writer of the session
// snapshot; everything else reads.
package reconciler

import (
	"context"
	"sync"

	"github.com/mahhuOps/portfoliovn/internal/adapters/provider"
	"github.com/mahhuOps/portfoliovn/internal/domain"
	"github.com/mahhuOps/portfoliovn/internal/metrics"
	pkglog "github.com/mahhuOps/portfoliovn/pkg/log"
)

type State int

const (
	Unauthenticated State = iota
	Resolving
	Authenticated
	AuthenticatedFallback
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	case AuthenticatedFallback:
		return "authenticated_fallback"
	default:
		return "unauthenticated"
	}
}

// Snapshot is an immutable view of the current session. Session is nil
// unless State is Authenticated or AuthenticatedFallback.
type Snapshot struct {
	State   State
	Session *domain.Session
}

// ProfileSource is the slice of the profile repository the reconciler needs.
type ProfileSource interface {
	Get(ctx context.Context, providerID string) (*domain.Profile, error)
	IsReachable(ctx context.Context) bool
	ResetProbe()
}

type resolution struct {
	attempt  uint64
	identity domain.Identity
	profile  *domain.Profile
	err      error
}

type Reconciler struct {
	logger   pkglog.Logger
	profiles ProfileSource
	events   <-chan provider.StateChange
	cancelEv func()
	metrics  metrics.Collector

	results chan resolution

	mu       sync.Mutex
	snapshot Snapshot
	subs     map[int]chan Snapshot
	nextSub  int
}

func New(logger pkglog.Logger, p provider.Provider, profiles ProfileSource, collector metrics.Collector) *Reconciler {
	events, cancel := p.Subscribe()
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Reconciler{
		logger:   logger,
		profiles: profiles,
		events:   events,
		cancelEv: cancel,
		metrics:  collector,
		results:  make(chan resolution),
		snapshot: Snapshot{State: Unauthenticated},
		subs:     map[int]chan Snapshot{},
	}
}

// Run consumes provider state changes until ctx is cancelled. Events are
// handled strictly in order; a newer event supersedes any in-flight profile
// resolution.
func (r *Reconciler) Run(ctx context.Context) {
	defer r.cancelEv()

	var attempt uint64
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.events:
			if !ok {
				return
			}
			attempt++
			r.handleEvent(ctx, attempt, ev)
		case res := <-r.results:
			if res.attempt != attempt {
				r.metrics.RecordStaleResultDiscarded()
				r.logger.Debug().Str("provider_id", res.identity.ProviderID).Msg("discarding stale profile result")
				continue
			}
			r.commit(res)
		}
	}
}

func (r *Reconciler) handleEvent(ctx context.Context, attempt uint64, ev provider.StateChange) {
	if ev.Identity == nil {
		r.publish(Snapshot{State: Unauthenticated})
		r.metrics.RecordReconciliation(metrics.OutcomeSignedOut)
		return
	}

	identity := *ev.Identity
	r.publish(Snapshot{State: Resolving})

	// At most one connectivity probe per identity-change cycle.
	r.profiles.ResetProbe()
	if !r.profiles.IsReachable(ctx) {
		session := domain.Fallback(identity)
		r.publish(Snapshot{State: AuthenticatedFallback, Session: &session})
		r.metrics.RecordReconciliation(metrics.OutcomeFallback)
		r.logger.Warn().Str("provider_id", identity.ProviderID).Msg("profile backend unreachable, using identity-only session")
		return
	}

	// Exactly one lookup per identity transition; the repository owns the
	// timeout, so no retry loop here.
	go func() {
		profile, err := r.profiles.Get(ctx, identity.ProviderID)
		select {
		case r.results <- resolution{attempt: attempt, identity: identity, profile: profile, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (r *Reconciler) commit(res resolution) {
	if res.err != nil {
		session := domain.Fallback(res.identity)
		r.publish(Snapshot{State: AuthenticatedFallback, Session: &session})
		r.metrics.RecordReconciliation(metrics.OutcomeFallback)
		r.logger.Info().
			Str("provider_id", res.identity.ProviderID).
			Err(res.err).
			Msg("profile unavailable, falling back to identity data")
		return
	}
	session := domain.Merge(res.identity, res.profile)
	r.publish(Snapshot{State: Authenticated, Session: &session})
	r.metrics.RecordReconciliation(metrics.OutcomeMerged)
	r.logger.Info().Str("provider_id", res.identity.ProviderID).Str("role", session.Role).Msg("session resolved")
}

// Current returns the latest published snapshot.
func (r *Reconciler) Current() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// Subscribe delivers the current snapshot immediately, then every
// subsequently published one. Slow consumers miss intermediate snapshots
// rather than blocking the reconciler.
func (r *Reconciler) Subscribe() (<-chan Snapshot, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSub
	r.nextSub++
	ch := make(chan Snapshot, 16)
	ch <- r.snapshot
	r.subs[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (r *Reconciler) publish(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = s
	for _, ch := range r.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
