// Package provider adapts external authentication backends behind one
// contract: credential operations plus an auth-state subscription.
package provider

import (
	"context"
	"sync"

	"github.com/mahhuOps/portfoliovn/internal/domain"
)

// StateChange is emitted on every transition of the provider's notion of the
// current identity. Identity is nil when nobody is signed in.
type StateChange struct {
	Identity *domain.Identity
}

type Provider interface {
	SignIn(ctx context.Context, email, password string) (domain.Identity, error)
	SignUp(ctx context.Context, email, password, displayName string) (domain.Identity, error)
	// SignOut always clears the local identity and emits a nil-identity
	// state change; a remote failure is returned but does not keep the
	// session alive.
	SignOut(ctx context.Context) error
	// Subscribe delivers one event with the current state immediately,
	// then exactly one event per transition. The returned func cancels
	// the subscription.
	Subscribe() (<-chan StateChange, func())
}

// notifier tracks the current identity and fans state changes out to
// subscribers. Shared by the cloud and local implementations.
type notifier struct {
	mu      sync.Mutex
	current *domain.Identity
	subs    map[int]chan StateChange
	nextSub int
}

func newNotifier() *notifier {
	return &notifier{subs: map[int]chan StateChange{}}
}

func (n *notifier) Subscribe() (<-chan StateChange, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextSub
	n.nextSub++
	ch := make(chan StateChange, 16)
	ch <- StateChange{Identity: n.current}
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (n *notifier) set(identity *domain.Identity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	// signed-out to signed-out is not a transition
	if identity == nil && n.current == nil {
		return
	}
	n.current = identity
	for _, ch := range n.subs {
		ch <- StateChange{Identity: identity}
	}
}

func (n *notifier) clear() { n.set(nil) }
