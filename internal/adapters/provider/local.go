package provider

import (
	"context"
	"errors"

	"github.com/mahhuOps/portfoliovn/internal/credstore"
	"github.com/mahhuOps/portfoliovn/internal/domain"
)

// Local serves the provider contract out of the on-disk credential store.
// Used when no cloud backend is configured.
type Local struct {
	*notifier
	store *credstore.Store
}

func NewLocal(store *credstore.Store) *Local {
	return &Local{notifier: newNotifier(), store: store}
}

func (l *Local) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	cred, err := l.store.Authenticate(email, password)
	if err != nil {
		return domain.Identity{}, err
	}
	identity := domain.Identity{ProviderID: cred.ID, Email: cred.Email, DisplayName: cred.Name}
	l.set(&identity)
	return identity, nil
}

func (l *Local) SignUp(ctx context.Context, email, password, displayName string) (domain.Identity, error) {
	cred, err := l.store.Register(email, password, displayName)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return domain.Identity{}, domain.ErrEmailTaken
		}
		return domain.Identity{}, err
	}
	identity := domain.Identity{ProviderID: cred.ID, Email: cred.Email, DisplayName: cred.Name}
	l.set(&identity)
	return identity, nil
}

func (l *Local) SignOut(ctx context.Context) error {
	l.clear()
	return nil
}
