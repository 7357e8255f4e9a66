package tokenstore

import (
	"context"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

var _ driven.TokenStore = (*StateTokenStore)(nil)

// StateTokenStore decorates a token store with the source's configuration
// record side effect: save records the account email and flips the
// "authenticated" flag, delete clears both. Backends that persist tokens
// outside the config record (sqlite, file) wrap themselves in this so the
// host's view of the connection still matches token presence.
// ConfigTokenStore applies the same updates itself and needs no wrapping.
type StateTokenStore struct {
	inner  driven.TokenStore
	config driven.ConfigStore
	prefix string
}

// WithSourceState wraps a token store so saves and deletes keep the source's
// configuration record in step.
func WithSourceState(inner driven.TokenStore, config driven.ConfigStore, prefix string) *StateTokenStore {
	return &StateTokenStore{inner: inner, config: config, prefix: prefix}
}

// Get retrieves the stored token from the wrapped store.
func (s *StateTokenStore) Get(ctx context.Context, email string) (*domain.Token, error) {
	return s.inner.Get(ctx, email)
}

// Save persists the token and then records the account email and the
// authenticated flag in the configuration record.
func (s *StateTokenStore) Save(ctx context.Context, token *domain.Token) error {
	if err := s.inner.Save(ctx, token); err != nil {
		return err
	}
	return s.config.SetState(s.prefix, map[string]any{
		"email":         token.Email,
		"authenticated": true,
	})
}

// Delete removes the token and then clears the account email and the
// authenticated flag in the configuration record.
func (s *StateTokenStore) Delete(ctx context.Context, email string) error {
	if err := s.inner.Delete(ctx, email); err != nil {
		return err
	}
	return s.config.SetState(s.prefix, map[string]any{
		"email":         nil,
		"authenticated": false,
	})
}
