// Package tokenstore provides TokenStore implementations backed by the
// configuration record and by per-account files, plus a decorator that keeps
// the configuration record's connection state in step for backends that
// persist tokens elsewhere.
package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

var _ driven.TokenStore = (*ConfigTokenStore)(nil)

// ConfigTokenStore keeps the token inside the source's configuration record.
// One token per source: the account email travels with the token, and the
// record's "authenticated" flag is flipped on save and delete so the host's
// view of the connection matches token presence.
type ConfigTokenStore struct {
	config driven.ConfigStore
	prefix string
}

// NewConfigTokenStore creates a token store persisting under the given
// record prefix, e.g. "sources.gmail".
func NewConfigTokenStore(config driven.ConfigStore, prefix string) *ConfigTokenStore {
	return &ConfigTokenStore{config: config, prefix: prefix}
}

func (s *ConfigTokenStore) key(suffix string) string {
	if s.prefix == "" {
		return suffix
	}
	return s.prefix + "." + suffix
}

// Get retrieves the stored token. The email argument is checked against the
// token's own account so a reconfigured source never reuses a stale grant.
func (s *ConfigTokenStore) Get(ctx context.Context, email string) (*domain.Token, error) {
	raw := s.config.GetString(s.key("token"))
	if raw == "" {
		return nil, fmt.Errorf("token for %q: %w", email, domain.ErrNotFound)
	}

	var token domain.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("decoding stored token: %w", err)
	}
	if email != "" && token.Email != "" && token.Email != email {
		return nil, fmt.Errorf("token for %q: %w", email, domain.ErrNotFound)
	}
	return &token, nil
}

// Save stores the token and marks the source authenticated in one write.
func (s *ConfigTokenStore) Save(ctx context.Context, token *domain.Token) error {
	if token == nil || token.Email == "" {
		return fmt.Errorf("%w: token requires an account email", domain.ErrInvalidInput)
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	return s.config.SetState(s.prefix, map[string]any{
		"token":         string(raw),
		"email":         token.Email,
		"authenticated": true,
	})
}

// Delete removes the token, clears the cached email and marks the source
// unauthenticated in one write.
func (s *ConfigTokenStore) Delete(ctx context.Context, email string) error {
	return s.config.SetState(s.prefix, map[string]any{
		"token":         nil,
		"email":         nil,
		"authenticated": false,
	})
}
