// Package services holds the business logic of the sync core: the OAuth
// session state machine and the fetch/send coordinator.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driving"
	"github.com/crowdvoice-labs/gmailsource/internal/logger"
)

// Ensure AuthSession implements the auth ports.
var (
	_ driving.AuthFlow     = (*AuthSession)(nil)
	_ driven.TokenProvider = (*AuthSession)(nil)
)

// AuthSession owns the OAuth token lifecycle for one mailbox account:
// authorization URL, code exchange, expiry checks, refresh and revocation.
// The stored token is the source of truth; the session holds only the
// account email between calls.
//
// The mutex serialises refresh-and-persist so concurrent callers cannot
// race two refreshes and persist a loser's token.
type AuthSession struct {
	transport driven.OAuthTransport
	tokens    driven.TokenStore

	mu    sync.Mutex
	email string
}

// NewAuthSession creates a session for the given account. The email may be
// empty before first authorisation; Authorize resolves and stores it.
func NewAuthSession(transport driven.OAuthTransport, tokens driven.TokenStore, email string) *AuthSession {
	return &AuthSession{transport: transport, tokens: tokens, email: email}
}

// Email returns the account the session manages.
func (s *AuthSession) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// AuthURL builds the provider authorization URL and the state to expect on
// the redirect. Without a login hint the session's own account is hinted;
// without either, the provider prompts the account chooser.
func (s *AuthSession) AuthURL(loginHint string) (string, string) {
	if loginHint == "" {
		loginHint = s.Email()
	}
	return s.transport.AuthURL(loginHint)
}

// Authorize exchanges the authorization code for a token, resolves the
// canonical account email from the provider profile (the login hint may be
// absent or stale) and persists the token.
func (s *AuthSession) Authorize(ctx context.Context, code string) (*domain.Token, error) {
	token, err := s.transport.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	email, err := s.transport.Profile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve account profile: %w", err)
	}
	token.Email = email

	if err := s.tokens.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	s.mu.Lock()
	s.email = email
	s.mu.Unlock()

	return token, nil
}

// IsExpired reports whether the stored token is absent or clock-expired.
func (s *AuthSession) IsExpired(ctx context.Context) bool {
	token, err := s.tokens.Get(ctx, s.Email())
	if err != nil || token == nil {
		return true
	}
	return token.IsExpired()
}

// Token returns a valid token, refreshing an expired one when a refresh
// token exists. When refresh is impossible or fails, the stale token is
// returned unchanged: a scheduled sync degrades to zero messages instead of
// crashing, and the subsequent API failure is the operator's signal.
func (s *AuthSession) Token(ctx context.Context) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.tokens.Get(ctx, s.email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoToken
		}
		return nil, fmt.Errorf("load token: %w", err)
	}

	if !token.IsExpired() {
		return token, nil
	}
	if !token.HasRefreshToken() {
		logger.Warn("auth: token for %s expired with no refresh token", s.email)
		return token, nil
	}

	fresh, err := s.transport.Refresh(ctx, token.RefreshToken)
	if err != nil {
		logger.Warn("auth: refresh for %s failed: %v", s.email, err)
		return token, nil
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = token.RefreshToken
	}
	fresh.Email = s.email

	if err := s.tokens.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("persist refreshed token: %w", err)
	}
	return fresh, nil
}

// Unauthorize revokes the token with the provider and deletes the local
// copy. Deletion is unconditional: a revoke failure must not leave stale
// credentials behind.
func (s *AuthSession) Unauthorize(ctx context.Context) error {
	email := s.Email()

	if token, err := s.tokens.Get(ctx, email); err == nil && token != nil {
		if err := s.transport.Revoke(ctx, token); err != nil {
			logger.Warn("auth: revoke for %s failed: %v", email, err)
		}
	}

	if err := s.tokens.Delete(ctx, email); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
