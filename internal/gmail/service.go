// Package gmail adapts the Gmail API to the sync core's mailbox and mailer
// ports: listing with full or history-based sync, batched detail fetches,
// body normalization and raw MIME sending.
package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

// authenticatedUser addresses the account the token belongs to.
const authenticatedUser = "me"

// NewService creates a Gmail API service using the provided TokenSource.
func NewService(ctx context.Context, ts oauth2.TokenSource) (*gmailapi.Service, error) {
	return gmailapi.NewService(ctx, option.WithTokenSource(ts))
}

// GetProfile fetches the authenticated account's profile: the canonical
// email address and the mailbox's current history id.
func GetProfile(ctx context.Context, svc *gmailapi.Service) (email string, historyID uint64, err error) {
	profile, err := svc.Users.GetProfile(authenticatedUser).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("get profile: %w", err)
	}
	return profile.EmailAddress, profile.HistoryId, nil
}

// tokenSource adapts the core's TokenProvider port to oauth2.TokenSource so
// Google API clients can draw on the session's token management.
type tokenSource struct {
	provider driven.TokenProvider
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource from a TokenProvider.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &tokenSource{provider: provider, ctx: ctx}
}

// Token implements oauth2.TokenSource.
func (t *tokenSource) Token() (*oauth2.Token, error) {
	tok, err := t.provider.Token(t.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: tok.AccessToken,
		TokenType:   "Bearer",
		Expiry:      tok.ExpiresAt(),
	}, nil
}
