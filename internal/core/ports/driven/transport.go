package driven

import (
	"context"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// OAuthTransport is the narrow surface of the provider's OAuth2 endpoints.
// Business logic depends only on this interface; the concrete adapter wraps
// whatever OAuth client library is in use.
type OAuthTransport interface {
	// AuthURL builds the authorization URL with offline access and the mail
	// scope, plus the anti-forgery state embedded in it so the redirect
	// listener can validate the callback. An empty loginHint prompts the
	// account chooser instead.
	AuthURL(loginHint string) (url, state string)

	// Exchange trades an authorization code for a token.
	// Returns an error wrapping domain.ErrAuthRejected when the provider
	// rejects the code.
	Exchange(ctx context.Context, code string) (*domain.Token, error)

	// Refresh trades a refresh token for a fresh access token.
	Refresh(ctx context.Context, refreshToken string) (*domain.Token, error)

	// Revoke invalidates the token with the provider.
	Revoke(ctx context.Context, token *domain.Token) error

	// Profile fetches the authenticated account's canonical email address.
	// Needed after code exchange because the login hint may be absent or stale.
	Profile(ctx context.Context, token *domain.Token) (string, error)
}

// TokenProvider supplies a valid token for API calls. Implemented by the
// auth session, which refreshes transparently where possible.
type TokenProvider interface {
	// Token returns the current token, refreshed if it was expired and a
	// refresh token existed. A stale token may be returned when no refresh
	// is possible; callers must treat subsequent API failures as auth errors.
	Token(ctx context.Context) (*domain.Token, error)
}
