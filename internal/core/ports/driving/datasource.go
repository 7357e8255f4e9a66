// Package driving defines the inbound ports of the sync core: the surface
// the host platform (scheduler, HTTP layer, CLI) drives.
package driving

import (
	"context"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// DataSource is the message data-source contract consumed by the host's
// ingestion pipeline and outbound queue.
type DataSource interface {
	// Fetch runs one sync cycle and returns ingestion records ordered by
	// ascending datetime. A misconfigured or unauthorised source returns an
	// empty slice, not an error: one broken source must not halt a
	// multi-source ingestion run.
	Fetch(ctx context.Context, limit int) ([]domain.IngestionRecord, error)

	// Send delivers one outbound message. Provider failures are logged and
	// reported as MessageFailed with an empty id; they never propagate.
	Send(ctx context.Context, to, message, title string) (domain.MessageStatus, string)
}

// AuthFlow is the interactive authorisation surface. Unlike background sync,
// these calls surface provider errors so the caller can react.
type AuthFlow interface {
	// AuthURL builds the provider authorization URL and returns the
	// anti-forgery state embedded in it, for redirect validation.
	AuthURL(loginHint string) (url, state string)

	// Authorize exchanges the authorization code, resolves the canonical
	// account email and persists the token.
	Authorize(ctx context.Context, code string) (*domain.Token, error)

	// Unauthorize revokes the token with the provider and deletes the local
	// copy. Local deletion happens even when revocation fails.
	Unauthorize(ctx context.Context) error
}
