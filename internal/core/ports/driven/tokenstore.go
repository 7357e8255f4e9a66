package driven

import (
	"context"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// TokenStore persists OAuth token records keyed by account email.
//
// Save and Delete also flip the source's "authenticated" flag so UI state
// matches token presence, and Delete clears any cached email association.
// Operations rely on the backing store's own last-writer-wins consistency;
// one account is managed per process invocation, so no client-side locking.
type TokenStore interface {
	// Get retrieves the token for an account.
	// Returns domain.ErrNotFound when no token is stored.
	Get(ctx context.Context, email string) (*domain.Token, error)

	// Save stores a token. The token's Email field is required.
	Save(ctx context.Context, token *domain.Token) error

	// Delete removes the token for an account.
	Delete(ctx context.Context, email string) error
}

// CheckpointStore persists the sync checkpoint for a configured mailbox
// connection. One checkpoint record per source instance.
type CheckpointStore interface {
	// Get retrieves the checkpoint for a source.
	// Returns domain.ErrNotFound when no checkpoint has been saved yet.
	Get(ctx context.Context, sourceID string) (*domain.SyncCheckpoint, error)

	// Save stores or replaces the checkpoint for a source.
	Save(ctx context.Context, sourceID string, cp domain.SyncCheckpoint) error

	// Delete removes the checkpoint for a source.
	Delete(ctx context.Context, sourceID string) error
}
