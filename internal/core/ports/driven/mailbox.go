package driven

import (
	"context"
	"time"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// MailboxQuery parameterises one listing pass over the remote mailbox.
type MailboxQuery struct {
	// Label restricts the listing to one label id (full sync).
	Label string
	// After bounds the listing to messages received after this instant
	// (full sync). The zero time applies the mailbox default lookback.
	After time.Time
	// HistoryID is the change-log position to resume from (partial sync).
	HistoryID string
	// PageToken resumes a previous listing.
	PageToken string
	// Max caps the number of results per pass.
	Max int64
}

// Mailbox lists and fetches messages from the remote mailbox. A query is
// armed with Full or Partial, consumed with All, and continued with Next.
// Each All/Next call yields a finite one-shot batch of normalized messages;
// messages whose detail fetch failed are dropped from the batch and logged.
type Mailbox interface {
	// Full arms a full-sync listing filtered by label and date.
	Full(q MailboxQuery)

	// Partial arms a history-based listing of messages added since
	// q.HistoryID. All returns an error wrapping domain.ErrHistoryInvalid
	// when the provider reports the checkpoint as stale; the caller must
	// fall back to Full.
	Partial(q MailboxQuery)

	// All executes the armed query and returns the first batch.
	All(ctx context.Context) ([]domain.NormalizedMessage, error)

	// HasNextPage reports whether the last response carried a page token.
	HasNextPage() bool

	// Next re-issues the same query type with the stored page token.
	Next(ctx context.Context) ([]domain.NormalizedMessage, error)

	// LatestHistoryID is the newest change-log position observed in the most
	// recent response; the next cycle's partial-sync checkpoint.
	LatestHistoryID() string

	// PageToken is the most recent response's next-page token, empty when
	// the listing is exhausted.
	PageToken() string
}

// Mailer submits outgoing messages through the provider send endpoint.
type Mailer interface {
	// Send builds the MIME message and submits it. The receipt carries the
	// provider-assigned message id on success.
	Send(ctx context.Context, mail domain.OutgoingMail) (*domain.SendReceipt, error)
}

// Connection is an authorised session against one mailbox account.
type Connection interface {
	// Email returns the authenticated account address.
	Email() string
	Mailbox() Mailbox
	Mailer() Mailer
}

// ConnectionFactory opens provider connections from explicit configuration
// and a token provider; no global registry.
type ConnectionFactory interface {
	Connect(ctx context.Context, cfg domain.SourceConfig, tokens TokenProvider) (Connection, error)
}

// BodyRenderer renders a normalized message body for ingestion.
type BodyRenderer interface {
	// Render returns the body in the requested mode, falling back to the
	// plain part when the mode's preferred part is missing.
	Render(mode domain.RenderMode, msg *domain.NormalizedMessage) string
}
