package gmail

import (
	"context"
	"fmt"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

// Ensure the factory and connection implement the core ports.
var (
	_ driven.ConnectionFactory = (*Factory)(nil)
	_ driven.Connection        = (*Connection)(nil)
)

// Factory opens Gmail connections from explicit source configuration.
// One shared rate limiter paces all connections in the process, since the
// provider quota is per OAuth app, not per connection.
type Factory struct {
	limiter *RateLimiter
}

// NewFactory creates a connection factory.
func NewFactory() *Factory {
	return &Factory{limiter: NewRateLimiter()}
}

// Connect builds an authorised session for the configured account.
func (f *Factory) Connect(ctx context.Context, cfg domain.SourceConfig, tokens driven.TokenProvider) (driven.Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Email == "" {
		return nil, fmt.Errorf("%w: no account email configured", domain.ErrConfigIncomplete)
	}

	// A configured source without a usable token degrades here, before any
	// API call, so the caller sees a connect failure rather than a sync error.
	if _, err := tokens.Token(ctx); err != nil {
		return nil, fmt.Errorf("no usable token: %w", err)
	}

	svc, err := NewService(ctx, NewTokenSource(ctx, tokens))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &Connection{email: cfg.Email, svc: svc, limiter: f.limiter}, nil
}

// Connection is an authorised session against one Gmail account.
type Connection struct {
	email   string
	svc     *gmailapi.Service
	limiter *RateLimiter
}

// Email returns the authenticated account address.
func (c *Connection) Email() string {
	return c.email
}

// Mailbox returns a reader over the connected mailbox.
func (c *Connection) Mailbox() driven.Mailbox {
	return NewMailbox(c.svc, c.limiter)
}

// Mailer returns a sender for the connected account.
func (c *Connection) Mailer() driven.Mailer {
	return NewMailer(c.svc, c.limiter)
}

// Service exposes the underlying API service for profile lookups.
func (c *Connection) Service() *gmailapi.Service {
	return c.svc
}
