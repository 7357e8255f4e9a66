package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

// Ensure Mailer implements the mailer port.
var _ driven.Mailer = (*Mailer)(nil)

// Mailer builds RFC 822 messages and submits them through the Gmail send
// endpoint. The raw MIME is standard base64, not URL-safe, per the endpoint.
type Mailer struct {
	svc     *gmailapi.Service
	limiter *RateLimiter
}

// NewMailer creates a mailer over an authorised Gmail service.
func NewMailer(svc *gmailapi.Service, limiter *RateLimiter) *Mailer {
	if limiter == nil {
		limiter = NewRateLimiter()
	}
	return &Mailer{svc: svc, limiter: limiter}
}

// Send composes and submits one outgoing message.
func (m *Mailer) Send(ctx context.Context, mail domain.OutgoingMail) (*domain.SendReceipt, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	msg := &gmailapi.Message{
		Raw: base64.StdEncoding.EncodeToString([]byte(composeMIME(mail))),
	}
	if mail.ThreadID != "" {
		msg.ThreadId = mail.ThreadID
	}

	sent, err := m.svc.Users.Messages.Send(authenticatedUser, msg).Context(ctx).Do()
	if err != nil {
		if IsRateLimited(err) {
			m.limiter.RecordRateLimitError(0)
		}
		return nil, fmt.Errorf("send message: %w", err)
	}
	if sent.Id == "" {
		return nil, fmt.Errorf("send message: provider returned no message id")
	}

	return &domain.SendReceipt{ID: sent.Id, ThreadID: sent.ThreadId}, nil
}

// composeMIME renders an HTML mail as an RFC 822 message.
func composeMIME(mail domain.OutgoingMail) string {
	var b strings.Builder
	writeHeader := func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	writeHeader("From", mail.From)
	writeHeader("To", mail.To)
	writeHeader("Subject", sanitizeHeader(mail.Subject))
	writeHeader("Date", time.Now().Format(time.RFC1123Z))
	writeHeader("Message-ID", fmt.Sprintf("<%s@gmailsource>", uuid.NewString()))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", `text/html; charset="utf-8"`)
	b.WriteString("\r\n")
	b.WriteString(mail.Body)
	return b.String()
}

// sanitizeHeader strips CR/LF so body text can never inject headers.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
