package gmail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

func TestComposeMIME(t *testing.T) {
	mime := composeMIME(domain.OutgoingMail{
		From:    "deploy@example.org",
		To:      "reporter@example.org",
		Subject: "Re: report",
		Body:    "<p>Thanks, received.</p>",
	})

	headers, body, found := strings.Cut(mime, "\r\n\r\n")
	assert.True(t, found, "blank line between headers and body")
	assert.Equal(t, "<p>Thanks, received.</p>", body)

	assert.Contains(t, headers, "From: deploy@example.org\r\n")
	assert.Contains(t, headers, "To: reporter@example.org\r\n")
	assert.Contains(t, headers, "Subject: Re: report\r\n")
	assert.Contains(t, headers, "MIME-Version: 1.0\r\n")
	assert.Contains(t, headers, `Content-Type: text/html; charset="utf-8"`)
	assert.Contains(t, headers, "Message-ID: <")
}

func TestSanitizeHeader(t *testing.T) {
	got := sanitizeHeader("subject\r\nBcc: attacker@example.org")
	assert.NotContains(t, got, "\r")
	assert.NotContains(t, got, "\n")
	assert.Equal(t, "subject  Bcc: attacker@example.org", got)
}
