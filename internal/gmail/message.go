package gmail

import (
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// Normalize converts a raw Gmail message into the canonical form: exact-name
// header lookup, first text/plain and text/html parts decoded, and the
// message's own body used as the single plain part when no parts exist.
func Normalize(msg *gmailapi.Message) domain.NormalizedMessage {
	m := domain.NormalizedMessage{
		ID:        msg.Id,
		ThreadID:  msg.ThreadId,
		HistoryID: formatHistoryID(msg.HistoryId),
	}

	if msg.Payload == nil {
		return m
	}

	headers := headerMap(msg.Payload.Headers)
	m.From = headers["From"]
	m.To = headers["To"]
	m.Subject = strings.TrimSpace(headers["Subject"])
	m.Date = parseDate(headers["Date"], msg.InternalDate)

	m.BodyPlain, m.BodyHTML = bodyParts(msg.Payload)
	return m
}

// headerMap collapses the header list to a name-keyed map. Lookup is by
// exact header name; a missing header reads as the empty string.
func headerMap(headers []*gmailapi.MessagePartHeader) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Name] = h.Value
	}
	return out
}

// bodyParts extracts the plain and HTML bodies. The first occurrence per
// mime type wins; a part that fails to decode reads as empty rather than
// aborting the message.
func bodyParts(payload *gmailapi.MessagePart) (plain, html string) {
	if len(payload.Parts) == 0 {
		if payload.Body != nil {
			plain, _ = DecodeBody(payload.Body.Data)
		}
		return plain, html
	}

	for _, part := range payload.Parts {
		if part.Body == nil {
			continue
		}
		switch part.MimeType {
		case "text/plain":
			if plain == "" {
				plain, _ = DecodeBody(part.Body.Data)
			}
		case "text/html":
			if html == "" {
				html, _ = DecodeBody(part.Body.Data)
			}
		}
	}
	return plain, html
}

// DecodeBody decodes a Gmail body payload. Bodies arrive URL-safe base64,
// sometimes without padding; the `-`/`_` substitutions are restored and the
// input padded to a multiple of 4 before decoding, otherwise trailing bytes
// are silently corrupted.
func DecodeBody(data string) (string, error) {
	if data == "" {
		return "", nil
	}
	std := strings.NewReplacer("-", "+", "_", "/").Replace(data)
	if n := len(std) % 4; n != 0 {
		std += strings.Repeat("=", 4-n)
	}
	decoded, err := base64.StdEncoding.DecodeString(std)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return string(decoded), nil
}

// dateLayouts covers the Date header forms seen in the wild beyond RFC 5322.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
}

// parseDate parses the Date header, falling back to the provider's internal
// receive timestamp when the header is missing or unparseable.
func parseDate(header string, internalDate int64) time.Time {
	if header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, header); err == nil {
				return t
			}
		}
	}
	if internalDate > 0 {
		return time.UnixMilli(internalDate)
	}
	return time.Time{}
}

func formatHistoryID(id uint64) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprintf("%d", id)
}
