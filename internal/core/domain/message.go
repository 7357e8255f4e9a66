package domain

import (
	"regexp"
	"time"
)

// NormalizedMessage is the canonical form of a provider message after header
// extraction and body decoding. It is derived deterministically from the raw
// message: the first text/plain and first text/html parts win, and a message
// without parts contributes its own body as the single plain part.
type NormalizedMessage struct {
	ID        string
	ThreadID  string
	HistoryID string

	From    string
	To      string
	Subject string
	Date    time.Time

	BodyPlain string
	BodyHTML  string
}

// HasBody reports whether any body part was decoded.
func (m *NormalizedMessage) HasBody() bool {
	return m.BodyPlain != "" || m.BodyHTML != ""
}

var addressPattern = regexp.MustCompile(`[._a-zA-Z0-9-]+@[._a-zA-Z0-9-]+`)

// ExtractEmail pulls the bare address out of a From/To header value,
// tolerating display-name forms like `"Jane Doe" <jane@x.com>`.
// Returns the empty string when no address-shaped substring is present.
func ExtractEmail(header string) string {
	return addressPattern.FindString(header)
}
