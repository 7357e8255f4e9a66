// Package render turns normalized message bodies into the text handed to
// the ingestion pipeline: plain, raw HTML or markdown.
package render

import (
	"html"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

// Ensure Renderer implements the port.
var _ driven.BodyRenderer = (*Renderer)(nil)

// Renderer renders message bodies per the source's configured mode.
type Renderer struct {
	converter *md.Converter
}

// New creates a body renderer.
func New() *Renderer {
	conv := md.NewConverter("", true, nil)
	conv.Remove("style", "script")
	return &Renderer{converter: conv}
}

// Render returns the body in the requested mode. A mode whose preferred
// part is missing falls back to the other part rather than returning an
// empty body for a message that has one.
func (r *Renderer) Render(mode domain.RenderMode, msg *domain.NormalizedMessage) string {
	switch mode {
	case domain.RenderHTML:
		if msg.BodyHTML != "" {
			return msg.BodyHTML
		}
		return msg.BodyPlain
	case domain.RenderMarkdown:
		if msg.BodyHTML != "" {
			if out, err := r.converter.ConvertString(msg.BodyHTML); err == nil {
				return strings.TrimSpace(out)
			}
			return StripHTML(msg.BodyHTML)
		}
		return msg.BodyPlain
	default:
		if msg.BodyPlain != "" {
			return msg.BodyPlain
		}
		return StripHTML(msg.BodyHTML)
	}
}

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptPattern     = regexp.MustCompile(`(?is)<(script|style)\b.*?</(script|style)>`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
	blankLinePattern  = regexp.MustCompile(`\n{3,}`)
)

// StripHTML reduces an HTML fragment to its text content.
func StripHTML(in string) string {
	if in == "" {
		return ""
	}
	out := scriptPattern.ReplaceAllString(in, "")
	out = tagPattern.ReplaceAllString(out, " ")
	out = html.UnescapeString(out)
	out = whitespacePattern.ReplaceAllString(out, " ")
	out = blankLinePattern.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
