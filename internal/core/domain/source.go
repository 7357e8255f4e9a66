package domain

import "fmt"

// RenderMode selects how message bodies are rendered into ingestion records.
type RenderMode string

const (
	RenderPlain    RenderMode = "plain"
	RenderHTML     RenderMode = "html"
	RenderMarkdown RenderMode = "markdown"
)

// SourceConfig is the explicit configuration for one mailbox connection.
// Per-source values override the deployment-wide defaults; Resolve applies
// that precedence.
type SourceConfig struct {
	// Email is the account the connection is authorised for.
	Email string `json:"email" toml:"email"`
	// ClientID, ClientSecret and RedirectURI are the OAuth app credentials.
	ClientID     string `json:"client_id" toml:"client_id"`
	ClientSecret string `json:"client_secret" toml:"client_secret"`
	RedirectURI  string `json:"redirect_uri" toml:"redirect_uri"`

	// Authenticated mirrors token presence so UI state stays in step.
	// Maintained by the token store, not by hand.
	Authenticated bool `json:"authenticated" toml:"authenticated"`

	// Render selects body rendering for ingestion records. Default markdown.
	Render RenderMode `json:"render,omitempty" toml:"render"`
	// Label restricts fetching to one mailbox label. Default INBOX.
	Label string `json:"label,omitempty" toml:"label"`
}

// Resolve fills unset credential fields from deployment-wide defaults.
func (c SourceConfig) Resolve(defaults SourceConfig) SourceConfig {
	if c.ClientID == "" {
		c.ClientID = defaults.ClientID
	}
	if c.ClientSecret == "" {
		c.ClientSecret = defaults.ClientSecret
	}
	if c.RedirectURI == "" {
		c.RedirectURI = defaults.RedirectURI
	}
	if c.Render == "" {
		c.Render = RenderMarkdown
	}
	if c.Label == "" {
		c.Label = "INBOX"
	}
	return c
}

// Validate reports whether the connection has everything it needs to reach
// the provider. The email requirement is separate: an unauthorised source has
// credentials but no account yet.
func (c SourceConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURI == "" {
		return fmt.Errorf("%w: client id, secret and redirect uri are required", ErrConfigIncomplete)
	}
	return nil
}

// Complete reports whether the source can open an authorised connection.
func (c SourceConfig) Complete() bool {
	return c.Validate() == nil && c.Email != ""
}

// SourceOption describes one user-configurable setting exposed by the source.
type SourceOption struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Input       string `json:"input"`
	Description string `json:"description,omitempty"`
}

// Descriptor is the data-source metadata surfaced to the host platform.
type Descriptor struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Services      []string       `json:"services"`
	Options       []SourceOption `json:"options"`
	InboundFields map[string]string
}

// SourceDescriptor returns the static metadata for the Gmail source.
func SourceDescriptor() Descriptor {
	return Descriptor{
		ID:       "gmail",
		Name:     "Gmail",
		Services: []string{MessageTypeEmail},
		Options: []SourceOption{
			{Key: "intro_text", Input: "read-only-text",
				Description: "In order to receive posts by gmail, connect your google account above"},
			{Key: "client_id", Label: "Client Id", Input: "text",
				Description: "Add the client id from your Gmail credentials."},
			{Key: "client_secret", Label: "Client Secret", Input: "text",
				Description: "Add the client secret from your Gmail credentials."},
			{Key: "redirect_uri", Label: "Redirect URL", Input: "text"},
		},
		InboundFields: map[string]string{
			"Subject": "text",
			"Date":    "datetime",
			"Message": "text",
		},
	}
}
