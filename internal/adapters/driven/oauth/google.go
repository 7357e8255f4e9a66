// Package oauth adapts Google's OAuth2 endpoints to the core's
// OAuthTransport port.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

const (
	userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	revokeURL   = "https://oauth2.googleapis.com/revoke"
)

// Ensure GoogleTransport implements the port.
var _ driven.OAuthTransport = (*GoogleTransport)(nil)

// GoogleTransport wraps golang.org/x/oauth2 for the Google endpoints.
// The scope is the full mail scope the source was first granted; requesting
// a narrower scope later would silently reduce capabilities.
type GoogleTransport struct {
	config *oauth2.Config
	client *http.Client
}

// NewGoogleTransport builds a transport from explicit app credentials.
func NewGoogleTransport(cfg domain.SourceConfig) *GoogleTransport {
	return &GoogleTransport{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{gmailapi.MailGoogleComScope},
			Endpoint:     google.Endpoint,
		},
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthURL builds the authorization URL with offline access. Without a login
// hint the account chooser is forced so a stale browser session cannot
// silently authorise the wrong account.
func (t *GoogleTransport) AuthURL(loginHint string) (string, string) {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if loginHint == "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "select_account consent"))
	} else {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", loginHint))
	}
	state := generateState()
	return t.config.AuthCodeURL(state, opts...), state
}

// Exchange trades an authorization code for a token.
func (t *GoogleTransport) Exchange(ctx context.Context, code string) (*domain.Token, error) {
	tok, err := t.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthRejected, err)
	}
	return fromOAuthToken(tok), nil
}

// Refresh trades a refresh token for a fresh access token.
func (t *GoogleTransport) Refresh(ctx context.Context, refreshToken string) (*domain.Token, error) {
	src := t.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthRejected, err)
	}
	return fromOAuthToken(tok), nil
}

// Revoke invalidates the token with Google. The refresh token is preferred;
// revoking it invalidates the whole grant.
func (t *GoogleTransport) Revoke(ctx context.Context, token *domain.Token) error {
	target := token.RefreshToken
	if target == "" {
		target = token.AccessToken
	}

	data := url.Values{}
	data.Set("token", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTokenRevoked, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrTokenRevoked, resp.StatusCode)
	}
	return nil
}

// Profile fetches the authenticated account's canonical email address.
func (t *GoogleTransport) Profile(ctx context.Context, token *domain.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var userInfo struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return "", fmt.Errorf("decode user info: %w", err)
	}
	if userInfo.Email == "" {
		return "", fmt.Errorf("user info carried no email address")
	}
	return userInfo.Email, nil
}

// fromOAuthToken converts an oauth2 token into the domain record, stamping
// issue time and lifetime so the expiry invariant holds across restarts.
func fromOAuthToken(tok *oauth2.Token) *domain.Token {
	now := time.Now()
	expiresIn := int64(0)
	if !tok.Expiry.IsZero() {
		expiresIn = tok.Expiry.Unix() - now.Unix()
	}

	scope, _ := tok.Extra("scope").(string)

	return &domain.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
		Created:      now.Unix(),
		TokenType:    tok.TokenType,
		Scope:        scope,
	}
}

// generateState creates a random state parameter for CSRF protection.
func generateState() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "state"
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
