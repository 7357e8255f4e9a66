package domain

import "time"

// Token holds the OAuth credentials for a single mailbox account.
// It mirrors the provider's token response with the owning account's email
// stamped on after the profile lookup.
type Token struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens. May be empty when the
	// provider did not grant offline access.
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
	// Created is the Unix timestamp at which the token was issued.
	Created int64 `json:"created"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`
	// Scope is the space-separated granted scope set.
	Scope string `json:"scope,omitempty"`
	// Email is the canonical account address the token belongs to.
	// Token stores key on this field.
	Email string `json:"email,omitempty"`
}

// ExpiresAt returns the instant at which the access token expires.
func (t *Token) ExpiresAt() time.Time {
	return time.Unix(t.Created+t.ExpiresIn, 0)
}

// ExpiredAt reports whether the token is expired at the given instant.
// A token is expired once created + expires_in has been reached.
func (t *Token) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt())
}

// IsExpired reports whether the token is expired now.
func (t *Token) IsExpired() bool {
	return t.ExpiredAt(time.Now())
}

// HasRefreshToken reports whether a refresh token is available.
func (t *Token) HasRefreshToken() bool {
	return t.RefreshToken != ""
}
