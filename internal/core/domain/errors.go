package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfigIncomplete indicates required source credentials are missing
	// (client id/secret, redirect URI or account email). Background sync treats
	// this as non-fatal and returns an empty result set.
	ErrConfigIncomplete = errors.New("incomplete source configuration")

	// Authentication errors.

	// ErrNoToken indicates no stored token exists for the account.
	ErrNoToken = errors.New("no token credentials found")

	// ErrAuthRejected indicates the provider rejected a code exchange or
	// refresh. Surfaced to interactive callers so they can re-authorise.
	ErrAuthRejected = errors.New("authorization rejected by provider")

	// ErrTokenRevoked indicates the provider refused to revoke a token.
	// Local deletion proceeds regardless.
	ErrTokenRevoked = errors.New("token revocation failed")

	// Sync errors.

	// ErrHistoryInvalid indicates the partial-sync history checkpoint is too
	// old or unknown to the provider. Recovered by falling back to full sync.
	ErrHistoryInvalid = errors.New("history checkpoint invalid")

	// ErrDecode indicates a message body could not be decoded. The message is
	// treated as empty and filtered out downstream.
	ErrDecode = errors.New("body decode failed")

	// ErrRateLimited indicates the provider API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
