package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// fakeTransport implements driven.OAuthTransport with injectable behaviour.
type fakeTransport struct {
	authURLHint  string
	exchangeTok  *domain.Token
	exchangeErr  error
	refreshTok   *domain.Token
	refreshErr   error
	refreshCalls int
	revokeErr    error
	revokeCalls  int
	profileEmail string
	profileErr   error
}

func (f *fakeTransport) AuthURL(loginHint string) (string, string) {
	f.authURLHint = loginHint
	return "https://auth.example.org/?hint=" + loginHint, "state-1"
}

func (f *fakeTransport) Exchange(_ context.Context, _ string) (*domain.Token, error) {
	return f.exchangeTok, f.exchangeErr
}

func (f *fakeTransport) Refresh(_ context.Context, _ string) (*domain.Token, error) {
	f.refreshCalls++
	return f.refreshTok, f.refreshErr
}

func (f *fakeTransport) Revoke(_ context.Context, _ *domain.Token) error {
	f.revokeCalls++
	return f.revokeErr
}

func (f *fakeTransport) Profile(_ context.Context, _ *domain.Token) (string, error) {
	return f.profileEmail, f.profileErr
}

// memTokenStore is an in-memory driven.TokenStore.
type memTokenStore struct {
	tokens  map[string]*domain.Token
	saveErr error
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]*domain.Token)}
}

func (s *memTokenStore) Get(_ context.Context, email string) (*domain.Token, error) {
	tok, ok := s.tokens[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *tok
	return &copied, nil
}

func (s *memTokenStore) Save(_ context.Context, token *domain.Token) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := *token
	s.tokens[token.Email] = &copied
	return nil
}

func (s *memTokenStore) Delete(_ context.Context, email string) error {
	delete(s.tokens, email)
	return nil
}

func freshToken(email string) *domain.Token {
	return &domain.Token{
		AccessToken:  "at-fresh",
		RefreshToken: "rt",
		ExpiresIn:    3600,
		Created:      time.Now().Unix(),
		Email:        email,
	}
}

func expiredToken(email string) *domain.Token {
	return &domain.Token{
		AccessToken:  "at-stale",
		RefreshToken: "rt",
		ExpiresIn:    3600,
		Created:      time.Now().Add(-2 * time.Hour).Unix(),
		Email:        email,
	}
}

func TestAuthSession_Authorize(t *testing.T) {
	transport := &fakeTransport{
		exchangeTok:  &domain.Token{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600, Created: time.Now().Unix()},
		profileEmail: "canonical@example.org",
	}
	store := newMemTokenStore()
	session := NewAuthSession(transport, store, "")

	token, err := session.Authorize(context.Background(), "code-1")

	require.NoError(t, err)
	assert.Equal(t, "canonical@example.org", token.Email)
	assert.Equal(t, "canonical@example.org", session.Email())

	saved, err := store.Get(context.Background(), "canonical@example.org")
	require.NoError(t, err)
	assert.Equal(t, "at", saved.AccessToken)
}

func TestAuthSession_Authorize_ExchangeRejected(t *testing.T) {
	transport := &fakeTransport{exchangeErr: domain.ErrAuthRejected}
	session := NewAuthSession(transport, newMemTokenStore(), "")

	_, err := session.Authorize(context.Background(), "bad-code")

	assert.ErrorIs(t, err, domain.ErrAuthRejected)
}

func TestAuthSession_Token_NoToken(t *testing.T) {
	session := NewAuthSession(&fakeTransport{}, newMemTokenStore(), "a@b.org")

	_, err := session.Token(context.Background())

	assert.ErrorIs(t, err, domain.ErrNoToken)
}

func TestAuthSession_Token_ValidNotRefreshed(t *testing.T) {
	transport := &fakeTransport{}
	store := newMemTokenStore()
	require.NoError(t, store.Save(context.Background(), freshToken("a@b.org")))
	session := NewAuthSession(transport, store, "a@b.org")

	token, err := session.Token(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "at-fresh", token.AccessToken)
	assert.Zero(t, transport.refreshCalls)
}

func TestAuthSession_Token_RefreshesExpired(t *testing.T) {
	transport := &fakeTransport{
		// Provider omits the refresh token on refresh responses.
		refreshTok: &domain.Token{AccessToken: "at-new", ExpiresIn: 3600, Created: time.Now().Unix()},
	}
	store := newMemTokenStore()
	require.NoError(t, store.Save(context.Background(), expiredToken("a@b.org")))
	session := NewAuthSession(transport, store, "a@b.org")

	token, err := session.Token(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "at-new", token.AccessToken)
	assert.Equal(t, "rt", token.RefreshToken, "original refresh token preserved")
	assert.Equal(t, "a@b.org", token.Email)

	saved, err := store.Get(context.Background(), "a@b.org")
	require.NoError(t, err)
	assert.Equal(t, "at-new", saved.AccessToken)
}

func TestAuthSession_Token_NoRefreshTokenReturnsStale(t *testing.T) {
	store := newMemTokenStore()
	stale := expiredToken("a@b.org")
	stale.RefreshToken = ""
	require.NoError(t, store.Save(context.Background(), stale))
	session := NewAuthSession(&fakeTransport{}, store, "a@b.org")

	token, err := session.Token(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "at-stale", token.AccessToken)
}

func TestAuthSession_Token_RefreshFailureReturnsStale(t *testing.T) {
	transport := &fakeTransport{refreshErr: errors.New("provider down")}
	store := newMemTokenStore()
	require.NoError(t, store.Save(context.Background(), expiredToken("a@b.org")))
	session := NewAuthSession(transport, store, "a@b.org")

	token, err := session.Token(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "at-stale", token.AccessToken)
	assert.Equal(t, 1, transport.refreshCalls)
}

func TestAuthSession_IsExpired(t *testing.T) {
	store := newMemTokenStore()
	session := NewAuthSession(&fakeTransport{}, store, "a@b.org")

	assert.True(t, session.IsExpired(context.Background()), "no token")

	require.NoError(t, store.Save(context.Background(), expiredToken("a@b.org")))
	assert.True(t, session.IsExpired(context.Background()))

	require.NoError(t, store.Save(context.Background(), freshToken("a@b.org")))
	assert.False(t, session.IsExpired(context.Background()))
}

func TestAuthSession_Unauthorize_DeletesDespiteRevokeFailure(t *testing.T) {
	transport := &fakeTransport{revokeErr: errors.New("revoke endpoint down")}
	store := newMemTokenStore()
	require.NoError(t, store.Save(context.Background(), freshToken("a@b.org")))
	session := NewAuthSession(transport, store, "a@b.org")

	err := session.Unauthorize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, transport.revokeCalls)
	_, err = store.Get(context.Background(), "a@b.org")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthSession_AuthURL_DefaultsToSessionEmail(t *testing.T) {
	transport := &fakeTransport{}
	session := NewAuthSession(transport, newMemTokenStore(), "a@b.org")

	_, state := session.AuthURL("")
	assert.Equal(t, "a@b.org", transport.authURLHint)
	assert.Equal(t, "state-1", state)

	session.AuthURL("other@b.org")
	assert.Equal(t, "other@b.org", transport.authURLHint)
}
