package gmail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// fakeTokenProvider implements driven.TokenProvider.
type fakeTokenProvider struct {
	token *domain.Token
	err   error
}

func (f *fakeTokenProvider) Token(_ context.Context) (*domain.Token, error) {
	return f.token, f.err
}

func connectConfig() domain.SourceConfig {
	return domain.SourceConfig{
		Email:        "deploy@example.org",
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURI:  "https://x/callback",
	}
}

func TestFactory_Connect(t *testing.T) {
	tokens := &fakeTokenProvider{token: &domain.Token{
		AccessToken: "at",
		ExpiresIn:   3600,
		Created:     time.Now().Unix(),
		Email:       "deploy@example.org",
	}}

	conn, err := NewFactory().Connect(context.Background(), connectConfig(), tokens)

	require.NoError(t, err)
	assert.Equal(t, "deploy@example.org", conn.Email())
}

func TestFactory_Connect_IncompleteConfig(t *testing.T) {
	_, err := NewFactory().Connect(context.Background(), domain.SourceConfig{}, &fakeTokenProvider{})

	assert.ErrorIs(t, err, domain.ErrConfigIncomplete)
}

func TestFactory_Connect_MissingEmail(t *testing.T) {
	cfg := connectConfig()
	cfg.Email = ""

	_, err := NewFactory().Connect(context.Background(), cfg, &fakeTokenProvider{})

	assert.ErrorIs(t, err, domain.ErrConfigIncomplete)
}

func TestFactory_Connect_NoToken(t *testing.T) {
	tokens := &fakeTokenProvider{err: domain.ErrNoToken}

	_, err := NewFactory().Connect(context.Background(), connectConfig(), tokens)

	assert.ErrorIs(t, err, domain.ErrNoToken)
}
