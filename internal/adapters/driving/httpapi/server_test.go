package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// fakeAuthFlow implements driving.AuthFlow.
type fakeAuthFlow struct {
	authorizeErr   error
	unauthorizeErr error
	unauthorized   bool
}

func (f *fakeAuthFlow) AuthURL(loginHint string) (string, string) {
	return "https://auth.example.org/?hint=" + loginHint, "state-1"
}

func (f *fakeAuthFlow) Authorize(_ context.Context, code string) (*domain.Token, error) {
	if f.authorizeErr != nil {
		return nil, f.authorizeErr
	}
	return &domain.Token{AccessToken: "at", Email: "a@b.org"}, nil
}

func (f *fakeAuthFlow) Unauthorize(_ context.Context) error {
	f.unauthorized = true
	return f.unauthorizeErr
}

// fakeDataSource implements driving.DataSource.
type fakeDataSource struct {
	records  []domain.IngestionRecord
	fetchErr error
	status   domain.MessageStatus
	sentID   string
}

func (f *fakeDataSource) Fetch(_ context.Context, _ int) ([]domain.IngestionRecord, error) {
	return f.records, f.fetchErr
}

func (f *fakeDataSource) Send(_ context.Context, _, _, _ string) (domain.MessageStatus, string) {
	return f.status, f.sentID
}

// memCheckpointStore is an in-memory driven.CheckpointStore.
type memCheckpointStore struct {
	checkpoints map[string]domain.SyncCheckpoint
	saveErr     error
}

func newMemCheckpointStore() *memCheckpointStore {
	return &memCheckpointStore{checkpoints: make(map[string]domain.SyncCheckpoint)}
}

func (s *memCheckpointStore) Get(_ context.Context, sourceID string) (*domain.SyncCheckpoint, error) {
	cp, ok := s.checkpoints[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cp, nil
}

func (s *memCheckpointStore) Save(_ context.Context, sourceID string, cp domain.SyncCheckpoint) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.checkpoints[sourceID] = cp
	return nil
}

func (s *memCheckpointStore) Delete(_ context.Context, sourceID string) error {
	delete(s.checkpoints, sourceID)
	return nil
}

func newTestServer(auth *fakeAuthFlow, source *fakeDataSource, checkpoints *memCheckpointStore) http.Handler {
	return NewServer("gmail", auth, source, checkpoints).Handler()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleDescriptor(t *testing.T) {
	handler := newTestServer(&fakeAuthFlow{}, &fakeDataSource{}, newMemCheckpointStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gmail", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "gmail", body["id"])
}

func TestHandleInitialize(t *testing.T) {
	handler := newTestServer(&fakeAuthFlow{}, &fakeDataSource{}, newMemCheckpointStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gmail/initialize?email=a@b.org", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "https://auth.example.org/?hint=a@b.org", body["auth_url"])
	assert.Equal(t, "state-1", body["state"])
}

func TestHandleAuthorize(t *testing.T) {
	checkpoints := newMemCheckpointStore()
	handler := newTestServer(&fakeAuthFlow{}, &fakeDataSource{}, checkpoints)

	payload := `{"code":"abc","date":"2026-01-01T00:00:00Z"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/authorize", strings.NewReader(payload)))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "a@b.org", body["email"])
	assert.Equal(t, true, body["authenticated"])

	cp := checkpoints.checkpoints["gmail"]
	assert.True(t, cp.FirstSyncDate.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestHandleAuthorize_DefaultsFirstSyncToNow(t *testing.T) {
	checkpoints := newMemCheckpointStore()
	handler := newTestServer(&fakeAuthFlow{}, &fakeDataSource{}, checkpoints)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/authorize", strings.NewReader(`{"code":"abc"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	cp := checkpoints.checkpoints["gmail"]
	assert.WithinDuration(t, time.Now(), cp.FirstSyncDate, 5*time.Second)
}

func TestHandleAuthorize_MissingCode(t *testing.T) {
	handler := newTestServer(&fakeAuthFlow{}, &fakeDataSource{}, newMemCheckpointStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/authorize", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAuthorize_ProviderRejects(t *testing.T) {
	handler := newTestServer(&fakeAuthFlow{authorizeErr: domain.ErrAuthRejected}, &fakeDataSource{}, newMemCheckpointStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/authorize", strings.NewReader(`{"code":"bad"}`)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleUnauthorize(t *testing.T) {
	auth := &fakeAuthFlow{}
	handler := newTestServer(auth, &fakeDataSource{}, newMemCheckpointStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/unauthorize", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, auth.unauthorized)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["authenticated"])
}

func TestHandleFetch(t *testing.T) {
	source := &fakeDataSource{
		records: []domain.IngestionRecord{{DataSourceMessageID: "1", Message: "hi"}},
	}
	handler := newTestServer(&fakeAuthFlow{}, source, newMemCheckpointStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/fetch", strings.NewReader(`{"limit":5}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

func TestHandleFetch_EmptyResultIsArray(t *testing.T) {
	handler := newTestServer(&fakeAuthFlow{}, &fakeDataSource{}, newMemCheckpointStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/fetch", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"records":[]`)
}

func TestHandleFetch_Error(t *testing.T) {
	handler := newTestServer(&fakeAuthFlow{}, &fakeDataSource{fetchErr: errors.New("boom")}, newMemCheckpointStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/fetch", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleSend(t *testing.T) {
	source := &fakeDataSource{status: domain.MessageSent, sentID: "sent-1"}
	handler := newTestServer(&fakeAuthFlow{}, source, newMemCheckpointStore())

	payload := `{"to":"x@b.org","message":"hello","title":"subject"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/send", strings.NewReader(payload)))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "sent", body["status"])
	assert.Equal(t, "sent-1", body["message_id"])
}

func TestHandleSend_MissingRecipient(t *testing.T) {
	handler := newTestServer(&fakeAuthFlow{}, &fakeDataSource{}, newMemCheckpointStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/send", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
