package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// mockDataSource implements driving.DataSource for testing.
type mockDataSource struct {
	records    []domain.IngestionRecord
	fetchErr   error
	fetchLimit int
	sendStatus domain.MessageStatus
	sentID     string
	sentTo     string
	sentBody   string
	sentTitle  string
}

func (m *mockDataSource) Fetch(_ context.Context, limit int) ([]domain.IngestionRecord, error) {
	m.fetchLimit = limit
	return m.records, m.fetchErr
}

func (m *mockDataSource) Send(_ context.Context, to, message, title string) (domain.MessageStatus, string) {
	m.sentTo = to
	m.sentBody = message
	m.sentTitle = title
	return m.sendStatus, m.sentID
}

func setupFetchTest(source *mockDataSource) func() {
	oldSource := dataSource
	dataSource = source
	return func() {
		dataSource = oldSource
		fetchLimit = 0
		fetchJSON = false
	}
}

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestFetchCmd_Use(t *testing.T) {
	assert.Equal(t, "fetch", fetchCmd.Use)
}

func TestFetchCmd_Short(t *testing.T) {
	assert.Equal(t, "Fetch new messages from the mailbox", fetchCmd.Short)
}

func TestFetchCmd_PrintsRecords(t *testing.T) {
	source := &mockDataSource{
		records: []domain.IngestionRecord{
			{
				From:     "reporter@example.org",
				Title:    "Road blocked",
				Datetime: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
			},
		},
	}
	cleanup := setupFetchTest(source)
	defer cleanup()

	out, err := executeCommand("fetch")

	assert.NoError(t, err)
	assert.Contains(t, out, "Fetched 1 message(s)")
	assert.Contains(t, out, "reporter@example.org")
	assert.Contains(t, out, "Road blocked")
}

func TestFetchCmd_NoMessages(t *testing.T) {
	cleanup := setupFetchTest(&mockDataSource{})
	defer cleanup()

	out, err := executeCommand("fetch")

	assert.NoError(t, err)
	assert.Contains(t, out, "No new messages.")
}

func TestFetchCmd_PassesLimit(t *testing.T) {
	source := &mockDataSource{}
	cleanup := setupFetchTest(source)
	defer cleanup()

	_, err := executeCommand("fetch", "--limit", "25")

	assert.NoError(t, err)
	assert.Equal(t, 25, source.fetchLimit)
}

func TestFetchCmd_JSONOutput(t *testing.T) {
	source := &mockDataSource{
		records: []domain.IngestionRecord{
			{DataSourceMessageID: "msg-1", Message: "hello"},
		},
	}
	cleanup := setupFetchTest(source)
	defer cleanup()

	out, err := executeCommand("fetch", "--json")

	assert.NoError(t, err)
	assert.Contains(t, out, `"data_source_message_id": "msg-1"`)
}

func TestFetchCmd_FetchError(t *testing.T) {
	cleanup := setupFetchTest(&mockDataSource{fetchErr: errors.New("connection lost")})
	defer cleanup()

	_, err := executeCommand("fetch")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fetch failed")
}

func TestFetchCmd_ServiceNotConfigured(t *testing.T) {
	oldSource := dataSource
	dataSource = nil
	defer func() {
		dataSource = oldSource
	}()

	_, err := executeCommand("fetch")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
