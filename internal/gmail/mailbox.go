package gmail

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
	"github.com/crowdvoice-labs/gmailsource/internal/logger"
)

// SyncType selects the mailbox listing strategy.
type SyncType string

const (
	// SyncFull lists messages by label and date filter.
	SyncFull SyncType = "full"
	// SyncPartial lists changes since a history id checkpoint.
	SyncPartial SyncType = "partial"
)

const (
	// defaultLookback bounds the very first full sync when no sync date is
	// known: seven days, matching the provider's history retention window.
	defaultLookbackDays = 7

	// maxBatchFetch bounds one logical batch of per-message detail fetches.
	// List endpoints return stubs without bodies, so every message costs one
	// extra get; grouping keeps a page under the provider's batch ceiling.
	maxBatchFetch = 50

	// batchConcurrency bounds the fan-out within one batch.
	batchConcurrency = 10
)

// Ensure Mailbox implements the mailbox port.
var _ driven.Mailbox = (*Mailbox)(nil)

// Mailbox reads messages from a Gmail account with full or partial sync.
// A query is armed with Full or Partial, executed with All and continued
// with Next; each call yields one finite batch of normalized messages.
// Not safe for concurrent use; one fetch cycle owns the mailbox.
type Mailbox struct {
	svc     *gmailapi.Service
	limiter *RateLimiter

	syncType SyncType
	params   listQuery

	nextPageToken   string
	latestHistoryID uint64
}

// NewMailbox creates a mailbox reader over an authorised Gmail service.
func NewMailbox(svc *gmailapi.Service, limiter *RateLimiter) *Mailbox {
	if limiter == nil {
		limiter = NewRateLimiter()
	}
	return &Mailbox{svc: svc, limiter: limiter, syncType: SyncFull}
}

// SetSyncType switches the listing strategy and resets query parameters.
func (m *Mailbox) SetSyncType(t SyncType) *Mailbox {
	m.syncType = t
	m.params.reset()
	m.nextPageToken = ""
	return m
}

// Full arms a full-sync listing filtered by label and date.
func (m *Mailbox) Full(q driven.MailboxQuery) {
	m.SetSyncType(SyncFull)
	label := q.Label
	if label == "" {
		label = "INBOX"
	}
	m.Label(label)
	after := q.After
	if after.IsZero() {
		after = time.Now().AddDate(0, 0, -defaultLookbackDays)
	}
	m.After(after)
	if q.Max > 0 {
		m.Take(q.Max)
	}
	if q.PageToken != "" {
		m.Page(q.PageToken)
	}
}

// Partial arms a history-based listing of messages added since q.HistoryID.
func (m *Mailbox) Partial(q driven.MailboxQuery) {
	m.SetSyncType(SyncPartial)
	if id, err := strconv.ParseUint(q.HistoryID, 10, 64); err == nil {
		m.History(id)
	}
	m.HistoryTypes("messageAdded")
	if q.Max > 0 {
		m.Take(q.Max)
	}
	if q.PageToken != "" {
		m.Page(q.PageToken)
	}
}

// All executes the armed query and returns the first batch of messages.
func (m *Mailbox) All(ctx context.Context) ([]domain.NormalizedMessage, error) {
	switch m.syncType {
	case SyncPartial:
		return m.listHistory(ctx)
	default:
		return m.listMessages(ctx)
	}
}

// HasNextPage reports whether the last response carried a page token.
func (m *Mailbox) HasNextPage() bool {
	return m.nextPageToken != ""
}

// Next re-issues the same query type with the stored page token.
func (m *Mailbox) Next(ctx context.Context) ([]domain.NormalizedMessage, error) {
	m.params.pageToken = m.nextPageToken
	return m.All(ctx)
}

// LatestHistoryID is the newest change-log position observed in the most
// recent response, empty until one is known.
func (m *Mailbox) LatestHistoryID() string {
	if m.latestHistoryID == 0 {
		return ""
	}
	return strconv.FormatUint(m.latestHistoryID, 10)
}

// PageToken is the most recent response's next-page token.
func (m *Mailbox) PageToken() string {
	return m.nextPageToken
}

// listMessages performs one page of a full sync.
func (m *Mailbox) listMessages(ctx context.Context) ([]domain.NormalizedMessage, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := m.svc.Users.Messages.List(authenticatedUser).Context(ctx)
	if len(m.params.labelIDs) > 0 {
		call = call.LabelIds(m.params.labelIDs...)
	}
	if q := m.params.query(); q != "" {
		call = call.Q(q)
	}
	if m.params.maxResults > 0 {
		call = call.MaxResults(m.params.maxResults)
	}
	if m.params.pageToken != "" {
		call = call.PageToken(m.params.pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	m.nextPageToken = resp.NextPageToken

	ids := make([]string, 0, len(resp.Messages))
	for _, stub := range resp.Messages {
		ids = append(ids, stub.Id)
	}

	mails := m.fetchAll(ctx, ids)

	// An empty mailbox still needs a checkpoint to enable partial sync next
	// cycle; the profile carries the current history id.
	if m.latestHistoryID == 0 && len(mails) == 0 {
		if _, historyID, err := GetProfile(ctx, m.svc); err == nil {
			m.latestHistoryID = historyID
		}
	}
	return mails, nil
}

// listHistory performs one page of a partial sync.
func (m *Mailbox) listHistory(ctx context.Context) ([]domain.NormalizedMessage, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := m.svc.Users.History.List(authenticatedUser).
		Context(ctx).
		StartHistoryId(m.params.startHistoryID)
	if len(m.params.historyTypes) > 0 {
		call = call.HistoryTypes(m.params.historyTypes...)
	}
	if m.params.maxResults > 0 {
		call = call.MaxResults(m.params.maxResults)
	}
	if m.params.pageToken != "" {
		call = call.PageToken(m.params.pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", wrapHistoryError(err))
	}
	m.nextPageToken = resp.NextPageToken
	if resp.HistoryId > m.latestHistoryID {
		m.latestHistoryID = resp.HistoryId
	}

	seen := make(map[string]bool)
	var ids []string
	for _, record := range resp.History {
		if record.Id > m.latestHistoryID {
			m.latestHistoryID = record.Id
		}
		for _, added := range record.MessagesAdded {
			if added.Message == nil || seen[added.Message.Id] {
				continue
			}
			seen[added.Message.Id] = true
			ids = append(ids, added.Message.Id)
		}
	}

	return m.fetchAll(ctx, ids), nil
}

// fetchAll resolves message stubs to full messages in bounded batches.
// A failed message is dropped from the result set and logged; it never
// aborts the batch.
func (m *Mailbox) fetchAll(ctx context.Context, ids []string) []domain.NormalizedMessage {
	var out []domain.NormalizedMessage
	for start := 0; start < len(ids); start += maxBatchFetch {
		end := start + maxBatchFetch
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, m.fetchBatch(ctx, ids[start:end])...)
	}
	return out
}

// fetchBatch fans out one logical batch of detail fetches and joins the
// results, preserving listing order.
func (m *Mailbox) fetchBatch(ctx context.Context, ids []string) []domain.NormalizedMessage {
	results := make([]*domain.NormalizedMessage, len(ids))

	sem := make(chan struct{}, batchConcurrency)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}

		go func(slot int, msgID string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := m.limiter.Wait(ctx); err != nil {
				return
			}
			msg, err := m.svc.Users.Messages.Get(authenticatedUser, msgID).
				Format("full").Context(ctx).Do()
			if err != nil {
				if IsRateLimited(err) {
					m.limiter.RecordRateLimitError(0)
				}
				logger.Warn("gmail: dropping message %s: %v", msgID, err)
				return
			}
			normalized := Normalize(msg)
			results[slot] = &normalized
		}(i, id)
	}
	wg.Wait()

	out := make([]domain.NormalizedMessage, 0, len(ids))
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.HistoryID != "" {
			if id, err := strconv.ParseUint(r.HistoryID, 10, 64); err == nil && id > m.latestHistoryID {
				m.latestHistoryID = id
			}
		}
		out = append(out, *r)
	}
	return out
}
