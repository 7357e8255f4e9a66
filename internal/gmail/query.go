package gmail

import (
	"fmt"
	"strings"
	"time"
)

// listQuery accumulates the parameters for one mailbox listing.
// It backs both the message list endpoint (labels, q, paging) and the
// history endpoint (start id, history types).
type listQuery struct {
	labelIDs       []string
	filters        []string
	maxResults     int64
	pageToken      string
	startHistoryID uint64
	historyTypes   []string
}

func (q *listQuery) reset() {
	*q = listQuery{}
}

// q joins the accumulated free-text filters into the `q` parameter.
func (q *listQuery) query() string {
	return strings.Join(q.filters, " ")
}

// Take caps the number of messages returned per page.
func (m *Mailbox) Take(n int64) *Mailbox {
	m.params.maxResults = n
	return m
}

// Page resumes the listing from a page token.
func (m *Mailbox) Page(token string) *Mailbox {
	m.params.pageToken = token
	return m
}

// History sets the change-log position a partial sync resumes from.
func (m *Mailbox) History(id uint64) *Mailbox {
	m.params.startHistoryID = id
	return m
}

// HistoryTypes restricts a partial sync to the given history record types.
func (m *Mailbox) HistoryTypes(types ...string) *Mailbox {
	m.params.historyTypes = append(m.params.historyTypes, types...)
	return m
}

// Filter appends a free-text term to the `q` search parameter.
func (m *Mailbox) Filter(term string) *Mailbox {
	m.params.filters = append(m.params.filters, term)
	return m
}

// Label restricts the listing to the given label ids, e.g. INBOX, UNREAD,
// SPAM, STARRED, IMPORTANT.
func (m *Mailbox) Label(labels ...string) *Mailbox {
	m.params.labelIDs = append(m.params.labelIDs, labels...)
	return m
}

// After keeps only messages received after the given instant.
func (m *Mailbox) After(t time.Time) *Mailbox {
	return m.Filter(fmt.Sprintf("after:%d", t.Unix()))
}

// Before keeps only messages received before the given instant.
func (m *Mailbox) Before(t time.Time) *Mailbox {
	return m.Filter(fmt.Sprintf("before:%d", t.Unix()))
}

// From keeps only messages from the given address.
func (m *Mailbox) From(email string) *Mailbox {
	return m.Filter("from:" + email)
}

// To keeps only messages addressed to the given address.
func (m *Mailbox) To(email string) *Mailbox {
	return m.Filter("to:" + email)
}

// In restricts the listing to a box: inbox, starred, spam, sent, draft, trash.
func (m *Mailbox) In(box string) *Mailbox {
	return m.Filter("in:" + box)
}

// IsUnread keeps only unread messages.
func (m *Mailbox) IsUnread() *Mailbox {
	return m.Filter("is:unread")
}

// HasAttachment keeps only messages with attachments.
func (m *Mailbox) HasAttachment() *Mailbox {
	return m.Filter("has:attachment")
}
