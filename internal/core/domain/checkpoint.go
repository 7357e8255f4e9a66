package domain

import "time"

// SyncCheckpoint is the persisted sync state for one configured mailbox
// connection. It is loaded at the start of each fetch cycle, mutated in
// memory and written back once at the end.
//
// The checkpoint carries history id, timestamp and page token together: the
// history id alone cannot resume a full sync that started before any history
// existed.
type SyncCheckpoint struct {
	// LastHistoryID is the provider change-log position from the last sync.
	// When set, the next cycle attempts a partial (history-based) sync.
	LastHistoryID string `json:"last_history_id,omitempty"`
	// LastSyncDate is when the last successful fetch cycle completed.
	LastSyncDate time.Time `json:"last_sync_date,omitempty"`
	// FirstSyncDate bounds the very first full sync; set at authorisation time.
	FirstSyncDate time.Time `json:"first_sync_date,omitempty"`
	// NextPageToken resumes a paginated listing across cycles.
	NextPageToken string `json:"next_page_token,omitempty"`
}

// HasHistory reports whether a partial sync can be attempted.
func (c *SyncCheckpoint) HasHistory() bool {
	return c.LastHistoryID != ""
}

// SyncedAfter returns the lower time bound for a full sync: the last sync
// date when present, else the first sync date. The zero time means no bound
// is known and the mailbox default lookback applies.
func (c *SyncCheckpoint) SyncedAfter() time.Time {
	if !c.LastSyncDate.IsZero() {
		return c.LastSyncDate
	}
	return c.FirstSyncDate
}
