package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driving"
	"github.com/crowdvoice-labs/gmailsource/internal/logger"
)

// DefaultFetchLimit caps one fetch cycle when the caller passes no limit.
const DefaultFetchLimit = 200

// Ensure SyncCoordinator implements the data-source port.
var _ driving.DataSource = (*SyncCoordinator)(nil)

// SyncCoordinator orchestrates one mailbox connection across fetch cycles:
// token lifecycle, full-or-partial sync choice, pagination, checkpointing
// and mapping into ingestion records. Callers serialise Fetch per source
// (a job-uniqueness key in the host scheduler); the coordinator itself
// assumes one cycle at a time.
type SyncCoordinator struct {
	sourceID    string
	config      domain.SourceConfig
	auth        *AuthSession
	checkpoints driven.CheckpointStore
	factory     driven.ConnectionFactory
	renderer    driven.BodyRenderer
}

// NewSyncCoordinator wires a coordinator from explicit collaborators.
// The config should already be resolved against deployment defaults.
func NewSyncCoordinator(
	sourceID string,
	cfg domain.SourceConfig,
	auth *AuthSession,
	checkpoints driven.CheckpointStore,
	factory driven.ConnectionFactory,
	renderer driven.BodyRenderer,
) *SyncCoordinator {
	return &SyncCoordinator{
		sourceID:    sourceID,
		config:      cfg,
		auth:        auth,
		checkpoints: checkpoints,
		factory:     factory,
		renderer:    renderer,
	}
}

// Descriptor returns the data-source metadata for the host platform.
func (c *SyncCoordinator) Descriptor() domain.Descriptor {
	return domain.SourceDescriptor()
}

// Fetch runs one sync cycle and returns ingestion records ordered by
// ascending datetime. A misconfigured source returns an empty slice: one
// broken source must not halt a multi-source ingestion run.
func (c *SyncCoordinator) Fetch(ctx context.Context, limit int) ([]domain.IngestionRecord, error) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}

	checkpoint := c.loadCheckpoint(ctx)

	conn := c.connect(ctx)
	if conn == nil {
		return []domain.IngestionRecord{}, nil
	}

	mailbox := conn.Mailbox()

	var (
		mails []domain.NormalizedMessage
		err   error
	)
	if checkpoint.HasHistory() {
		mails, err = c.partialSync(ctx, mailbox, checkpoint, limit)
	} else {
		mails, err = c.fullSync(ctx, mailbox, checkpoint, limit)
	}
	if err != nil {
		return nil, err
	}

	// Drain remaining pages up to the limit.
	for mailbox.HasNextPage() && len(mails) < limit {
		more, err := mailbox.Next(ctx)
		if err != nil {
			return nil, err
		}
		mails = append(mails, more...)
	}

	// Checkpoint fields come from the most recent response, not an
	// intermediate page.
	if id := mailbox.LatestHistoryID(); id != "" {
		checkpoint.LastHistoryID = id
	}
	checkpoint.NextPageToken = mailbox.PageToken()
	checkpoint.LastSyncDate = time.Now()

	records := c.mapRecords(mails)

	if err := c.checkpoints.Save(ctx, c.sourceID, *checkpoint); err != nil {
		return nil, err
	}
	return records, nil
}

// Send delivers one outbound message. Provider failures are logged and
// reported as a failed status so the caller's queue can retry without the
// job crashing.
func (c *SyncCoordinator) Send(ctx context.Context, to, message, title string) (domain.MessageStatus, string) {
	conn := c.connect(ctx)
	if conn == nil {
		return domain.MessageFailed, ""
	}

	from := c.config.Email
	if from == "" {
		from = c.auth.Email()
	}

	receipt, err := conn.Mailer().Send(ctx, domain.OutgoingMail{
		Subject: title,
		From:    from,
		To:      to,
		Body:    message,
	})
	if err != nil {
		logger.Error("gmail: send to %s failed: %v", to, err)
		return domain.MessageFailed, ""
	}
	return domain.MessageSent, receipt.ID
}

// loadCheckpoint reads the persisted sync state, starting fresh when none
// exists yet.
func (c *SyncCoordinator) loadCheckpoint(ctx context.Context) *domain.SyncCheckpoint {
	checkpoint, err := c.checkpoints.Get(ctx, c.sourceID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("sync: loading checkpoint for %s: %v", c.sourceID, err)
		}
		return &domain.SyncCheckpoint{}
	}
	return checkpoint
}

// connect opens an authorised connection, or nil when the source is not
// usable. The failure is deliberately non-fatal.
func (c *SyncCoordinator) connect(ctx context.Context) driven.Connection {
	if !c.config.Complete() {
		logger.Warn("gmail: could not connect, incomplete config")
		return nil
	}
	conn, err := c.factory.Connect(ctx, c.config, c.auth)
	if err != nil {
		logger.Warn("gmail: could not connect: %v", err)
		return nil
	}
	return conn
}

// fullSync lists messages by label and date filter derived from the
// checkpoint, resuming from a persisted page token when the previous cycle
// stopped mid-listing.
func (c *SyncCoordinator) fullSync(ctx context.Context, mailbox driven.Mailbox, cp *domain.SyncCheckpoint, limit int) ([]domain.NormalizedMessage, error) {
	mailbox.Full(driven.MailboxQuery{
		Label:     c.config.Label,
		After:     cp.SyncedAfter(),
		Max:       int64(limit),
		PageToken: c.consumePageToken(cp),
	})
	return mailbox.All(ctx)
}

// partialSync lists changes since the history checkpoint. An invalid or
// expired history id is the documented recovery path for the provider's
// history API: fall back to a full sync with identical parameters.
func (c *SyncCoordinator) partialSync(ctx context.Context, mailbox driven.Mailbox, cp *domain.SyncCheckpoint, limit int) ([]domain.NormalizedMessage, error) {
	mailbox.Partial(driven.MailboxQuery{
		HistoryID: cp.LastHistoryID,
		Max:       int64(limit),
		PageToken: c.consumePageToken(cp),
	})

	mails, err := mailbox.All(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrHistoryInvalid) {
			logger.Info("sync: history checkpoint %s invalid, falling back to full sync", cp.LastHistoryID)
			return c.fullSync(ctx, mailbox, cp, limit)
		}
		return nil, err
	}
	return mails, nil
}

// consumePageToken takes the checkpoint's resume token, clearing it so the
// fallback from partial to full sync cannot replay a token that belonged to
// the other listing.
func (c *SyncCoordinator) consumePageToken(cp *domain.SyncCheckpoint) string {
	token := cp.NextPageToken
	cp.NextPageToken = ""
	return token
}

// mapRecords converts normalized messages into ingestion records, dropping
// messages whose rendered body is empty and ordering the rest by ascending
// datetime.
func (c *SyncCoordinator) mapRecords(mails []domain.NormalizedMessage) []domain.IngestionRecord {
	records := make([]domain.IngestionRecord, 0, len(mails))
	for i := range mails {
		mail := &mails[i]
		if !mail.HasBody() {
			continue
		}
		body := c.renderer.Render(c.config.Render, mail)
		if body == "" {
			continue
		}
		records = append(records, domain.IngestionRecord{
			Type:                domain.MessageTypeEmail,
			ContactType:         domain.ContactTypeEmail,
			From:                domain.ExtractEmail(mail.From),
			To:                  domain.ExtractEmail(mail.To),
			Message:             body,
			Title:               mail.Subject,
			Datetime:            mail.Date,
			DataSourceMessageID: mail.ID,
			AdditionalData: domain.AdditionalData{
				ThreadID:  mail.ThreadID,
				HistoryID: mail.HistoryID,
			},
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Datetime.Before(records[j].Datetime)
	})
	return records
}
