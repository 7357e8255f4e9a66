package domain

import "time"

// Message type and contact type reported to the ingestion pipeline.
const (
	MessageTypeEmail = "email"
	ContactTypeEmail = "email"
)

// MessageStatus is the outcome of an outbound send.
type MessageStatus string

const (
	MessageSent   MessageStatus = "sent"
	MessageFailed MessageStatus = "failed"
)

// IngestionRecord is the outbound record handed to the ingestion pipeline
// for one normalized message. Records with an empty Message are dropped
// before they are returned.
type IngestionRecord struct {
	Type                string         `json:"type"`
	ContactType         string         `json:"contact_type"`
	From                string         `json:"from"`
	To                  string         `json:"to"`
	Message             string         `json:"message"`
	Title               string         `json:"title"`
	Datetime            time.Time      `json:"datetime"`
	DataSourceMessageID string         `json:"data_source_message_id"`
	AdditionalData      AdditionalData `json:"additional_data"`
}

// AdditionalData carries provider metadata alongside an ingestion record.
type AdditionalData struct {
	ThreadID  string `json:"thread_id"`
	HistoryID string `json:"history_id"`
}

// OutgoingMail describes one message to be sent through the mailbox.
type OutgoingMail struct {
	Subject  string
	From     string
	To       string
	Body     string
	ThreadID string
}

// SendReceipt is the provider acknowledgement for a sent message.
// ID is the provider-assigned message id and must be present on success.
type SendReceipt struct {
	ID       string
	ThreadID string
}
