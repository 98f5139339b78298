package models

import (
	"encoding/json"
	"time"
)

type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
	OperationUpload OperationType = "upload"
)

type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueFailed     QueueStatus = "failed"
	QueueCompleted  QueueStatus = "completed"
)

// SyncQueueEntry is a generic outbound mutation waiting to be replayed
// against the backend. Recording uploads do not go through the queue.
type SyncQueueEntry struct {
	ID            string
	OperationType OperationType
	TableName     string
	RecordID      string
	Payload       json.RawMessage
	Attempts      int
	LastAttemptAt *time.Time
	ErrorMessage  *string
	Status        QueueStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
