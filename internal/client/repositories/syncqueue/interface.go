// Package syncqueue is a durable outbox of generic record mutations
// (create, update, delete, upload) waiting to be replayed to the backend.
//
// Recording uploads are driven by the recordings table itself and do not use
// this queue; it exists for future entity sync.
package syncqueue

import (
	"context"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
)

type Repository interface {
	Enqueue(ctx context.Context, op models.OperationType, table, recordID string, payload any) (*models.SyncQueueEntry, error)
	// ClaimNext marks the oldest pending entry as processing and returns it.
	// It returns common.ErrNotFound when nothing is pending.
	ClaimNext(ctx context.Context) (*models.SyncQueueEntry, error)
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id, message string) error
	ListPending(ctx context.Context) ([]models.SyncQueueEntry, error)
}
