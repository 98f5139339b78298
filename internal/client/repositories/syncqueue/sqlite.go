package syncqueue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/dmitrijs2005/journeykeeper/internal/common"
	"github.com/dmitrijs2005/journeykeeper/internal/dbx"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type entryRow struct {
	ID            string         `db:"id"`
	OperationType string         `db:"operation_type"`
	TableName     string         `db:"table_name"`
	RecordID      string         `db:"record_id"`
	Payload       string         `db:"payload"`
	Attempts      int            `db:"attempts"`
	LastAttemptAt sql.NullInt64  `db:"last_attempt_at"`
	ErrorMessage  sql.NullString `db:"error_message"`
	Status        string         `db:"status"`
	CreatedAt     int64          `db:"created_at"`
	UpdatedAt     int64          `db:"updated_at"`
}

func (r entryRow) toModel() models.SyncQueueEntry {
	return models.SyncQueueEntry{
		ID:            r.ID,
		OperationType: models.OperationType(r.OperationType),
		TableName:     r.TableName,
		RecordID:      r.RecordID,
		Payload:       json.RawMessage(r.Payload),
		Attempts:      r.Attempts,
		LastAttemptAt: dbx.TimePtr(r.LastAttemptAt),
		ErrorMessage:  dbx.StringPtr(r.ErrorMessage),
		Status:        models.QueueStatus(r.Status),
		CreatedAt:     dbx.FromMillis(r.CreatedAt),
		UpdatedAt:     dbx.FromMillis(r.UpdatedAt),
	}
}

type SQLiteRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

var _ Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) Enqueue(ctx context.Context, op models.OperationType, table, recordID string, payload any) (*models.SyncQueueEntry, error) {
	switch op {
	case models.OperationCreate, models.OperationUpdate, models.OperationDelete, models.OperationUpload:
	default:
		return nil, fmt.Errorf("%w: operation %q", common.ErrInvalidArgument, op)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	now := r.now().UTC().Truncate(time.Millisecond)
	e := &models.SyncQueueEntry{
		ID:            uuid.NewString(),
		OperationType: op,
		TableName:     table,
		RecordID:      recordID,
		Payload:       body,
		Status:        models.QueuePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sync_queue (id, operation_type, table_name, record_id, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(op), table, recordID, string(body), string(e.Status), dbx.Millis(now), dbx.Millis(now))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue %s %s/%s: %w", op, table, recordID, err)
	}
	return e, nil
}

func (r *SQLiteRepository) ClaimNext(ctx context.Context) (*models.SyncQueueEntry, error) {
	var out models.SyncQueueEntry
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var row entryRow
		err := sqlx.GetContext(ctx, tx, &row, `
			SELECT * FROM sync_queue WHERE status = ?
			 ORDER BY created_at ASC, rowid ASC LIMIT 1`, string(models.QueuePending))
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to select next queue entry: %w", err)
		}

		now := r.now()
		_, err = tx.ExecContext(ctx, `
			UPDATE sync_queue SET status = ?, attempts = attempts + 1, last_attempt_at = ?, updated_at = ?
			 WHERE id = ?`,
			string(models.QueueProcessing), dbx.Millis(now), dbx.Millis(now), row.ID)
		if err != nil {
			return fmt.Errorf("failed to claim queue entry %s: %w", row.ID, err)
		}

		row.Status = string(models.QueueProcessing)
		row.Attempts++
		row.LastAttemptAt = sql.NullInt64{Int64: dbx.Millis(now), Valid: true}
		row.UpdatedAt = dbx.Millis(now)
		out = row.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SQLiteRepository) setStatus(ctx context.Context, id string, status models.QueueStatus, message *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), dbx.NullString(message), dbx.Millis(r.now()), id)
	if err != nil {
		return fmt.Errorf("failed to set queue entry %s to %s: %w", id, status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Complete(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.QueueCompleted, nil)
}

func (r *SQLiteRepository) Fail(ctx context.Context, id, message string) error {
	return r.setStatus(ctx, id, models.QueueFailed, &message)
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]models.SyncQueueEntry, error) {
	var rows []entryRow
	err := sqlx.SelectContext(ctx, r.db, &rows,
		`SELECT * FROM sync_queue WHERE status = ? ORDER BY created_at ASC, rowid ASC`,
		string(models.QueuePending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending queue entries: %w", err)
	}
	out := make([]models.SyncQueueEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}
