package recordings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/dmitrijs2005/journeykeeper/internal/common"
	"github.com/dmitrijs2005/journeykeeper/internal/dbx"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const columns = `id, server_id, journey_id, chapter_id, local_uri, remote_url, type,
	duration_seconds, size_bytes, status, upload_attempts, last_upload_attempt_at,
	error_message, is_deleted, created_at, updated_at, synced_at`

type recordingRow struct {
	ID                  string         `db:"id"`
	ServerID            sql.NullString `db:"server_id"`
	JourneyID           string         `db:"journey_id"`
	ChapterID           string         `db:"chapter_id"`
	LocalURI            string         `db:"local_uri"`
	RemoteURL           sql.NullString `db:"remote_url"`
	Type                string         `db:"type"`
	DurationSeconds     float64        `db:"duration_seconds"`
	SizeBytes           int64          `db:"size_bytes"`
	Status              string         `db:"status"`
	UploadAttempts      int            `db:"upload_attempts"`
	LastUploadAttemptAt sql.NullInt64  `db:"last_upload_attempt_at"`
	ErrorMessage        sql.NullString `db:"error_message"`
	IsDeleted           bool           `db:"is_deleted"`
	CreatedAt           int64          `db:"created_at"`
	UpdatedAt           int64          `db:"updated_at"`
	SyncedAt            sql.NullInt64  `db:"synced_at"`
}

func (r recordingRow) toModel() models.Recording {
	return models.Recording{
		ID:                  r.ID,
		ServerID:            dbx.StringPtr(r.ServerID),
		JourneyID:           r.JourneyID,
		ChapterID:           r.ChapterID,
		LocalURI:            r.LocalURI,
		RemoteURL:           dbx.StringPtr(r.RemoteURL),
		Type:                models.RecordingType(r.Type),
		DurationSeconds:     r.DurationSeconds,
		SizeBytes:           r.SizeBytes,
		Status:              models.RecordingStatus(r.Status),
		UploadAttempts:      r.UploadAttempts,
		LastUploadAttemptAt: dbx.TimePtr(r.LastUploadAttemptAt),
		ErrorMessage:        dbx.StringPtr(r.ErrorMessage),
		IsDeleted:           r.IsDeleted,
		CreatedAt:           dbx.FromMillis(r.CreatedAt),
		UpdatedAt:           dbx.FromMillis(r.UpdatedAt),
		SyncedAt:            dbx.TimePtr(r.SyncedAt),
	}
}

// SQLiteRepository implements Repository over a dbx.DBTX (either *sqlx.DB or *sqlx.Tx).
type SQLiteRepository struct {
	db    dbx.DBTX
	now   func() time.Time
	newID func() string
}

type Option func(*SQLiteRepository)

// WithClock overrides the clock used for created_at / updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) { r.now = now }
}

// WithIDGenerator overrides uuid v4 generation for new rows.
func WithIDGenerator(f func() string) Option {
	return func(r *SQLiteRepository) { r.newID = f }
}

func NewSQLiteRepository(db dbx.DBTX, opts ...Option) *SQLiteRepository {
	r := &SQLiteRepository{db: db, now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) Create(ctx context.Context, in models.NewRecording) (*models.Recording, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: recording type %q", common.ErrInvalidArgument, in.Type)
	}
	if in.JourneyID == "" || in.ChapterID == "" || in.LocalURI == "" {
		return nil, fmt.Errorf("%w: journey, chapter and local uri are required", common.ErrInvalidArgument)
	}

	now := r.now().UTC().Truncate(time.Millisecond)
	rec := &models.Recording{
		ID:              r.newID(),
		JourneyID:       in.JourneyID,
		ChapterID:       in.ChapterID,
		LocalURI:        in.LocalURI,
		Type:            in.Type,
		DurationSeconds: in.DurationSeconds,
		SizeBytes:       in.SizeBytes,
		Status:          models.StatusPendingUpload,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	query := `INSERT INTO recordings (id, journey_id, chapter_id, local_uri, type,
			duration_seconds, size_bytes, status, upload_attempts, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.JourneyID, rec.ChapterID, rec.LocalURI,
		string(rec.Type), rec.DurationSeconds, rec.SizeBytes, string(rec.Status),
		dbx.Millis(now), dbx.Millis(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert recording: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Recording, error) {
	var row recordingRow
	err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+columns+` FROM recordings WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recording %s: %w", id, err)
	}
	rec := row.toModel()
	return &rec, nil
}

func (r *SQLiteRepository) list(ctx context.Context, what, where string, args ...any) ([]models.Recording, error) {
	var rows []recordingRow
	query := `SELECT ` + columns + ` FROM recordings WHERE ` + where
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	out := make([]models.Recording, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *SQLiteRepository) ListByChapter(ctx context.Context, chapterID string) ([]models.Recording, error) {
	return r.list(ctx, "chapter recordings",
		`chapter_id = ? AND is_deleted = 0 ORDER BY created_at DESC, rowid DESC`, chapterID)
}

func (r *SQLiteRepository) ListByJourney(ctx context.Context, journeyID string) ([]models.Recording, error) {
	return r.list(ctx, "journey recordings",
		`journey_id = ? AND is_deleted = 0 ORDER BY created_at DESC, rowid DESC`, journeyID)
}

func (r *SQLiteRepository) ListPendingUploads(ctx context.Context) ([]models.Recording, error) {
	return r.list(ctx, "pending uploads",
		`status IN (?, ?) AND is_deleted = 0 ORDER BY created_at ASC, rowid ASC`,
		string(models.StatusPendingUpload), string(models.StatusFailed))
}

func (r *SQLiteRepository) ListUploadedBefore(ctx context.Context, cutoff time.Time) ([]models.Recording, error) {
	return r.list(ctx, "uploaded recordings",
		`status = ? AND is_deleted = 0 AND created_at < ? ORDER BY created_at ASC`,
		string(models.StatusUploaded), dbx.Millis(cutoff))
}

func (r *SQLiteRepository) CountPendingUploads(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n,
		`SELECT COUNT(*) FROM recordings WHERE status IN (?, ?) AND is_deleted = 0`,
		string(models.StatusPendingUpload), string(models.StatusFailed))
	if err != nil {
		return 0, fmt.Errorf("failed to count pending uploads: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) TotalStorageUsed(ctx context.Context) (int64, error) {
	var total int64
	err := sqlx.GetContext(ctx, r.db, &total,
		`SELECT COALESCE(SUM(size_bytes), 0) FROM recordings WHERE is_deleted = 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to sum storage used: %w", err)
	}
	return total, nil
}

// exec runs an UPDATE that must match exactly one live row.
func (r *SQLiteRepository) exec(ctx context.Context, what, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", what, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status models.RecordingStatus, errorMessage *string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", common.ErrInvalidArgument, status)
	}
	return r.exec(ctx, "update status of", id,
		`UPDATE recordings
		    SET status = ?, error_message = COALESCE(?, error_message), updated_at = ?
		  WHERE id = ? AND is_deleted = 0`,
		string(status), dbx.NullString(errorMessage), dbx.Millis(r.now()), id)
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recordings SET is_deleted = 1, updated_at = ? WHERE id = ? AND is_deleted = 0`,
		dbx.Millis(r.now()), id)
	if err != nil {
		return fmt.Errorf("failed to delete recording %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT COUNT(*) FROM recordings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to check recording %s: %w", id, err)
	}
	if exists == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) BeginAttempt(ctx context.Context, id string, at time.Time, maxAttempts int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recordings
		    SET status = ?, upload_attempts = upload_attempts + 1,
		        last_upload_attempt_at = ?, updated_at = ?
		  WHERE id = ? AND is_deleted = 0 AND status IN (?, ?) AND upload_attempts < ?`,
		string(models.StatusUploading), dbx.Millis(at), dbx.Millis(at), id,
		string(models.StatusPendingUpload), string(models.StatusFailed), maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to begin upload attempt for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotEligible
	}
	return nil
}

func (r *SQLiteRepository) MarkUploaded(ctx context.Context, id, serverID, remoteURL string, at time.Time) error {
	return r.exec(ctx, "mark uploaded", id,
		`UPDATE recordings
		    SET status = ?, server_id = ?, remote_url = ?, synced_at = ?,
		        error_message = NULL, updated_at = ?
		  WHERE id = ? AND is_deleted = 0`,
		string(models.StatusUploaded), serverID, remoteURL, dbx.Millis(at), dbx.Millis(at), id)
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id, message string) error {
	return r.exec(ctx, "mark failed", id,
		`UPDATE recordings SET status = ?, error_message = ?, updated_at = ?
		  WHERE id = ? AND is_deleted = 0 AND status <> ?`,
		string(models.StatusFailed), message, dbx.Millis(r.now()), id, string(models.StatusUploaded))
}

func (r *SQLiteRepository) RecoverInterrupted(ctx context.Context, message string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recordings SET status = ?, error_message = ?, updated_at = ?
		  WHERE status = ? AND is_deleted = 0`,
		string(models.StatusFailed), message, dbx.Millis(r.now()), string(models.StatusUploading))
	if err != nil {
		return 0, fmt.Errorf("failed to recover interrupted uploads: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}
