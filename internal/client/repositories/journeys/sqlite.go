package journeys

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

type journeyRow struct {
	ID        string         `db:"id"`
	ServerID  sql.NullString `db:"server_id"`
	Title     string         `db:"title"`
	UserID    string         `db:"user_id"`
	IsDeleted bool           `db:"is_deleted"`
	CreatedAt int64          `db:"created_at"`
	UpdatedAt int64          `db:"updated_at"`
}

type progressRow struct {
	ID                 string         `db:"id"`
	ServerID           sql.NullString `db:"server_id"`
	JourneyID          string         `db:"journey_id"`
	ChapterID          string         `db:"chapter_id"`
	Status             string         `db:"status"`
	ProgressPercentage float64        `db:"progress_percentage"`
	MediaCount         int            `db:"media_count"`
	LastActivityAt     sql.NullInt64  `db:"last_activity_at"`
	IsDeleted          bool           `db:"is_deleted"`
	CreatedAt          int64          `db:"created_at"`
	UpdatedAt          int64          `db:"updated_at"`
}

func (r progressRow) toModel() models.ChapterProgress {
	return models.ChapterProgress{
		ID:                 r.ID,
		ServerID:           dbx.StringPtr(r.ServerID),
		JourneyID:          r.JourneyID,
		ChapterID:          r.ChapterID,
		Status:             models.ChapterStatus(r.Status),
		ProgressPercentage: r.ProgressPercentage,
		MediaCount:         r.MediaCount,
		LastActivityAt:     dbx.TimePtr(r.LastActivityAt),
		IsDeleted:          r.IsDeleted,
		CreatedAt:          dbx.FromMillis(r.CreatedAt),
		UpdatedAt:          dbx.FromMillis(r.UpdatedAt),
	}
}

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

var _ Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) UpsertJourney(ctx context.Context, j models.Journey) error {
	if j.ID == "" {
		return fmt.Errorf("%w: journey id is required", common.ErrInvalidArgument)
	}
	now := dbx.Millis(r.now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO journeys (id, server_id, title, user_id, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			server_id = COALESCE(excluded.server_id, journeys.server_id),
			title = excluded.title,
			user_id = excluded.user_id,
			is_deleted = excluded.is_deleted,
			updated_at = excluded.updated_at`,
		j.ID, dbx.NullString(j.ServerID), j.Title, j.UserID, j.IsDeleted, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert journey %s: %w", j.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetJourney(ctx context.Context, id string) (*models.Journey, error) {
	var row journeyRow
	err := sqlx.GetContext(ctx, r.db, &row, `
		SELECT id, server_id, title, user_id, is_deleted, created_at, updated_at
		  FROM journeys WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journey %s: %w", id, err)
	}
	return &models.Journey{
		ID:        row.ID,
		ServerID:  dbx.StringPtr(row.ServerID),
		Title:     row.Title,
		UserID:    row.UserID,
		IsDeleted: row.IsDeleted,
		CreatedAt: dbx.FromMillis(row.CreatedAt),
		UpdatedAt: dbx.FromMillis(row.UpdatedAt),
	}, nil
}

// UpsertChapterProgress keys on (journey_id, chapter_id); an empty ID is
// generated on first insert and the stored row is returned.
func (r *SQLiteRepository) UpsertChapterProgress(ctx context.Context, p models.ChapterProgress) (*models.ChapterProgress, error) {
	if p.JourneyID == "" || p.ChapterID == "" {
		return nil, fmt.Errorf("%w: journey and chapter are required", common.ErrInvalidArgument)
	}
	if p.Status == "" {
		p.Status = models.ChapterLocked
	}
	if !p.Status.Valid() {
		return nil, fmt.Errorf("%w: chapter status %q", common.ErrInvalidArgument, p.Status)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	now := dbx.Millis(r.now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chapter_progress (id, server_id, journey_id, chapter_id, status,
			progress_percentage, media_count, last_activity_at, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(journey_id, chapter_id) DO UPDATE SET
			server_id = COALESCE(excluded.server_id, chapter_progress.server_id),
			status = excluded.status,
			progress_percentage = excluded.progress_percentage,
			media_count = excluded.media_count,
			last_activity_at = COALESCE(excluded.last_activity_at, chapter_progress.last_activity_at),
			is_deleted = excluded.is_deleted,
			updated_at = excluded.updated_at`,
		p.ID, dbx.NullString(p.ServerID), p.JourneyID, p.ChapterID, string(p.Status),
		p.ProgressPercentage, p.MediaCount, dbx.NullMillis(p.LastActivityAt), p.IsDeleted, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert chapter progress %s/%s: %w", p.JourneyID, p.ChapterID, err)
	}

	var row progressRow
	err = sqlx.GetContext(ctx, r.db, &row, `SELECT * FROM chapter_progress WHERE journey_id = ? AND chapter_id = ?`,
		p.JourneyID, p.ChapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload chapter progress: %w", err)
	}
	out := row.toModel()
	return &out, nil
}

func (r *SQLiteRepository) ListChapterProgress(ctx context.Context, journeyID string) ([]models.ChapterProgress, error) {
	var rows []progressRow
	err := sqlx.SelectContext(ctx, r.db, &rows, `
		SELECT * FROM chapter_progress
		 WHERE journey_id = ? AND is_deleted = 0
		 ORDER BY chapter_id`, journeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapter progress: %w", err)
	}
	out := make([]models.ChapterProgress, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}
