package recordings

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
)

// ErrNotEligible is returned by BeginAttempt when the row is not in a
// retryable state or has exhausted its attempts.
var ErrNotEligible = errors.New("recording not eligible for upload")

type Repository interface {
	// Create inserts a pending_upload row with zero attempts.
	Create(ctx context.Context, in models.NewRecording) (*models.Recording, error)

	// GetByID returns the row even if it is soft-deleted.
	GetByID(ctx context.Context, id string) (*models.Recording, error)

	ListByChapter(ctx context.Context, chapterID string) ([]models.Recording, error)
	ListByJourney(ctx context.Context, journeyID string) ([]models.Recording, error)

	// ListPendingUploads returns non-deleted rows in pending_upload or failed.
	ListPendingUploads(ctx context.Context) ([]models.Recording, error)
	CountPendingUploads(ctx context.Context) (int, error)

	// UpdateStatus moves a non-deleted row to status. A nil errorMessage
	// leaves the stored message unchanged.
	UpdateStatus(ctx context.Context, id string, status models.RecordingStatus, errorMessage *string) error

	// SoftDelete marks the row deleted. Deleting twice is not an error.
	SoftDelete(ctx context.Context, id string) error

	TotalStorageUsed(ctx context.Context) (int64, error)

	BeginAttempt(ctx context.Context, id string, at time.Time, maxAttempts int) error
	MarkUploaded(ctx context.Context, id, serverID, remoteURL string, at time.Time) error
	MarkFailed(ctx context.Context, id, message string) error

	// RecoverInterrupted moves rows stuck in uploading to failed and
	// returns how many were moved.
	RecoverInterrupted(ctx context.Context, message string) (int, error)

	// ListUploadedBefore returns non-deleted uploaded rows created before cutoff.
	ListUploadedBefore(ctx context.Context, cutoff time.Time) ([]models.Recording, error)
}
