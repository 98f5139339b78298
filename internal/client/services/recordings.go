package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/blobstore"
	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/dmitrijs2005/journeykeeper/internal/client/repositories/recordings"
	"github.com/dmitrijs2005/journeykeeper/internal/common"
	"github.com/dmitrijs2005/journeykeeper/internal/logging"
)

// DefaultCleanupAge is how long uploaded recordings are kept on the device.
const DefaultCleanupAge = 30 * 24 * time.Hour

// BlobStore is the durable file storage recordings point at.
type BlobStore interface {
	Persist(ctx context.Context, tempPath, chapterID string, typ models.RecordingType) (string, error)
	Remove(path string) error
	SizeOf(path string) (int64, error)
}

type SaveRequest struct {
	TempPath        string
	JourneyID       string
	ChapterID       string
	Type            models.RecordingType // empty means detect from content
	DurationSeconds float64
}

// RecordingService is the capture-side API: save a finished capture, list,
// delete and clean up. It never talks to the network.
type RecordingService struct {
	repo   recordings.Repository
	blobs  BlobStore
	log    logging.Logger
	now    func() time.Time
	detect func(path string) (models.RecordingType, error)
}

func NewRecordingService(repo recordings.Repository, blobs BlobStore, log logging.Logger) *RecordingService {
	return &RecordingService{repo: repo, blobs: blobs, log: log, now: time.Now, detect: blobstore.DetectType}
}

// Save persists the capture file and creates its row. If the row cannot be
// written the persisted file is removed again and the error is returned.
func (s *RecordingService) Save(ctx context.Context, req SaveRequest) (*models.Recording, error) {
	if req.TempPath == "" || req.JourneyID == "" || req.ChapterID == "" {
		return nil, fmt.Errorf("%w: capture path, journey and chapter are required", common.ErrInvalidArgument)
	}
	if req.DurationSeconds < 0 {
		return nil, fmt.Errorf("%w: negative duration", common.ErrInvalidArgument)
	}

	typ := req.Type
	if typ == "" {
		var err error
		if typ, err = s.detect(req.TempPath); err != nil {
			return nil, err
		}
	}

	path, err := s.blobs.Persist(ctx, req.TempPath, req.ChapterID, typ)
	if err != nil {
		return nil, fmt.Errorf("persist recording: %w", err)
	}

	size, err := s.blobs.SizeOf(path)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("size of %s: %w", path, err), s.blobs.Remove(path))
	}

	rec, err := s.repo.Create(ctx, models.NewRecording{
		JourneyID:       req.JourneyID,
		ChapterID:       req.ChapterID,
		LocalURI:        path,
		Type:            typ,
		DurationSeconds: req.DurationSeconds,
		SizeBytes:       size,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("save recording: %w", err), s.blobs.Remove(path))
	}

	s.log.Info(ctx, "recording saved", "recording_id", rec.ID, "chapter_id", rec.ChapterID, "size_bytes", size)
	return rec, nil
}

// Delete removes the file first and only then marks the row deleted, so a
// failed removal never leaves an unreachable file behind.
func (s *RecordingService) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.IsDeleted {
		return nil
	}

	if err := s.blobs.Remove(rec.LocalURI); err != nil {
		return fmt.Errorf("delete recording %s: %w", id, err)
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete recording %s: %w", id, err)
	}

	s.log.Info(ctx, "recording deleted", "recording_id", id)
	return nil
}

func (s *RecordingService) Get(ctx context.Context, id string) (*models.Recording, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RecordingService) ListByChapter(ctx context.Context, chapterID string) ([]models.Recording, error) {
	return s.repo.ListByChapter(ctx, chapterID)
}

func (s *RecordingService) ListByJourney(ctx context.Context, journeyID string) ([]models.Recording, error) {
	return s.repo.ListByJourney(ctx, journeyID)
}

func (s *RecordingService) PendingUploads(ctx context.Context) ([]models.Recording, error) {
	return s.repo.ListPendingUploads(ctx)
}

func (s *RecordingService) StorageUsed(ctx context.Context) (int64, error) {
	return s.repo.TotalStorageUsed(ctx)
}

// CleanupUploaded deletes uploaded recordings created more than olderThan
// ago (DefaultCleanupAge when zero) and returns how many were removed. It
// stops at the first failure.
func (s *RecordingService) CleanupUploaded(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = DefaultCleanupAge
	}
	old, err := s.repo.ListUploadedBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, rec := range old {
		if err := s.Delete(ctx, rec.ID); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		s.log.Info(ctx, "old uploaded recordings cleaned up", "count", removed)
	}
	return removed, nil
}
