// Package recordings is the local recording store: the device-side source of
// truth for captured media and their upload state.
//
// Rows are never physically removed; deletion sets is_deleted, and every
// status update is guarded so that a soft-deleted row cannot be resurrected.
// Sync bookkeeping (BeginAttempt, MarkUploaded, MarkFailed, RecoverInterrupted)
// is written only by the sync manager; capture code writes the initial row
// and the deletion flag.
//
// Typical usage:
//
//	repo := recordings.NewSQLiteRepository(db)
//	rec, _ := repo.Create(ctx, models.NewRecording{...})
//	pending, _ := repo.ListPendingUploads(ctx)
//	_ = repo.SoftDelete(ctx, rec.ID)
package recordings
