package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/dmitrijs2005/journeykeeper/internal/client/services"
)

const timeLayout = "2006-01-02 15:04"

var errUsage = errors.New("usage")

func usage(s string) error {
	return fmt.Errorf("%w: %s", errUsage, s)
}

// Import saves a capture file as a new recording of the current journey.
//
//	import <path> <chapter> [audio|video|auto] [duration-seconds]
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("import <path> <chapter> [audio|video|auto] [duration-seconds]")
	}
	req := services.SaveRequest{
		TempPath:  args[0],
		JourneyID: a.session.JourneyID,
		ChapterID: args[1],
	}
	if len(args) > 2 && args[2] != "auto" {
		typ, err := models.ParseRecordingType(args[2])
		if err != nil {
			return err
		}
		req.Type = typ
	}
	if len(args) > 3 {
		d, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		req.DurationSeconds = d
	}

	rec, err := a.recordings.Save(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s recording %s (%d bytes)\n", rec.Type, rec.ID, rec.SizeBytes)
	if a.mode() == ModeOffline {
		fmt.Fprintln(a.out, "Offline: it will upload when the connection returns")
	}
	return nil
}

// List shows the journey's recordings, or one chapter's when given.
func (a *App) List(ctx context.Context, args []string) error {
	var (
		recs []models.Recording
		err  error
	)
	if len(args) > 0 {
		recs, err = a.recordings.ListByChapter(ctx, args[0])
	} else {
		recs, err = a.recordings.ListByJourney(ctx, a.session.JourneyID)
	}
	if err != nil {
		return err
	}
	printRecordings(a.out, recs)
	return nil
}

// Pending shows recordings still waiting for upload, including failed ones.
func (a *App) Pending(ctx context.Context, _ []string) error {
	recs, err := a.recordings.PendingUploads(ctx)
	if err != nil {
		return err
	}
	printRecordings(a.out, recs)
	return nil
}

func printRecordings(w io.Writer, recs []models.Recording) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No recordings")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCHAPTER\tTYPE\tSIZE\tSTATUS\tATTEMPTS\tCREATED\tERROR")
	for _, r := range recs {
		errMsg := ""
		if r.ErrorMessage != nil {
			errMsg = *r.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d/%d\t%s\t%s\n",
			r.ID, r.ChapterID, r.Type, r.SizeBytes, r.Status,
			r.UploadAttempts, services.MaxRetryAttempts,
			r.CreatedAt.Local().Format(timeLayout), errMsg)
	}
	_ = tw.Flush()
}

// Sync runs a pass immediately.
func (a *App) Sync(ctx context.Context, _ []string) error {
	res, err := a.sync.TriggerManualSync(ctx)
	switch {
	case errors.Is(err, services.ErrOffline):
		fmt.Fprintln(a.out, "Offline: recordings will upload when the connection returns")
		return nil
	case errors.Is(err, services.ErrSyncInProgress):
		fmt.Fprintln(a.out, "A sync is already running")
		return nil
	case errors.Is(err, services.ErrSessionExpired):
		return errors.New("session expired, please log in again")
	case err != nil:
		return err
	}

	fmt.Fprintf(a.out, "Uploaded %d, failed %d, waiting %d, gave up %d\n",
		res.Uploaded, res.Failed, res.Deferred, res.Exhausted)
	if res.Stopped {
		fmt.Fprintln(a.out, "Sync stopped early; remaining recordings will upload later")
	}
	return nil
}

// Delete removes a recording and its file after confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("delete <id>")
	}
	ok, err := Confirm(a.reader, "Delete recording "+args[0]+"?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := a.recordings.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

func (a *App) Storage(ctx context.Context, _ []string) error {
	n, err := a.recordings.StorageUsed(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Local recordings use %s\n", formatBytes(n))
	return nil
}

// Cleanup deletes uploaded recordings older than the given age (a Go
// duration such as 720h) or the configured default.
func (a *App) Cleanup(ctx context.Context, args []string) error {
	age := a.config.CleanupAge
	if len(args) > 0 {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return usage("cleanup [age, e.g. 720h]")
		}
		age = d
	}
	n, err := a.recordings.CleanupUploaded(ctx, age)
	if err != nil {
		return fmt.Errorf("cleanup stopped after %d recordings: %w", n, err)
	}
	fmt.Fprintf(a.out, "Removed %d uploaded recordings\n", n)
	return nil
}

func (a *App) Status(ctx context.Context, _ []string) error {
	st := a.sync.Status()
	fmt.Fprintf(a.out, "Mode:    %s\n", a.mode())
	fmt.Fprintf(a.out, "Syncing: %t\n", st.IsSyncing)
	if a.session == nil {
		fmt.Fprintln(a.out, "Session: not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "Session: %s (journey %s)\n", a.session.Email, a.session.JourneyID)
	if a.session.ExpiresAt != nil {
		fmt.Fprintf(a.out, "Expires: %s\n", a.session.ExpiresAt.Local().Format(timeLayout))
	}
	n, err := a.sync.PendingUploadCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Pending: %d\n", n)
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
