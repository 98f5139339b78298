package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/client"
	"github.com/dmitrijs2005/journeykeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/dmitrijs2005/journeykeeper/internal/client/repositories/recordings"
	"github.com/dmitrijs2005/journeykeeper/internal/common"
	"github.com/dmitrijs2005/journeykeeper/internal/logging"
	"golang.org/x/time/rate"
)

const (
	MaxRetryAttempts  = 3
	InitialRetryDelay = time.Second

	DefaultStepTimeout = 2 * time.Minute

	defaultFailureMessage = "Upload failed"
	interruptedMessage    = "upload interrupted"

	// bookkeepingTimeout bounds the store writes that close an attempt, which
	// run detached from the pass context so a cancelled pass still records
	// its outcome.
	bookkeepingTimeout = 5 * time.Second
)

var (
	ErrOffline        = errors.New("device is offline")
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrNotInitialized = errors.New("sync manager not initialized")
	ErrSessionExpired = errors.New("session expired")
)

// SyncStatus is what the UI shows: the offline indicator and a spinner.
type SyncStatus struct {
	IsOnline  bool
	IsSyncing bool
}

// PassResult counts what one sync pass did.
type PassResult struct {
	Uploaded  int
	Failed    int
	Deferred  int // backoff window not elapsed
	Exhausted int // attempts used up
	Skipped   int // changed or deleted since listing
	Stopped   bool
}

// RetryDelay is the minimum wait after the last attempt before a recording
// with the given number of attempts may be retried.
func RetryDelay(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	return InitialRetryDelay << (attempts - 1)
}

type eligibility int

const (
	eligible eligibility = iota
	deferred
	exhausted
)

func checkEligibility(rec models.Recording, now time.Time) eligibility {
	if rec.UploadAttempts >= MaxRetryAttempts {
		return exhausted
	}
	if rec.UploadAttempts > 0 && rec.LastUploadAttemptAt != nil &&
		now.Sub(*rec.LastUploadAttemptAt) < RetryDelay(rec.UploadAttempts) {
		return deferred
	}
	return eligible
}

// SyncManager drives pending and failed recordings to uploaded, one pass at
// a time, whenever the device is online.
type SyncManager struct {
	recordings  recordings.Repository
	uploader    client.Uploader
	conn        connectivity.Source
	log         logging.Logger
	now         func() time.Time
	stepTimeout time.Duration
	limiter     *rate.Limiter

	online  atomic.Bool
	syncing atomic.Bool

	mu          sync.Mutex
	session     *models.Session
	unsubscribe func()
	bgCtx       context.Context
	bgCancel    context.CancelFunc
	wg          sync.WaitGroup
}

type SyncOption func(*SyncManager)

func WithSyncClock(now func() time.Time) SyncOption {
	return func(m *SyncManager) { m.now = now }
}

// WithStepTimeout bounds each of the three upload protocol calls.
func WithStepTimeout(d time.Duration) SyncOption {
	return func(m *SyncManager) { m.stepTimeout = d }
}

// WithUploadRate paces uploads within a pass. A zero or infinite limit
// disables pacing.
func WithUploadRate(perSecond float64) SyncOption {
	return func(m *SyncManager) {
		if perSecond <= 0 || rate.Limit(perSecond) == rate.Inf {
			m.limiter = nil
			return
		}
		m.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func NewSyncManager(recs recordings.Repository, uploader client.Uploader, conn connectivity.Source, log logging.Logger, opts ...SyncOption) *SyncManager {
	m := &SyncManager{
		recordings:  recs,
		uploader:    uploader,
		conn:        conn,
		log:         log,
		now:         time.Now,
		stepTimeout: DefaultStepTimeout,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Initialize binds the manager to a session, subscribes to connectivity and
// starts a background pass when already online. Calling it again replaces
// the session.
func (m *SyncManager) Initialize(ctx context.Context, s models.Session) error {
	if s.Token == "" || s.JourneyID == "" {
		return fmt.Errorf("%w: session needs a token and a journey", common.ErrInvalidArgument)
	}

	n, err := m.recordings.RecoverInterrupted(ctx, interruptedMessage)
	if err != nil {
		return fmt.Errorf("recover interrupted uploads: %w", err)
	}
	if n > 0 {
		m.log.Warn(ctx, "recovered interrupted uploads", "count", n)
	}

	m.mu.Lock()
	prevUnsub := m.unsubscribe
	m.session = &s
	if m.bgCtx == nil {
		m.bgCtx, m.bgCancel = context.WithCancel(context.WithoutCancel(ctx))
	}
	m.unsubscribe = m.conn.Subscribe(m.onConnectivity)
	m.mu.Unlock()

	if prevUnsub != nil {
		prevUnsub()
	}

	state, err := m.conn.Fetch(ctx)
	if err != nil {
		m.log.Warn(ctx, "connectivity fetch failed, assuming offline", "error", err)
		state = connectivity.State{}
	}
	m.online.Store(state.Online)

	m.log.Info(ctx, "sync manager initialized", "journey_id", s.JourneyID, "online", state.Online)
	if state.Online {
		m.startBackgroundPass("initialize")
	}
	return nil
}

// Cleanup unsubscribes, forgets the session and waits for background passes
// to stop.
func (m *SyncManager) Cleanup() {
	m.mu.Lock()
	unsub := m.unsubscribe
	cancel := m.bgCancel
	m.unsubscribe = nil
	m.session = nil
	m.bgCtx, m.bgCancel = nil, nil
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *SyncManager) Status() SyncStatus {
	return SyncStatus{IsOnline: m.online.Load(), IsSyncing: m.syncing.Load()}
}

func (m *SyncManager) PendingUploadCount(ctx context.Context) (int, error) {
	return m.recordings.CountPendingUploads(ctx)
}

// TriggerManualSync runs a pass now if online. Nothing is queued when
// offline; the next reconnect resumes work.
func (m *SyncManager) TriggerManualSync(ctx context.Context) (PassResult, error) {
	if !m.online.Load() {
		return PassResult{}, ErrOffline
	}
	return m.SyncPendingChanges(ctx)
}

func (m *SyncManager) onConnectivity(s connectivity.State) {
	was := m.online.Swap(s.Online)
	if s.Online && !was {
		m.startBackgroundPass("connectivity restored")
	}
}

func (m *SyncManager) startBackgroundPass(reason string) {
	m.mu.Lock()
	if m.session == nil || m.bgCtx == nil {
		m.mu.Unlock()
		return
	}
	ctx := m.bgCtx
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		res, err := m.SyncPendingChanges(ctx)
		switch {
		case errors.Is(err, ErrSyncInProgress), errors.Is(err, ErrOffline), errors.Is(err, context.Canceled):
			m.log.Debug(ctx, "background sync skipped", "reason", reason, "error", err)
		case err != nil:
			m.log.Error(ctx, "background sync failed", "reason", reason, "error", err)
		default:
			m.log.Debug(ctx, "background sync done", "reason", reason, "uploaded", res.Uploaded, "failed", res.Failed)
		}
	}()
}

func (m *SyncManager) currentSession() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// SyncPendingChanges runs one sync pass over every pending or failed
// recording. It does nothing and returns an error when not initialized,
// offline, holding an expired session, or when another pass is running.
// Failures of individual recordings are recorded on their rows and never
// abort the pass.
func (m *SyncManager) SyncPendingChanges(ctx context.Context) (PassResult, error) {
	var res PassResult

	sess := m.currentSession()
	if sess == nil {
		return res, ErrNotInitialized
	}
	if !m.online.Load() {
		return res, ErrOffline
	}
	if sess.Expired(m.now()) {
		return res, ErrSessionExpired
	}
	if !m.syncing.CompareAndSwap(false, true) {
		return res, ErrSyncInProgress
	}
	defer m.syncing.Store(false)

	pending, err := m.recordings.ListPendingUploads(ctx)
	if err != nil {
		return res, fmt.Errorf("list pending uploads: %w", err)
	}

	log := m.log.With("journey_id", sess.JourneyID)
	log.Info(ctx, "sync pass started", "candidates", len(pending))

	for _, rec := range pending {
		if ctx.Err() != nil || !m.online.Load() {
			res.Stopped = true
			break
		}

		switch checkEligibility(rec, m.now()) {
		case exhausted:
			res.Exhausted++
			log.Debug(ctx, "recording exhausted retries", "recording_id", rec.ID, "attempts", rec.UploadAttempts)
			continue
		case deferred:
			res.Deferred++
			log.Debug(ctx, "recording in backoff", "recording_id", rec.ID, "attempts", rec.UploadAttempts)
			continue
		}

		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				res.Stopped = true
				break
			}
		}

		switch err := m.syncRecording(ctx, *sess, rec); {
		case err == nil:
			res.Uploaded++
		case errors.Is(err, recordings.ErrNotEligible):
			res.Skipped++
		default:
			res.Failed++
			log.Warn(ctx, "recording upload failed", "recording_id", rec.ID, "error", err)
		}
	}

	log.Info(ctx, "sync pass finished",
		"uploaded", res.Uploaded, "failed", res.Failed, "deferred", res.Deferred,
		"exhausted", res.Exhausted, "skipped", res.Skipped, "stopped", res.Stopped)

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, nil
}

// syncRecording runs one attempt for rec and records its outcome.
func (m *SyncManager) syncRecording(ctx context.Context, sess models.Session, rec models.Recording) error {
	if err := m.recordings.BeginAttempt(ctx, rec.ID, m.now(), MaxRetryAttempts); err != nil {
		return err
	}

	uploaded, upErr := m.upload(ctx, sess, rec)

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	if upErr != nil {
		msg := upErr.Error()
		if msg == "" {
			msg = defaultFailureMessage
		}
		if err := m.recordings.MarkFailed(wctx, rec.ID, msg); err != nil {
			return errors.Join(upErr, fmt.Errorf("record failure: %w", err))
		}
		return upErr
	}

	if err := m.recordings.MarkUploaded(wctx, rec.ID, uploaded.ID, uploaded.ObjectKey, m.now()); err != nil {
		return fmt.Errorf("record success: %w", err)
	}
	m.log.Info(ctx, "recording uploaded", "recording_id", rec.ID, "server_id", uploaded.ID)
	return nil
}

func (m *SyncManager) step(ctx context.Context, fn func(ctx context.Context) error) error {
	sctx, cancel := context.WithTimeout(ctx, m.stepTimeout)
	defer cancel()
	return fn(sctx)
}

// upload performs the three-step protocol: slot, PUT, confirm.
func (m *SyncManager) upload(ctx context.Context, sess models.Session, rec models.Recording) (*client.MediaUpload, error) {
	var slot *client.UploadURL
	err := m.step(ctx, func(ctx context.Context) error {
		var err error
		slot, err = m.uploader.RequestUploadURL(ctx, sess.Token, client.UploadURLRequest{
			JourneyID:     sess.JourneyID,
			ChapterID:     rec.ChapterID,
			FileExtension: rec.Type.Extension(),
			ContentType:   rec.Type.ContentType(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	err = m.step(ctx, func(ctx context.Context) error {
		return m.uploader.PutObject(ctx, slot.UploadURL, rec.LocalURI, rec.Type.ContentType())
	})
	if err != nil {
		return nil, err
	}

	var confirmed *client.MediaUpload
	err = m.step(ctx, func(ctx context.Context) error {
		var err error
		confirmed, err = m.uploader.ConfirmUpload(ctx, sess.Token, client.ConfirmUploadRequest{
			JourneyID:       sess.JourneyID,
			ChapterID:       rec.ChapterID,
			ObjectKey:       slot.ObjectKey,
			SizeBytes:       rec.SizeBytes,
			DurationSeconds: rec.DurationSeconds,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if confirmed.ID == "" {
		return nil, errors.New("confirm upload: empty media id")
	}
	if confirmed.ObjectKey == "" {
		confirmed.ObjectKey = slot.ObjectKey
	}
	return confirmed, nil
}
