package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/blobstore"
	"github.com/dmitrijs2005/journeykeeper/internal/client/client"
	"github.com/dmitrijs2005/journeykeeper/internal/client/config"
	"github.com/dmitrijs2005/journeykeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/dmitrijs2005/journeykeeper/internal/client/services"
	"github.com/dmitrijs2005/journeykeeper/internal/common"
	"github.com/dmitrijs2005/journeykeeper/internal/filex"
	"github.com/dmitrijs2005/journeykeeper/internal/logging"
	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type SessionService interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Load(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error
}

type RecordingService interface {
	Save(ctx context.Context, req services.SaveRequest) (*models.Recording, error)
	Delete(ctx context.Context, id string) error
	ListByChapter(ctx context.Context, chapterID string) ([]models.Recording, error)
	ListByJourney(ctx context.Context, journeyID string) ([]models.Recording, error)
	PendingUploads(ctx context.Context) ([]models.Recording, error)
	StorageUsed(ctx context.Context) (int64, error)
	CleanupUploaded(ctx context.Context, olderThan time.Duration) (int, error)
}

type SyncService interface {
	Initialize(ctx context.Context, s models.Session) error
	Cleanup()
	Status() services.SyncStatus
	PendingUploadCount(ctx context.Context) (int, error)
	TriggerManualSync(ctx context.Context) (services.PassResult, error)
}

// Runner is a background loop tied to the REPL's lifetime.
type Runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config     *config.Config
	log        logging.Logger
	sessions   SessionService
	recordings RecordingService
	sync       SyncService
	watcher    Runner
	online     func() bool

	session *models.Session
	reader  *bufio.Reader
	out     io.Writer
	closers []func() error
}

// NewApp opens the device database and builds every service from c.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	dataDir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	db, err := client.InitDatabase(ctx, c.DBPath())
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api, err := client.NewHTTPClient(c.APIBaseURL, c.HealthURL, &http.Client{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	repos := client.NewRepositories(db)
	watcher := connectivity.NewWatcher(api, c.OnlineCheckInterval, log.With("component", "connectivity"))
	store := blobstore.New(c.RecordingsDir(), c.StorageMode, blobstore.WithMinFreeBytes(c.MinFreeBytes))

	syncMgr := services.NewSyncManager(repos.Recordings, api, watcher, log.With("component", "sync"),
		services.WithStepTimeout(c.UploadStepTimeout),
		services.WithUploadRate(c.UploadsPerSecond),
	)

	log.Info(ctx, "client ready", "data_dir", dataDir, "api", c.APIBaseURL)

	return &App{
		config:     c,
		log:        log,
		sessions:   services.NewSessionService(api, repos.Session, repos.Journeys),
		recordings: services.NewRecordingService(repos.Recordings, store, log.With("component", "recordings")),
		sync:       syncMgr,
		watcher:    watcher,
		online:     watcher.Online,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		closers:    []func() error{db.Close},
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) mode() Mode {
	if a.online != nil && a.online() {
		return ModeOnline
	}
	return ModeOffline
}

func (a *App) getStatus() string {
	s := ""
	if a.session != nil && a.session.Email != "" {
		s = a.session.Email + " "
	}
	s += string(a.mode())
	if a.session != nil {
		if n, err := a.sync.PendingUploadCount(context.Background()); err == nil && n > 0 {
			s += fmt.Sprintf(" | %d pending", n)
		}
	}
	return fmt.Sprintf("(%s)", s)
}

// restoreSession resumes a stored session so syncing continues across
// restarts without a new login.
func (a *App) restoreSession(ctx context.Context) error {
	s, err := a.sessions.Load(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := a.sync.Initialize(ctx, *s); err != nil {
		return err
	}
	a.session = s
	return nil
}

// Run restores any stored session, then runs the connectivity watcher and
// the REPL together until the user exits or ctx is cancelled. The REPL may
// stay blocked on input after cancellation; Run does not wait for it.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.restoreSession(ctx); err != nil {
		a.log.Warn(ctx, "stored session not restored", "error", err)
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		printlnFn("Welcome to journeykeeper (type 'help' for commands)")
		runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.watcher.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-replDone:
			stop()
		case <-gctx.Done():
		}
		return nil
	})

	err := g.Wait()
	a.sync.Cleanup()
	return err
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Error(context.Background(), "close failed", "error", err)
		}
	}
}
