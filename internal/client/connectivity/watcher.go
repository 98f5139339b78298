package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/logging"
)

// Pinger probes the backend; nil means reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const DefaultProbeTimeout = 3 * time.Second

// Watcher polls a Pinger on an interval and notifies subscribers only when
// reachability flips.
type Watcher struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	mu     sync.Mutex
	online bool
	known  bool

	subs listeners
}

var _ Source = (*Watcher)(nil)

func NewWatcher(p Pinger, interval time.Duration, log logging.Logger) *Watcher {
	return &Watcher{pinger: p, interval: interval, timeout: DefaultProbeTimeout, log: log}
}

// Fetch probes immediately and returns the fresh state.
func (w *Watcher) Fetch(ctx context.Context) (State, error) {
	return w.probe(ctx), nil
}

func (w *Watcher) Subscribe(fn func(State)) func() {
	return w.subs.add(fn)
}

// Online returns the last observed state without probing.
func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

// Run probes once, then every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.probe(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) probe(ctx context.Context) State {
	pctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(pctx)
	cancel()

	online := err == nil
	if err != nil && ctx.Err() == nil {
		w.log.Debug(ctx, "backend probe failed", "error", err)
	}

	w.mu.Lock()
	changed := !w.known || w.online != online
	w.online = online
	w.known = true
	w.mu.Unlock()

	s := State{Online: online}
	if changed {
		w.log.Info(ctx, "connectivity changed", "online", online)
		w.subs.notify(s)
	}
	return s
}
