package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.calls.Add(1)
	if p.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) add(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func TestWatcher_FetchNotifiesOnlyOnChange(t *testing.T) {
	p := &fakePinger{}
	w := NewWatcher(p, time.Hour, logging.Discard())
	rec := &recorder{}
	unsubscribe := w.Subscribe(rec.add)

	ctx := context.Background()
	s, err := w.Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, s.Online)
	_, _ = w.Fetch(ctx)

	p.fail.Store(true)
	s, _ = w.Fetch(ctx)
	assert.False(t, s.Online)
	assert.False(t, w.Online())
	_, _ = w.Fetch(ctx)

	p.fail.Store(false)
	_, _ = w.Fetch(ctx)

	assert.Equal(t, []State{{Online: true}, {Online: false}, {Online: true}}, rec.snapshot())

	unsubscribe()
	unsubscribe()
	p.fail.Store(true)
	_, _ = w.Fetch(ctx)
	assert.Len(t, rec.snapshot(), 3, "no notifications after unsubscribe")
}

func TestWatcher_RunPollsUntilCancelled(t *testing.T) {
	p := &fakePinger{}
	w := NewWatcher(p, 10*time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, w.Online())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type slowPinger struct{}

func (slowPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestWatcher_ProbeTimeoutMeansOffline(t *testing.T) {
	w := NewWatcher(slowPinger{}, time.Hour, logging.Discard())
	w.timeout = 20 * time.Millisecond

	s, err := w.Fetch(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Online)
}

func TestManual(t *testing.T) {
	m := NewManual(false)
	rec := &recorder{}
	unsub := m.Subscribe(rec.add)
	assert.Equal(t, 1, m.Subscribers())

	m.Set(false)
	m.Set(true)
	m.Set(true)
	m.Set(false)

	s, err := m.Fetch(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Online)
	assert.Equal(t, []State{{Online: true}, {Online: false}}, rec.snapshot())

	unsub()
	assert.Equal(t, 0, m.Subscribers())
}
