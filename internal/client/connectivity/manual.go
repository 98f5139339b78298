package connectivity

import (
	"context"
	"sync"
)

// Manual is a Source whose state is set by the caller. The CLI uses it in
// forced-offline mode; tests use it to drive transitions.
type Manual struct {
	mu     sync.Mutex
	online bool
	subs   listeners
}

var _ Source = (*Manual)(nil)

func NewManual(online bool) *Manual {
	return &Manual{online: online}
}

func (m *Manual) Fetch(context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Online: m.online}, nil
}

func (m *Manual) Subscribe(fn func(State)) func() {
	return m.subs.add(fn)
}

// Set updates the state and notifies subscribers if it changed.
func (m *Manual) Set(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.mu.Unlock()

	if changed {
		m.subs.notify(State{Online: online})
	}
}

// Subscribers reports how many listeners are registered.
func (m *Manual) Subscribers() int {
	return m.subs.len()
}
