// Package connectivity reports whether the backend is reachable and notifies
// subscribers when that changes.
package connectivity

import (
	"context"
	"sync"
)

// State is a snapshot of network reachability.
type State struct {
	Online bool
}

// Source is the connectivity provider consumed by the sync manager.
type Source interface {
	// Fetch returns the current state.
	Fetch(ctx context.Context) (State, error)
	// Subscribe registers fn for state changes and returns a function that
	// removes it. fn must not block.
	Subscribe(fn func(State)) (unsubscribe func())
}

// listeners is a small registry shared by the Source implementations.
type listeners struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(State)
}

func (l *listeners) add(fn func(State)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(State))
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners) notify(s State) {
	l.mu.Lock()
	fns := make([]func(State), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (l *listeners) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
