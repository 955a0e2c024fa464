package resilience

import "sync"

// SingleFlight collapses concurrent loads of the same key into one call.
// Waiters receive the leader's value and error.
type SingleFlight[T any] struct {
	mu       sync.Mutex
	inflight map[string]*flight[T]
}

type flight[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Do runs load for key unless a call for key is already running. shared
// reports whether the result came from another caller's load.
func (g *SingleFlight[T]) Do(key string, load func() (T, error)) (val T, shared bool, err error) {
	g.mu.Lock()
	if g.inflight == nil {
		g.inflight = make(map[string]*flight[T])
	}
	if f, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		<-f.done
		return f.val, true, f.err
	}

	f := &flight[T]{done: make(chan struct{})}
	g.inflight[key] = f
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
		close(f.done)
	}()

	f.val, f.err = load()
	return f.val, false, f.err
}
