// Package userlock serializes achievement processing per user.
//
// All progress updates for one user run under that user's lock, so two
// events for the same user never evaluate against the same stale progress.
// Different users proceed in parallel.
package userlock

import (
	"context"
	"sync"
)

// Locker acquires a named exclusive lock.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done. The
	// returned function releases the lock and is safe to call once.
	Lock(ctx context.Context, key string) (func(), error)
}

// Local is an in-process Locker. The zero value is ready to use.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{} // holds one token while the lock is held
	refs int
}

var _ Locker = (*Local)(nil)

// NewLocal returns an empty in-process locker.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquireEntry(key)

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseEntry(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.releaseEntry(key, e)
		})
	}, nil
}

func (l *Local) acquireEntry(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locks == nil {
		l.locks = make(map[string]*entry)
	}
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Local) releaseEntry(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// held reports how many keys currently have waiters or holders.
func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
