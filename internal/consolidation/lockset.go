package consolidation

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// lockset is an in-process keyed mutex. Keys are always acquired in sorted
// order so two callers sharing any key cannot deadlock.
type lockset struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newLockset() *lockset {
	return &lockset{locks: make(map[string]*keyLock)}
}

func catalogKey(id int64) string { return fmt.Sprintf("catalog:%d", id) }
func mantaKey(id int64) string   { return fmt.Sprintf("manta:%d", id) }

// Acquire blocks until every key is held or ctx is done. The returned
// release func must be called exactly once.
func (l *lockset) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]string, 0, len(keys))
	for _, key := range keys {
		entry := l.ref(key)
		select {
		case entry.ch <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			l.unref(key)
			l.release(held)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held) }) }, nil
}

func (l *lockset) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	return entry
}

func (l *lockset) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *lockset) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		entry := l.locks[keys[i]]
		l.mu.Unlock()
		<-entry.ch
		l.unref(keys[i])
	}
}

// size reports how many keys are tracked.
func (l *lockset) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
