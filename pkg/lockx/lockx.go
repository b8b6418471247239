package lockx

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// Keyed hands out one context-aware mutex per key. Entries are dropped once
// nobody holds or waits on them.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

// Acquire blocks until the key is free or ctx is done. The returned unlock
// func is safe to call more than once.
func (k *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				k.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}
}

// Len is the number of keys currently held or waited on
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *Keyed) release(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}
