package service

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// inflight is a keyed try-lock suppressing duplicate concurrent verification
// of the same (email, code) pair within this process. It is deliberately not
// a cross-instance guarantee: the durable attempt counter in the store owns
// correctness, this only stops double-submit clicks from spending two
// attempts.
type inflight struct {
	mu   sync.Mutex
	keys map[string]*semaphore.Weighted
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]*semaphore.Weighted)}
}

func (f *inflight) tryAcquire(key string) bool {
	f.mu.Lock()
	sem, ok := f.keys[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		f.keys[key] = sem
	}
	f.mu.Unlock()
	return sem.TryAcquire(1)
}

func (f *inflight) release(key string) {
	f.mu.Lock()
	sem := f.keys[key]
	delete(f.keys, key)
	f.mu.Unlock()
	if sem != nil {
		sem.Release(1)
	}
}
