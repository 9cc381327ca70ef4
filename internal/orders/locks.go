package orders

import (
	"fmt"
	"sync"
)

// keyedMutex serializes updates per record. An update on one order or
// table runs to completion (transition, total recompute, persist) before
// the next update on the same record begins; different records proceed in
// parallel. Lock order is always order before table, so holders never
// deadlock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func orderKey(id uint) string { return fmt.Sprintf("order/%d", id) }
func tableKey(id uint) string { return fmt.Sprintf("table/%d", id) }
