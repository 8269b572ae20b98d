package timer

import "sync"

// keyedMutex serializes work per key. Entries are refcounted and removed when
// the last holder unlocks, so the map does not grow with the number of event
// names ever seen.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock acquires the mutex for key and returns the matching unlock func.
func (km *keyedMutex) Lock(key string) func() {
	km.mu.Lock()
	kl, ok := km.locks[key]
	if !ok {
		kl = &keyLock{}
		km.locks[key] = kl
	}
	kl.refs++
	km.mu.Unlock()

	kl.mu.Lock()

	return func() {
		kl.mu.Unlock()

		km.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}
}
