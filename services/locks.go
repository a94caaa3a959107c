package services

import "sync"

// FixtureLocks serializes writers of one fixture's match graph. Readers share the lock so they
// never observe a half-propagated result.
type FixtureLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.RWMutex
}

func NewFixtureLocks() *FixtureLocks {
	return &FixtureLocks{locks: make(map[int]*sync.RWMutex)}
}

func (l *FixtureLocks) get(fixtureID int) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[fixtureID]
	if !ok {
		lock = &sync.RWMutex{}
		l.locks[fixtureID] = lock
	}
	return lock
}

// Lock takes the write lock of a fixture and returns its release func.
func (l *FixtureLocks) Lock(fixtureID int) func() {
	lock := l.get(fixtureID)
	lock.Lock()
	return lock.Unlock
}

// RLock takes the read lock of a fixture and returns its release func.
func (l *FixtureLocks) RLock(fixtureID int) func() {
	lock := l.get(fixtureID)
	lock.RLock()
	return lock.RUnlock
}
