package utils

import (
	"sync"
	"time"
)

// Day reset and full-replace import are multi-statement sequences with no
// wrapping transaction; letting them interleave for one user can wipe
// habits mid-reset. A per-user mutex serializes the two against each other.
// Entries expire so the map does not grow with every user ever seen.

type userLock struct {
	mu      sync.Mutex
	expires time.Time
}

var (
	userLocks   = map[string]*userLock{}
	userLocksMu sync.Mutex
)

// LockUser acquires the per-user write lock and returns its release func.
func LockUser(userID string) func() {
	l := getUserLock(userID)
	l.mu.Lock()
	return l.mu.Unlock
}

func getUserLock(userID string) *userLock {
	userLocksMu.Lock()
	defer userLocksMu.Unlock()

	now := time.Now()
	for id, l := range userLocks {
		// Only reap locks nobody holds
		if now.After(l.expires) && l.mu.TryLock() {
			l.mu.Unlock()
			delete(userLocks, id)
		}
	}

	if l, ok := userLocks[userID]; ok {
		l.expires = now.Add(10 * time.Minute)
		return l
	}
	l := &userLock{expires: now.Add(10 * time.Minute)}
	userLocks[userID] = l
	return l
}
