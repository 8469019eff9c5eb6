package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockUserSerializesSameUser(t *testing.T) {
	const workers = 20
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := LockUser("user-a")
			defer release()
			// Non-atomic on purpose; the lock must make it safe.
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestLockUserIndependentAcrossUsers(t *testing.T) {
	releaseA := LockUser("user-b")
	defer releaseA()

	// A different user's lock must not block while user-b is held.
	done := make(chan struct{})
	go func() {
		release := LockUser("user-c")
		release()
		close(done)
	}()
	<-done
}
