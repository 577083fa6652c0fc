package countdown

import (
	"sync"
	"testing"
	"time"
)

func TestCondNotifier_WakesAllWaiters(t *testing.T) {
	var mu sync.Mutex
	cv := sync.NewCond(&mu)

	const waiters = 3
	var wg sync.WaitGroup
	ready := make(chan struct{}, waiters)
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			mu.Lock()
			ready <- struct{}{}
			cv.Wait()
			mu.Unlock()
		}()
	}
	for i := 0; i < waiters; i++ {
		<-ready
	}

	// Every waiter signalled ready under the lock, so each is either
	// parked in Wait or still holding the lock; Broadcast reacquires
	// the lock first and therefore wakes them all.
	NewCondNotifier(cv).Broadcast()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all waiters were woken by Broadcast")
	}
}
