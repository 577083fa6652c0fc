package countdown

import "sync"

// Notifier is the expiry signal contract. The timer only ever calls
// Broadcast on it; waiting is the consumers' side of the contract.
// Broadcast should wake every waiter, since any number of observers may
// be watching one timer.
type Notifier interface {
	Broadcast()
}

// CondNotifier adapts a *sync.Cond shared with the timer's consumers.
// Broadcast acquires the cond's paired lock only for the duration of
// the signal, so the lock is never held across a countdown.
type CondNotifier struct {
	Cond *sync.Cond
}

// NewCondNotifier wraps cv in a CondNotifier.
func NewCondNotifier(cv *sync.Cond) CondNotifier {
	return CondNotifier{Cond: cv}
}

// Broadcast wakes all goroutines waiting on the cond.
func (n CondNotifier) Broadcast() {
	n.Cond.L.Lock()
	n.Cond.Broadcast()
	n.Cond.L.Unlock()
}
