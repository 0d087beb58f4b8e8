// Package scheduler provides an in-process one-shot timer facility for
// expiring reservations when no message broker is configured.  Pending
// timers do not survive a restart; the service re-derives them from the
// persisted expiration timestamps at startup, so the timers here are a
// latency optimization over the recovery scan, not the source of truth.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// ExpireFunc is the expire path invoked when a timer fires.
type ExpireFunc func(ctx context.Context, reservationID uint64) error

// Timer arms one time.AfterFunc per reservation.  Firing is
// at-least-once: a failed expire attempt is re-armed after a short
// delay, which is safe because the expire path is idempotent.
type Timer struct {
	expire     ExpireFunc
	retryDelay time.Duration
	fireWindow time.Duration

	mu     sync.Mutex
	timers map[uint64]*time.Timer
}

// NewTimer constructs a Timer around the given expire path.
func NewTimer(expire ExpireFunc) *Timer {
	return &Timer{
		expire:     expire,
		retryDelay: 5 * time.Second,
		fireWindow: 10 * time.Second,
		timers:     make(map[uint64]*time.Timer),
	}
}

// Schedule arms a one-shot timer for the reservation.  A reservation
// that already has a pending timer is left alone, so recovery re-arming
// and duplicate calls never stack timers.  The context is accepted for
// interface symmetry with the broker-backed scheduler; arming itself
// never blocks.
func (t *Timer) Schedule(_ context.Context, reservationID uint64, delay time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, armed := t.timers[reservationID]; armed {
		return nil
	}
	t.timers[reservationID] = time.AfterFunc(delay, func() { t.fire(reservationID) })
	return nil
}

func (t *Timer) fire(reservationID uint64) {
	t.mu.Lock()
	delete(t.timers, reservationID)
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.fireWindow)
	defer cancel()
	if err := t.expire(ctx, reservationID); err != nil {
		log.Printf("scheduler: expire reservation %d failed: %v; retrying in %s", reservationID, err, t.retryDelay)
		_ = t.Schedule(ctx, reservationID, t.retryDelay)
	}
}

// Stop cancels all pending timers.  Leases armed before Stop are picked
// up by the recovery scan on the next boot.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}
