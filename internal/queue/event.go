// Package queue implements the delayed-expiration mechanism on top of
// RabbitMQ.  Expiry events are published to a wait queue with a
// per-message TTL; when the TTL elapses the broker dead-letters the
// message into the work queue, where the consumer runs the expire path.
package queue

// ReservationExpireEvent is the payload carried by a delayed expiry
// message.  The expire path re-reads the reservation, so the event only
// needs to identify it; ExpiresAt is included for log correlation.
type ReservationExpireEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	ExpiresAt     string `json:"expires_at"`
}
