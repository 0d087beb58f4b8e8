package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Expirer is the slice of the reservation service the consumer needs.
type Expirer interface {
	ExpireReservation(ctx context.Context, reservationID uint64) error
}

// StartExpireConsumer connects to RabbitMQ, declares the expiry queues
// and consumes due expiration messages, invoking the expire path for
// each.  It runs a reconnect loop with exponential backoff and keeps
// running across broker outages; it only returns on unrecoverable
// configuration errors.  Storage failures during an expiry are nacked
// with requeue so broker redelivery acts as the retry policy; the
// expire path's status guard makes every redelivery a safe no-op once
// the transition has committed.
func StartExpireConsumer(url string, svc Expirer) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("expire-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, svc); err != nil {
			log.Printf("expire-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, svc Expirer) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("expire-consumer: set QoS failed: %v", err)
	}

	if err := declareQueues(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(expireQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		err := handleMessage(d.Body, svc)
		if err == nil {
			_ = d.Ack(false)
			continue
		}
		log.Printf("expire-consumer: handle message failed: %v", err)
		if errors.Is(err, errBadPayload) {
			_ = d.Nack(false, false) // malformed, do not requeue
			continue
		}
		// Storage error: requeued messages are redelivered immediately,
		// so pause first or a down database spins the consumer hot.
		time.Sleep(requeueDelay)
		_ = d.Nack(false, true)
	}
	return errors.New("deliveries channel closed")
}

// requeueDelay throttles redelivery of expirations that failed on a
// storage error.
const requeueDelay = 2 * time.Second

var errBadPayload = errors.New("bad payload")

func handleMessage(body []byte, svc Expirer) error {
	var ev ReservationExpireEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if ev.ReservationID == 0 {
		return fmt.Errorf("%w: missing reservation_id", errBadPayload)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := svc.ExpireReservation(ctx, ev.ReservationID); err != nil {
		return fmt.Errorf("expire reservation %d: %w", ev.ReservationID, err)
	}
	return nil
}
