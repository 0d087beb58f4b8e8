package queue

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// expireQueueName is the work queue the consumer reads from.
	expireQueueName = "reservation.expire"
	// waitQueueName parks messages until their TTL elapses, then
	// dead-letters them into the work queue.
	waitQueueName = "reservation.expire.wait"
)

// Publisher arms delayed expirations by publishing to the wait queue
// with a per-message TTL.  It satisfies the service's ExpiryScheduler
// interface.  All leases share one fixed duration, so the wait queue
// never suffers head-of-line blocking from mixed TTLs; the shorter TTLs
// published by startup recovery land before new leases are taken.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher that dials the broker at the given URL.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// Schedule publishes a persistent expiry message whose TTL equals the
// remaining lease delay.  The function never panics; any error is logged
// and returned so the caller can decide to ignore it (the recovery scan
// backstops a lost message).
func (p *Publisher) Schedule(ctx context.Context, reservationID uint64, delay time.Duration) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declareQueues(ch); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ReservationExpireEvent{
		ReservationID: reservationID,
		ExpiresAt:     time.Now().UTC().Add(delay).Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	ttl := delay.Milliseconds()
	if ttl < 0 {
		ttl = 0
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Expiration:   strconv.FormatInt(ttl, 10),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",            // default exchange
		waitQueueName, // routing key = queue name
		false,         // mandatory
		false,         // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// declareQueues declares the work queue and the TTL wait queue that
// dead-letters into it.  Declarations are idempotent; both queues are
// durable so pending expirations survive a broker restart.
func declareQueues(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(expireQueueName, true, false, false, false, nil); err != nil {
		return err
	}
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": expireQueueName,
	}
	_, err := ch.QueueDeclare(waitQueueName, true, false, false, false, args)
	return err
}
