package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// NotificationStatusStore is the slice of the notification repository
// the worker needs: resolving the row it was handed and recording the
// delivery outcome.
type NotificationStatusStore interface {
	GetByID(ctx context.Context, id uint64) (model.Notification, error)
	MarkSent(ctx context.Context, id uint64, metadata string) error
	MarkFailed(ctx context.Context, id uint64, reason string) error
}

// Sender performs one email delivery and returns the provider message
// identifier.
type Sender interface {
	Send(to, subject, htmlBody string) (string, error)
}

// Worker consumes delivery jobs and performs the actual email
// delivery, recording success or failure back onto the notification
// row.  A delivery failure is swallowed after being recorded: it does
// not re-fail the job at the queue level and is never retried here.
type Worker struct {
	Notifications NotificationStatusStore
	Mailer        Sender
}

func NewWorker(store NotificationStatusStore, mailer Sender) *Worker {
	return &Worker{Notifications: store, Mailer: mailer}
}

// StartConsumer connects to RabbitMQ, declares the odometer
// notification queue (durable), and starts consuming delivery jobs.
// It runs a reconnect loop with backoff and keeps running across
// broker restarts; processing errors are logged and the offending
// message is rejected without requeue so the worker continues
// operating.
func StartConsumer(w *Worker) error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("mailer-worker: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := w.consumeLoop(conn); err != nil {
			log.Printf("mailer-worker: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func (w *Worker) consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("mailer-worker: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(OdometerQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(OdometerQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := w.handleJob(context.Background(), d.Body); err != nil {
			log.Printf("mailer-worker: handle job failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handleJob processes one delivery job.  A non-nil return means the
// message itself is unusable (malformed payload, unresolvable
// notification) and should be rejected; a delivery failure returns
// nil after being recorded on the notification row.
func (w *Worker) handleJob(ctx context.Context, body []byte) error {
	var job DeliveryJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if job.Email == "" {
		log.Printf("mailer-worker: no email on job for notification %d, skipping", job.NotificationID)
		return nil
	}

	n, err := w.Notifications.GetByID(ctx, job.NotificationID)
	if err != nil {
		return fmt.Errorf("load notification %d: %w", job.NotificationID, err)
	}

	msgID, err := w.Mailer.Send(job.Email, n.Subject, n.Body)
	if err != nil {
		log.Printf("mailer-worker: send to %s failed: %v", job.Email, err)
		if markErr := w.Notifications.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
			log.Printf("mailer-worker: record failure for notification %d failed: %v", n.ID, markErr)
		}
		return nil
	}

	meta, _ := json.Marshal(map[string]string{"message_id": msgID})
	if err := w.Notifications.MarkSent(ctx, n.ID, string(meta)); err != nil {
		log.Printf("mailer-worker: record delivery for notification %d failed: %v", n.ID, err)
	}
	log.Printf("mailer-worker: sent %s notification %d to %s (%s)", job.Type, n.ID, job.Email, msgID)
	return nil
}
