// Package queue defines the message payloads exchanged over the
// message broker, the publisher used during notification fan-out,
// and the mailer worker that drains the queue.
package queue

// OdometerQueueName is the durable queue carrying odometer-request
// delivery jobs.  Fan-out publishes to it; the mailer worker consumes
// from it.
const OdometerQueueName = "notifications.odometer"

// DeliveryJob is one queued email delivery.  The notification row is
// always persisted before the job referencing it is published, so a
// consumer can resolve NotificationID unconditionally.  The payload
// carries enough to address the email without further lookups of the
// recipient.
type DeliveryJob struct {
	NotificationID uint64 `json:"notification_id"`
	UserID         uint64 `json:"user_id"`
	Email          string `json:"email"`
	Type           string `json:"type"`
	SessionID      uint64 `json:"session_id"`
}
