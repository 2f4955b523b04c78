package model

import "time"

// Notification delivery statuses.  QUEUED is the initial state; SENT
// and FAILED are terminal for the delivery attempt; SEEN can follow
// SENT once the recipient views the notification.
const (
    NotificationQueued = "QUEUED"
    NotificationSent   = "SENT"
    NotificationFailed = "FAILED"
    NotificationSeen   = "SEEN"
)

// Notification types.  The type value travels in the queue job and
// selects the email template used by the mailer worker.
const (
    TypeOdometerRequest  = "odometer_request"
    TypeOdometerReminder = "odometer_reminder"
    TypeSystem           = "system"
)

// Notification represents one outbound message tied to one recipient
// and, optionally, one charge session.  Exactly one row is created
// per resolved recipient per triggering event.  The row is written
// synchronously during fan-out; the mailer worker updates it
// asynchronously when the queued delivery job completes or fails.
type Notification struct {
    ID            uint64     `json:"id"`                       // notifications.id
    UserID        uint64     `json:"user_id"`                  // notifications.user_id
    SessionID     *uint64    `json:"session_id,omitempty"`     // notifications.session_id (nullable)
    Type          string     `json:"type"`                     // notifications.type
    Subject       string     `json:"subject"`                  // notifications.subject
    Body          string     `json:"body"`                     // notifications.body
    Status        string     `json:"status"`                   // notifications.status
    SentAt        *time.Time `json:"sent_at,omitempty"`        // notifications.sent_at (nullable)
    SeenAt        *time.Time `json:"seen_at,omitempty"`        // notifications.seen_at (nullable)
    FailedAt      *time.Time `json:"failed_at,omitempty"`      // notifications.failed_at (nullable)
    FailureReason *string    `json:"failure_reason,omitempty"` // notifications.failure_reason (nullable)
    Metadata      *string    `json:"metadata,omitempty"`       // notifications.metadata (JSON, nullable)
    CreatedAt     time.Time  `json:"created_at"`               // notifications.created_at
}
