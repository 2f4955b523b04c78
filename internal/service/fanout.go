package service

import (
	"context"
	"fmt"
	"log"

	"github.com/ecarfleet/fleet-api/internal/model"
	"github.com/ecarfleet/fleet-api/internal/queue"
)

// NotificationStore is the slice of the notification repository
// fan-out needs.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

// JobPublisher submits one delivery job to the message queue.  The
// send is best effort, at most once: a publish failure is recorded in
// the log and nowhere else.
type JobPublisher interface {
	Publish(ctx context.Context, job queue.DeliveryJob) error
}

// Fanout durably records one notification per resolved recipient and
// enqueues one delivery job for each.  The notification row is always
// persisted before its job so the mailer worker can resolve the id it
// is handed.  There is no cross-recipient transaction: a failure for
// one recipient skips that recipient and moves on.
type Fanout struct {
	Notifications NotificationStore
	Publisher     JobPublisher
	FrontendURL   string
}

func NewFanout(store NotificationStore, pub JobPublisher, frontendURL string) *Fanout {
	return &Fanout{Notifications: store, Publisher: pub, FrontendURL: frontendURL}
}

// NotifyOdometerRequest fans an odometer-request out to the given
// recipients for the given session.  It returns the number of
// notifications successfully recorded; callers treat the whole thing
// as fire-and-forget and must not fail session creation on any
// outcome here.
func (f *Fanout) NotifyOdometerRequest(ctx context.Context, session model.ChargeSession, vehicle model.Vehicle, stationName string, recipients []model.User) int {
	subject, body := f.renderOdometerRequest(vehicle, stationName)
	created := 0
	for _, u := range recipients {
		sessionID := session.ID
		n := &model.Notification{
			UserID:    u.ID,
			SessionID: &sessionID,
			Type:      model.TypeOdometerRequest,
			Subject:   subject,
			Body:      body,
		}
		if err := f.Notifications.Create(ctx, n); err != nil {
			log.Printf("fanout: create notification for user %d failed: %v", u.ID, err)
			continue
		}
		created++
		job := queue.DeliveryJob{
			NotificationID: n.ID,
			UserID:         u.ID,
			Email:          u.Email,
			Type:           model.TypeOdometerRequest,
			SessionID:      session.ID,
		}
		if err := f.Publisher.Publish(ctx, job); err != nil {
			// Row stays QUEUED; delivery is best effort.
			log.Printf("fanout: enqueue delivery for notification %d failed: %v", n.ID, err)
		}
	}
	return created
}

// renderOdometerRequest builds the email subject and HTML body for an
// odometer request.  The body links the driver straight to the
// odometer entry page.
func (f *Fanout) renderOdometerRequest(vehicle model.Vehicle, stationName string) (string, string) {
	subject := fmt.Sprintf("Odometer reading required – %s", vehicle.RegistrationNo)
	station := ""
	if stationName != "" {
		station = fmt.Sprintf(" at %s", stationName)
	}
	link := f.FrontendURL + "/odometer"
	body := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2563eb;">Odometer reading required</h2>
  <p>Hello,</p>
  <p>A new charge was recorded for %s %s (%s)%s. Please enter the current odometer reading to complete the session.</p>
  <div style="margin: 30px 0;">
    <a href="%s" style="background-color: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;">
      Enter odometer reading
    </a>
  </div>
  <p style="color: #666; font-size: 14px;">If the button does not work, copy this link into your browser:</p>
  <p style="color: #666; font-size: 14px;">%s</p>
</div>`,
		vehicle.Make, vehicle.Model, vehicle.RegistrationNo, station, link, link)
	return subject, body
}
