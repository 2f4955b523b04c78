package repository

import (
	"context"
	"database/sql"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// NotificationRepo provides persistence for notifications.  Rows are
// created synchronously during fan-out with status QUEUED; the mailer
// worker marks them SENT or FAILED after the delivery attempt, and
// recipients mark them SEEN when they view them.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

const notificationColumns = "id,user_id,session_id,type,subject,body,status,sent_at,seen_at,failed_at,failure_reason,metadata,created_at"

// Create inserts a notification with status QUEUED and populates the
// generated ID on the record.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (user_id, session_id, type, subject, body, status) VALUES (?,?,?,?,?,?)",
		n.UserID, nullID(n.SessionID), n.Type, n.Subject, n.Body, model.NotificationQueued)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	n.Status = model.NotificationQueued
	return nil
}

// GetByID fetches a notification by id.
func (r *NotificationRepo) GetByID(ctx context.Context, id uint64) (model.Notification, error) {
	return scanNotification(r.DB.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id=? LIMIT 1", id))
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotifications(rows)
}

// ListAll returns every notification, newest first.
func (r *NotificationRepo) ListAll(ctx context.Context) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotifications(rows)
}

// MarkSent records a successful delivery: status SENT, sent
// timestamp, and the provider message id in metadata.
func (r *NotificationRepo) MarkSent(ctx context.Context, id uint64, metadata string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET status=?, sent_at=NOW(), metadata=? WHERE id=?",
		model.NotificationSent, metadata, id)
	return err
}

// MarkFailed records a failed delivery with the error's message text.
func (r *NotificationRepo) MarkFailed(ctx context.Context, id uint64, reason string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET status=?, failed_at=NOW(), failure_reason=? WHERE id=?",
		model.NotificationFailed, reason, id)
	return err
}

// MarkSeen flips a SENT notification owned by the given user to SEEN.
// Returns ErrConflict when the notification is not in a seeable state
// and sql.ErrNoRows when it does not belong to the user.
func (r *NotificationRepo) MarkSeen(ctx context.Context, id, userID uint64) error {
	n, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return sql.ErrNoRows
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET status=?, seen_at=NOW() WHERE id=? AND status=?",
		model.NotificationSeen, id, model.NotificationSent)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

func scanNotification(sc rowScanner) (model.Notification, error) {
	var (
		n         model.Notification
		sessionID sql.NullInt64
		sentAt    sql.NullTime
		seenAt    sql.NullTime
		failedAt  sql.NullTime
		reason    sql.NullString
		metadata  sql.NullString
	)
	err := sc.Scan(&n.ID, &n.UserID, &sessionID, &n.Type, &n.Subject, &n.Body, &n.Status,
		&sentAt, &seenAt, &failedAt, &reason, &metadata, &n.CreatedAt)
	if err != nil {
		return model.Notification{}, err
	}
	n.SessionID = ptrID(sessionID)
	n.SentAt = ptrTime(sentAt)
	n.SeenAt = ptrTime(seenAt)
	n.FailedAt = ptrTime(failedAt)
	n.FailureReason = ptrString(reason)
	n.Metadata = ptrString(metadata)
	return n, nil
}

func collectNotifications(rows *sql.Rows) ([]model.Notification, error) {
	out := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
