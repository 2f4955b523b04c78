package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecarfleet/fleet-api/internal/model"
)

type fakeStatusStore struct {
	rows   map[uint64]model.Notification
	sent   map[uint64]string // id -> metadata
	failed map[uint64]string // id -> reason
}

func newFakeStatusStore(rows ...model.Notification) *fakeStatusStore {
	s := &fakeStatusStore{
		rows:   map[uint64]model.Notification{},
		sent:   map[uint64]string{},
		failed: map[uint64]string{},
	}
	for _, r := range rows {
		s.rows[r.ID] = r
	}
	return s
}

func (s *fakeStatusStore) GetByID(_ context.Context, id uint64) (model.Notification, error) {
	n, ok := s.rows[id]
	if !ok {
		return model.Notification{}, sql.ErrNoRows
	}
	return n, nil
}

func (s *fakeStatusStore) MarkSent(_ context.Context, id uint64, metadata string) error {
	s.sent[id] = metadata
	return nil
}

func (s *fakeStatusStore) MarkFailed(_ context.Context, id uint64, reason string) error {
	s.failed[id] = reason
	return nil
}

type fakeMailer struct {
	sentTo   []string
	subjects []string
	msgID    string
	err      error
}

func (m *fakeMailer) Send(to, subject, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sentTo = append(m.sentTo, to)
	m.subjects = append(m.subjects, subject)
	return m.msgID, nil
}

func jobBody(t *testing.T, job DeliveryJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestHandleJob_SuccessMarksSentWithMessageID(t *testing.T) {
	store := newFakeStatusStore(model.Notification{
		ID: 1, UserID: 5, Subject: "Odometer reading required", Body: "<p>hi</p>",
		Status: model.NotificationQueued,
	})
	mail := &fakeMailer{msgID: "<abc@smtp.test>"}
	w := NewWorker(store, mail)

	err := w.handleJob(context.Background(), jobBody(t, DeliveryJob{
		NotificationID: 1, UserID: 5, Email: "d@fleet.test", Type: model.TypeOdometerRequest, SessionID: 9,
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"d@fleet.test"}, mail.sentTo)
	assert.Equal(t, []string{"Odometer reading required"}, mail.subjects)

	meta, ok := store.sent[1]
	require.True(t, ok, "notification must be marked SENT")
	var parsed map[string]string
	require.NoError(t, json.Unmarshal([]byte(meta), &parsed))
	assert.Equal(t, "<abc@smtp.test>", parsed["message_id"])
	assert.Empty(t, store.failed)
}

func TestHandleJob_DeliveryFailureMarksFailedAndAcks(t *testing.T) {
	store := newFakeStatusStore(model.Notification{ID: 1, Status: model.NotificationQueued})
	mail := &fakeMailer{err: errors.New("smtp 550 rejected")}
	w := NewWorker(store, mail)

	err := w.handleJob(context.Background(), jobBody(t, DeliveryJob{
		NotificationID: 1, Email: "d@fleet.test",
	}))
	assert.NoError(t, err, "delivery failure is recorded, not returned")
	assert.Equal(t, "smtp 550 rejected", store.failed[1])
	assert.Empty(t, store.sent)
}

func TestHandleJob_MalformedPayloadIsRejected(t *testing.T) {
	w := NewWorker(newFakeStatusStore(), &fakeMailer{})
	err := w.handleJob(context.Background(), []byte("{not json"))
	assert.Error(t, err)
}

func TestHandleJob_UnknownNotificationIsRejected(t *testing.T) {
	w := NewWorker(newFakeStatusStore(), &fakeMailer{msgID: "<x@y>"})
	err := w.handleJob(context.Background(), jobBody(t, DeliveryJob{
		NotificationID: 999, Email: "d@fleet.test",
	}))
	assert.Error(t, err)
}

func TestHandleJob_MissingEmailIsSkipped(t *testing.T) {
	store := newFakeStatusStore(model.Notification{ID: 1})
	mail := &fakeMailer{msgID: "<x@y>"}
	w := NewWorker(store, mail)

	err := w.handleJob(context.Background(), jobBody(t, DeliveryJob{NotificationID: 1}))
	assert.NoError(t, err)
	assert.Empty(t, mail.sentTo)
	assert.Empty(t, store.sent)
	assert.Empty(t, store.failed)
}
