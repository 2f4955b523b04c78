package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecarfleet/fleet-api/internal/model"
	"github.com/ecarfleet/fleet-api/internal/queue"
)

type fakeNotificationStore struct {
	created []*model.Notification
	failFor map[uint64]error // user id -> error
	nextID  uint64
}

func (f *fakeNotificationStore) Create(_ context.Context, n *model.Notification) error {
	if err := f.failFor[n.UserID]; err != nil {
		return err
	}
	f.nextID++
	n.ID = f.nextID
	n.Status = model.NotificationQueued
	f.created = append(f.created, n)
	return nil
}

type fakePublisher struct {
	jobs []queue.DeliveryJob
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, job queue.DeliveryJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func TestNotifyOdometerRequest_OneRowAndJobPerRecipient(t *testing.T) {
	store := &fakeNotificationStore{}
	pub := &fakePublisher{}
	f := NewFanout(store, pub, "http://fleet.test")

	session := model.ChargeSession{ID: 42, VehicleID: 7}
	vehicle := model.Vehicle{ID: 7, Make: "Renault", Model: "Zoe", RegistrationNo: "CB1234AB"}
	recipients := []model.User{
		{ID: 1, Email: "a@fleet.test", IsActive: true},
		{ID: 2, Email: "b@fleet.test", IsActive: true},
	}

	n := f.NotifyOdometerRequest(context.Background(), session, vehicle, "Mall Sofia", recipients)

	assert.Equal(t, 2, n)
	require.Len(t, store.created, 2)
	require.Len(t, pub.jobs, 2)

	first := store.created[0]
	assert.Equal(t, model.TypeOdometerRequest, first.Type)
	assert.Equal(t, model.NotificationQueued, first.Status)
	require.NotNil(t, first.SessionID)
	assert.Equal(t, uint64(42), *first.SessionID)
	assert.Contains(t, first.Subject, "CB1234AB")
	assert.Contains(t, first.Body, "http://fleet.test/odometer")
	assert.Contains(t, first.Body, "Mall Sofia")

	job := pub.jobs[0]
	assert.Equal(t, first.ID, job.NotificationID, "job must carry the persisted row id")
	assert.Equal(t, uint64(1), job.UserID)
	assert.Equal(t, "a@fleet.test", job.Email)
	assert.Equal(t, uint64(42), job.SessionID)
}

func TestNotifyOdometerRequest_SkipsFailedRecipient(t *testing.T) {
	store := &fakeNotificationStore{failFor: map[uint64]error{1: errors.New("insert failed")}}
	pub := &fakePublisher{}
	f := NewFanout(store, pub, "http://fleet.test")

	recipients := []model.User{
		{ID: 1, Email: "a@fleet.test"},
		{ID: 2, Email: "b@fleet.test"},
	}
	n := f.NotifyOdometerRequest(context.Background(), model.ChargeSession{ID: 1}, model.Vehicle{}, "", recipients)

	assert.Equal(t, 1, n, "the failing recipient is skipped, not fatal")
	require.Len(t, pub.jobs, 1)
	assert.Equal(t, uint64(2), pub.jobs[0].UserID)
}

func TestNotifyOdometerRequest_PublishFailureKeepsRow(t *testing.T) {
	// A dead broker must not undo the durable notification row.
	store := &fakeNotificationStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	f := NewFanout(store, pub, "http://fleet.test")

	n := f.NotifyOdometerRequest(context.Background(), model.ChargeSession{ID: 1}, model.Vehicle{},
		"", []model.User{{ID: 1, Email: "a@fleet.test"}})

	assert.Equal(t, 1, n)
	require.Len(t, store.created, 1)
	assert.Equal(t, model.NotificationQueued, store.created[0].Status)
}

func TestNotifyOdometerRequest_NoRecipients(t *testing.T) {
	store := &fakeNotificationStore{}
	pub := &fakePublisher{}
	f := NewFanout(store, pub, "http://fleet.test")

	n := f.NotifyOdometerRequest(context.Background(), model.ChargeSession{ID: 1}, model.Vehicle{}, "", nil)

	assert.Zero(t, n)
	assert.Empty(t, store.created)
	assert.Empty(t, pub.jobs)
}
