package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecarfleet/fleet-api/internal/model"
)

func activeUser(id uint64, email string) *model.User {
	return &model.User{ID: id, Email: email, IsActive: true}
}

func TestResolveRecipients_AssignedDriverFirst(t *testing.T) {
	driverID := uint64(1)
	v := &model.Vehicle{
		ID:               10,
		AssignedDriverID: &driverID,
		AssignedDriver:   activeUser(1, "driver@fleet.test"),
		DriverLinks: []model.UserVehicle{
			{UserID: 2, User: activeUser(2, "second@fleet.test")},
			{UserID: 3, User: activeUser(3, "third@fleet.test")},
		},
	}

	got := ResolveRecipients(v)

	assert.Len(t, got, 3)
	assert.Equal(t, uint64(1), got[0].ID, "assigned driver must come first")
	assert.Equal(t, uint64(2), got[1].ID)
	assert.Equal(t, uint64(3), got[2].ID)
}

func TestResolveRecipients_DeduplicatesAssignedDriverLink(t *testing.T) {
	// The assigned driver also appears as a secondary link; they must
	// receive exactly one notification.
	driverID := uint64(1)
	v := &model.Vehicle{
		AssignedDriverID: &driverID,
		AssignedDriver:   activeUser(1, "driver@fleet.test"),
		DriverLinks: []model.UserVehicle{
			{UserID: 1, User: activeUser(1, "driver@fleet.test")},
			{UserID: 2, User: activeUser(2, "second@fleet.test")},
		},
	}

	got := ResolveRecipients(v)

	assert.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, uint64(2), got[1].ID)
}

func TestResolveRecipients_DropsInactiveUsers(t *testing.T) {
	driverID := uint64(1)
	inactive := &model.User{ID: 1, Email: "gone@fleet.test", IsActive: false}
	v := &model.Vehicle{
		AssignedDriverID: &driverID,
		AssignedDriver:   inactive,
		DriverLinks: []model.UserVehicle{
			{UserID: 2, User: activeUser(2, "second@fleet.test")},
			{UserID: 3, User: &model.User{ID: 3, IsActive: false}},
		},
	}

	got := ResolveRecipients(v)

	assert.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].ID)
}

func TestResolveRecipients_NoDriversAtAll(t *testing.T) {
	got := ResolveRecipients(&model.Vehicle{ID: 7})
	assert.NotNil(t, got)
	assert.Empty(t, got, "a vehicle without drivers resolves to zero recipients")
}
