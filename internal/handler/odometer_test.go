package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecarfleet/fleet-api/internal/model"
	"github.com/ecarfleet/fleet-api/internal/service"
)

// fakeSubmitter returns a canned result or error and records the
// submission it received.
type fakeSubmitter struct {
	got    *service.OdometerSubmission
	result *model.OdometerReading
	err    error
}

func (f *fakeSubmitter) Submit(_ context.Context, sub service.OdometerSubmission) (*model.OdometerReading, error) {
	f.got = &sub
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeReadings struct {
	latest map[uint64]*model.OdometerReading
	lists  map[uint64][]model.OdometerReading
}

func (f *fakeReadings) LatestByVehicle(_ context.Context, vehicleID uint64) (*model.OdometerReading, error) {
	return f.latest[vehicleID], nil
}

func (f *fakeReadings) ListByVehicle(_ context.Context, vehicleID uint64) ([]model.OdometerReading, error) {
	return f.lists[vehicleID], nil
}

func newOdometerHandler(sub *fakeSubmitter, vehicles *fakeVehicles) *OdometerHandler {
	return NewOdometerHandler(sub, &fakeReadings{
		latest: map[uint64]*model.OdometerReading{},
		lists:  map[uint64][]model.OdometerReading{},
	}, vehicles)
}

func linkedVehicles() *fakeVehicles {
	return &fakeVehicles{byDriver: map[uint64][]model.Vehicle{
		100: {driverVehicle(7)},
	}}
}

func TestSubmitReading_Success(t *testing.T) {
	e := echo.New()
	sub := &fakeSubmitter{result: &model.OdometerReading{ID: 1, VehicleID: 7, ReadingKm: 45250, EnteredBy: 100}}
	h := newOdometerHandler(sub, linkedVehicles())

	body := `{"vehicle_id":7,"session_id":5,"reading_km":45250}`
	c, rec := doJSON(e, http.MethodPost, "/v1/odometer", body, 100, model.RoleDriver)

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, sub.got)
	assert.Equal(t, uint64(7), sub.got.VehicleID)
	require.NotNil(t, sub.got.SessionID)
	assert.Equal(t, uint64(5), *sub.got.SessionID)
	assert.Equal(t, uint64(100), sub.got.EnteredBy, "entered_by comes from the JWT, not the body")
	assert.False(t, sub.got.ReadingAt.IsZero(), "reading_at defaults to now")
}

func TestSubmitReading_DriverNotOnVehicle(t *testing.T) {
	e := echo.New()
	sub := &fakeSubmitter{}
	h := newOdometerHandler(sub, linkedVehicles())

	body := `{"vehicle_id":7,"reading_km":100}`
	c, rec := doJSON(e, http.MethodPost, "/v1/odometer", body, 999, model.RoleDriver)

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, sub.got, "submission must not reach the service")
}

func TestSubmitReading_FleetManagerSkipsVehicleScope(t *testing.T) {
	e := echo.New()
	sub := &fakeSubmitter{result: &model.OdometerReading{ID: 1}}
	h := newOdometerHandler(sub, &fakeVehicles{})

	body := `{"vehicle_id":7,"reading_km":100}`
	c, rec := doJSON(e, http.MethodPost, "/v1/odometer", body, 1, model.RoleFleetManager)

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSubmitReading_ErrorMapping(t *testing.T) {
	e := echo.New()
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"session not found", service.ErrSessionNotFound, http.StatusNotFound},
		{"session not pending", service.ErrSessionNotPending, http.StatusBadRequest},
		{"vehicle mismatch", service.ErrVehicleMismatch, http.StatusBadRequest},
		{"reading not greater", service.ErrReadingNotGreater, http.StatusBadRequest},
		{"distance too large", service.ErrDistanceTooLarge, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newOdometerHandler(&fakeSubmitter{err: tc.err}, linkedVehicles())
			body := `{"vehicle_id":7,"reading_km":100}`
			c, rec := doJSON(e, http.MethodPost, "/v1/odometer", body, 100, model.RoleDriver)
			require.NoError(t, h.Submit(c))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestSubmitReading_InvalidBody(t *testing.T) {
	e := echo.New()
	h := newOdometerHandler(&fakeSubmitter{}, linkedVehicles())

	cases := []struct {
		name string
		body string
	}{
		{"missing vehicle", `{"reading_km":100}`},
		{"zero reading", `{"vehicle_id":7,"reading_km":0}`},
		{"negative reading", `{"vehicle_id":7,"reading_km":-5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := doJSON(e, http.MethodPost, "/v1/odometer", tc.body, 100, model.RoleDriver)
			require.NoError(t, h.Submit(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLatestReading_NullWhenNone(t *testing.T) {
	e := echo.New()
	h := newOdometerHandler(&fakeSubmitter{}, linkedVehicles())

	c, rec := doJSON(e, http.MethodGet, "/", "", 100, model.RoleDriver)
	c.SetPath("/v1/odometer/vehicle/:vehicleId/latest")
	c.SetParamNames("vehicleId")
	c.SetParamValues("7")

	require.NoError(t, h.Latest(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reading":null`)
}

func TestLatestReading_ReturnsNewest(t *testing.T) {
	e := echo.New()
	h := newOdometerHandler(&fakeSubmitter{}, linkedVehicles())
	h.Readings = &fakeReadings{latest: map[uint64]*model.OdometerReading{
		7: {ID: 4, VehicleID: 7, ReadingKm: 45250},
	}}

	c, rec := doJSON(e, http.MethodGet, "/", "", 100, model.RoleDriver)
	c.SetPath("/v1/odometer/vehicle/:vehicleId/latest")
	c.SetParamNames("vehicleId")
	c.SetParamValues("7")

	require.NoError(t, h.Latest(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reading_km":45250`)
}
