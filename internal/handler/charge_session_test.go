package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecarfleet/fleet-api/internal/model"
	"github.com/ecarfleet/fleet-api/internal/repository"
)

// ----- fakes -----

type fakeSessions struct {
	created *model.ChargeSession
	nextID  uint64
	details map[uint64]repository.SessionDetail
	pending map[uint64][]repository.SessionDetail
}

func (f *fakeSessions) Create(_ context.Context, s *model.ChargeSession) error {
	f.nextID++
	s.ID = f.nextID
	s.Status = model.SessionPendingOdometer
	f.created = s
	if f.details == nil {
		f.details = map[uint64]repository.SessionDetail{}
	}
	f.details[s.ID] = repository.SessionDetail{ChargeSession: *s}
	return nil
}

func (f *fakeSessions) GetDetail(_ context.Context, id uint64) (repository.SessionDetail, error) {
	d, ok := f.details[id]
	if !ok {
		return repository.SessionDetail{}, sql.ErrNoRows
	}
	return d, nil
}

func (f *fakeSessions) ListAll(_ context.Context) ([]repository.SessionDetail, error) {
	out := []repository.SessionDetail{}
	for _, d := range f.details {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeSessions) ListPendingByVehicle(_ context.Context, vehicleID uint64) ([]repository.SessionDetail, error) {
	return f.pending[vehicleID], nil
}

func (f *fakeSessions) ListByVehicles(_ context.Context, vehicleIDs []uint64) ([]repository.SessionDetail, error) {
	out := []repository.SessionDetail{}
	for _, d := range f.details {
		for _, id := range vehicleIDs {
			if d.VehicleID == id {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

type fakeVehicles struct {
	vehicles map[uint64]model.Vehicle
	byDriver map[uint64][]model.Vehicle
}

func (f *fakeVehicles) GetByID(_ context.Context, id uint64) (model.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return model.Vehicle{}, sql.ErrNoRows
	}
	return v, nil
}

func (f *fakeVehicles) GetWithDrivers(ctx context.Context, id uint64) (model.Vehicle, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeVehicles) ListByDriver(_ context.Context, userID uint64) ([]model.Vehicle, error) {
	return f.byDriver[userID], nil
}

type fakeCards struct {
	cards map[string]model.ChargeCard
}

func (f *fakeCards) GetByCardNumber(_ context.Context, number string) (model.ChargeCard, error) {
	c, ok := f.cards[number]
	if !ok {
		return model.ChargeCard{}, sql.ErrNoRows
	}
	return c, nil
}

type fakeStations struct{ stations map[uint64]model.Station }

func (f *fakeStations) GetByID(_ context.Context, id uint64) (model.Station, error) {
	s, ok := f.stations[id]
	if !ok {
		return model.Station{}, sql.ErrNoRows
	}
	return s, nil
}

type fakeTariffs struct{ tariffs map[uint64]model.Tariff }

func (f *fakeTariffs) GetByID(_ context.Context, id uint64) (model.Tariff, error) {
	t, ok := f.tariffs[id]
	if !ok {
		return model.Tariff{}, sql.ErrNoRows
	}
	return t, nil
}

type fakeNotifier struct {
	calls       int
	lastStation string
	lastSession model.ChargeSession
	recipients  []model.User
}

func (f *fakeNotifier) NotifyOdometerRequest(_ context.Context, session model.ChargeSession, _ model.Vehicle, stationName string, recipients []model.User) int {
	f.calls++
	f.lastStation = stationName
	f.lastSession = session
	f.recipients = recipients
	return len(recipients)
}

// ----- helpers -----

func driverVehicle(id uint64) model.Vehicle {
	driverID := uint64(100)
	return model.Vehicle{
		ID:               id,
		RegistrationNo:   "CB1234AB",
		Make:             "Renault",
		Model:            "Zoe",
		Status:           model.VehicleActive,
		AssignedDriverID: &driverID,
		AssignedDriver:   &model.User{ID: 100, Email: "driver@fleet.test", IsActive: true},
	}
}

func newSessionHandler(s *fakeSessions, v *fakeVehicles, n *fakeNotifier) *SessionHandler {
	return NewSessionHandler(s, v,
		&fakeCards{cards: map[string]model.ChargeCard{}},
		&fakeStations{stations: map[uint64]model.Station{}},
		&fakeTariffs{tariffs: map[uint64]model.Tariff{}}, n)
}

func doJSON(e *echo.Echo, method, target, body string, uid uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(uid)) // JWT middleware stores claims as float64
	c.Set("role", role)
	return c, rec
}

// ----- tests -----

func TestCreateSession_ByVehicleID(t *testing.T) {
	e := echo.New()
	sessions := &fakeSessions{}
	vehicles := &fakeVehicles{vehicles: map[uint64]model.Vehicle{7: driverVehicle(7)}}
	notifier := &fakeNotifier{}
	h := newSessionHandler(sessions, vehicles, notifier)

	body := `{"vehicle_id":7,"started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T11:00:00Z","kwh_charged":"50","price_total":"30"}`
	c, rec := doJSON(e, http.MethodPost, "/v1/charge-sessions", body, 1, model.RoleFleetManager)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, sessions.created)
	assert.Equal(t, uint64(7), sessions.created.VehicleID)
	assert.Equal(t, model.SessionPendingOdometer, sessions.created.Status)
	assert.Equal(t, uint64(1), sessions.created.CreatedBy)
	assert.Equal(t, "BGN", sessions.created.Currency, "currency defaults when no tariff is given")

	assert.Equal(t, 1, notifier.calls)
	require.Len(t, notifier.recipients, 1)
	assert.Equal(t, "driver@fleet.test", notifier.recipients[0].Email)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	var notified int
	require.NoError(t, json.Unmarshal(resp["notified"], &notified))
	assert.Equal(t, 1, notified)
}

func TestCreateSession_ByCardNumberNormalizesVehicle(t *testing.T) {
	e := echo.New()
	sessions := &fakeSessions{}
	vehicles := &fakeVehicles{vehicles: map[uint64]model.Vehicle{7: driverVehicle(7)}}
	notifier := &fakeNotifier{}
	h := newSessionHandler(sessions, vehicles, notifier)
	h.Cards = &fakeCards{cards: map[string]model.ChargeCard{
		"CARD-001": {ID: 3, CardNumber: "CARD-001", VehicleID: 7, IsActive: true},
	}}

	body := `{"card_number":"CARD-001","started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T11:00:00Z","kwh_charged":"18.5"}`
	c, rec := doJSON(e, http.MethodPost, "/v1/charge-sessions", body, 1, model.RoleFleetManager)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, sessions.created)
	assert.Equal(t, uint64(7), sessions.created.VehicleID, "session lands on the card's vehicle")
	require.NotNil(t, sessions.created.CardID)
	assert.Equal(t, uint64(3), *sessions.created.CardID)
}

func TestCreateSession_InactiveCardRejected(t *testing.T) {
	e := echo.New()
	h := newSessionHandler(&fakeSessions{}, &fakeVehicles{vehicles: map[uint64]model.Vehicle{}}, &fakeNotifier{})
	h.Cards = &fakeCards{cards: map[string]model.ChargeCard{
		"CARD-001": {ID: 3, CardNumber: "CARD-001", VehicleID: 7, IsActive: false},
	}}

	body := `{"card_number":"CARD-001","started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T11:00:00Z","kwh_charged":"18.5"}`
	c, rec := doJSON(e, http.MethodPost, "/v1/charge-sessions", body, 1, model.RoleFleetManager)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSession_UnknownCard(t *testing.T) {
	e := echo.New()
	h := newSessionHandler(&fakeSessions{}, &fakeVehicles{vehicles: map[uint64]model.Vehicle{}}, &fakeNotifier{})

	body := `{"card_number":"NOPE","started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T11:00:00Z","kwh_charged":"18.5"}`
	c, rec := doJSON(e, http.MethodPost, "/v1/charge-sessions", body, 1, model.RoleFleetManager)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSession_ValidationFailures(t *testing.T) {
	e := echo.New()
	h := newSessionHandler(&fakeSessions{}, &fakeVehicles{vehicles: map[uint64]model.Vehicle{7: driverVehicle(7)}}, &fakeNotifier{})

	cases := []struct {
		name string
		body string
	}{
		{"no vehicle or card", `{"started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T11:00:00Z","kwh_charged":"5"}`},
		{"both vehicle and card", `{"vehicle_id":7,"card_number":"CARD-7","started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T11:00:00Z","kwh_charged":"5"}`},
		{"zero kwh", `{"vehicle_id":7,"started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T11:00:00Z","kwh_charged":"0"}`},
		{"negative kwh", `{"vehicle_id":7,"started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T11:00:00Z","kwh_charged":"-3"}`},
		{"ended before started", `{"vehicle_id":7,"started_at":"2025-03-01T11:00:00Z","ended_at":"2025-03-01T10:00:00Z","kwh_charged":"5"}`},
		{"ended equals started", `{"vehicle_id":7,"started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T10:00:00Z","kwh_charged":"5"}`},
		{"missing times", `{"vehicle_id":7,"kwh_charged":"5"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := doJSON(e, http.MethodPost, "/v1/charge-sessions", tc.body, 1, model.RoleFleetManager)
			require.NoError(t, h.Create(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateSession_TariffSuppliesCurrencyAndPrice(t *testing.T) {
	e := echo.New()
	sessions := &fakeSessions{}
	vehicles := &fakeVehicles{vehicles: map[uint64]model.Vehicle{7: driverVehicle(7)}}
	h := newSessionHandler(sessions, vehicles, &fakeNotifier{})
	h.Tariffs = &fakeTariffs{tariffs: map[uint64]model.Tariff{
		2: {ID: 2, Name: "Night", PricePerKwh: decimal.RequireFromString("0.30"), Currency: "EUR"},
	}}

	body := `{"vehicle_id":7,"tariff_id":2,"started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T11:00:00Z","kwh_charged":"50"}`
	c, rec := doJSON(e, http.MethodPost, "/v1/charge-sessions", body, 1, model.RoleFleetManager)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "EUR", sessions.created.Currency)
	assert.True(t, sessions.created.PriceTotal.Equal(decimal.RequireFromString("15")),
		"price derives from the tariff when absent, got %s", sessions.created.PriceTotal)
}

func TestCreateSession_FanOutFailureDoesNotFailRequest(t *testing.T) {
	// GetWithDrivers blows up after the session is stored; the request
	// must still return 201 with zero notifications.
	e := echo.New()
	sessions := &fakeSessions{}
	vehicles := &brokenVehicles{inner: &fakeVehicles{vehicles: map[uint64]model.Vehicle{7: driverVehicle(7)}}}
	notifier := &fakeNotifier{}
	h := newSessionHandler(sessions, &fakeVehicles{}, notifier)
	h.Vehicles = vehicles

	body := `{"vehicle_id":7,"started_at":"2025-03-01T10:00:00Z","ended_at":"2025-03-01T11:00:00Z","kwh_charged":"50"}`
	c, rec := doJSON(e, http.MethodPost, "/v1/charge-sessions", body, 1, model.RoleFleetManager)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotNil(t, sessions.created)
	assert.Zero(t, notifier.calls)
}

// brokenVehicles answers lookups but fails relation loading.
type brokenVehicles struct{ inner *fakeVehicles }

func (b *brokenVehicles) GetByID(ctx context.Context, id uint64) (model.Vehicle, error) {
	return b.inner.GetByID(ctx, id)
}
func (b *brokenVehicles) GetWithDrivers(context.Context, uint64) (model.Vehicle, error) {
	return model.Vehicle{}, context.DeadlineExceeded
}
func (b *brokenVehicles) ListByDriver(ctx context.Context, userID uint64) ([]model.Vehicle, error) {
	return b.inner.ListByDriver(ctx, userID)
}

func TestPendingByVehicle_DriverScope(t *testing.T) {
	e := echo.New()
	sessions := &fakeSessions{pending: map[uint64][]repository.SessionDetail{
		7: {{ChargeSession: model.ChargeSession{ID: 1, VehicleID: 7, Status: model.SessionPendingOdometer}}},
	}}
	vehicles := &fakeVehicles{byDriver: map[uint64][]model.Vehicle{
		100: {driverVehicle(7)},
	}}
	h := newSessionHandler(sessions, vehicles, &fakeNotifier{})

	// Linked driver sees the pending sessions.
	c, rec := doJSON(e, http.MethodGet, "/", "", 100, model.RoleDriver)
	c.SetPath("/v1/charge-sessions/pending/vehicle/:vehicleId")
	c.SetParamNames("vehicleId")
	c.SetParamValues("7")
	require.NoError(t, h.PendingByVehicle(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"PENDING_ODOMETER"`)

	// A different driver is rejected.
	c, rec = doJSON(e, http.MethodGet, "/", "", 200, model.RoleDriver)
	c.SetPath("/v1/charge-sessions/pending/vehicle/:vehicleId")
	c.SetParamNames("vehicleId")
	c.SetParamValues("7")
	require.NoError(t, h.PendingByVehicle(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMySessions(t *testing.T) {
	e := echo.New()
	sessions := &fakeSessions{details: map[uint64]repository.SessionDetail{
		1: {ChargeSession: model.ChargeSession{ID: 1, VehicleID: 7}},
		2: {ChargeSession: model.ChargeSession{ID: 2, VehicleID: 8}},
	}}
	vehicles := &fakeVehicles{byDriver: map[uint64][]model.Vehicle{
		100: {driverVehicle(7)},
	}}
	h := newSessionHandler(sessions, vehicles, &fakeNotifier{})

	c, rec := doJSON(e, http.MethodGet, "/v1/my-sessions", "", 100, model.RoleDriver)
	require.NoError(t, h.MySessions(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []repository.SessionDetail `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, uint64(7), resp.Items[0].VehicleID)
}
