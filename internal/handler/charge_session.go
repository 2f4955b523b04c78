package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ecarfleet/fleet-api/internal/model"
	"github.com/ecarfleet/fleet-api/internal/repository"
	"github.com/ecarfleet/fleet-api/internal/service"
)

// Store slices used by the session endpoints.  Declared here so the
// handler can be exercised against fakes; the concrete repositories
// satisfy them.

type sessionStore interface {
	Create(ctx context.Context, s *model.ChargeSession) error
	GetDetail(ctx context.Context, id uint64) (repository.SessionDetail, error)
	ListAll(ctx context.Context) ([]repository.SessionDetail, error)
	ListPendingByVehicle(ctx context.Context, vehicleID uint64) ([]repository.SessionDetail, error)
	ListByVehicles(ctx context.Context, vehicleIDs []uint64) ([]repository.SessionDetail, error)
}

type vehicleStore interface {
	GetByID(ctx context.Context, id uint64) (model.Vehicle, error)
	GetWithDrivers(ctx context.Context, id uint64) (model.Vehicle, error)
	ListByDriver(ctx context.Context, userID uint64) ([]model.Vehicle, error)
}

type cardStore interface {
	GetByCardNumber(ctx context.Context, number string) (model.ChargeCard, error)
}

type stationStore interface {
	GetByID(ctx context.Context, id uint64) (model.Station, error)
}

type tariffStore interface {
	GetByID(ctx context.Context, id uint64) (model.Tariff, error)
}

type odometerNotifier interface {
	NotifyOdometerRequest(ctx context.Context, session model.ChargeSession, vehicle model.Vehicle, stationName string, recipients []model.User) int
}

// SessionHandler implements the charge session endpoints: creation
// with recipient fan-out, plus the list and detail views.
type SessionHandler struct {
	Sessions sessionStore
	Vehicles vehicleStore
	Cards    cardStore
	Stations stationStore
	Tariffs  tariffStore
	Notifier odometerNotifier
}

func NewSessionHandler(s sessionStore, v vehicleStore, c cardStore, st stationStore, t tariffStore, n odometerNotifier) *SessionHandler {
	return &SessionHandler{Sessions: s, Vehicles: v, Cards: c, Stations: st, Tariffs: t, Notifier: n}
}

type createSessionReq struct {
	VehicleID  uint64           `json:"vehicle_id"`
	CardNumber string           `json:"card_number"`
	StationID  *uint64          `json:"station_id"`
	TariffID   *uint64          `json:"tariff_id"`
	StartedAt  time.Time        `json:"started_at"`
	EndedAt    time.Time        `json:"ended_at"`
	KwhCharged decimal.Decimal  `json:"kwh_charged"`
	PriceTotal *decimal.Decimal `json:"price_total"`
	Currency   string           `json:"currency"`
	Notes      *string          `json:"notes"`
}

// Create handles POST /v1/charge-sessions.  The vehicle comes either
// from vehicle_id or, for charge point imports, from card_number; a
// card submission is normalized to the card's vehicle.  On success
// the session starts as PENDING_ODOMETER and every resolved vehicle
// user gets an odometer request notification.  Fan-out is best
// effort: its failures never fail the request.
func (h *SessionHandler) Create(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	req.CardNumber = strings.TrimSpace(req.CardNumber)
	if req.VehicleID == 0 && req.CardNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle_id or card_number is required"})
	}
	if req.VehicleID != 0 && req.CardNumber != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide either vehicle_id or card_number, not both"})
	}
	if req.StartedAt.IsZero() || req.EndedAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "started_at and ended_at are required"})
	}
	if !req.EndedAt.After(req.StartedAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ended_at must be after started_at"})
	}
	if req.KwhCharged.LessThanOrEqual(decimal.Zero) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kwh_charged must be positive"})
	}

	ctx := c.Request().Context()

	vehicleID := req.VehicleID
	var cardID *uint64
	if req.CardNumber != "" {
		card, err := h.Cards.GetByCardNumber(ctx, req.CardNumber)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "charge card not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if !card.IsActive {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "charge card is inactive"})
		}
		if card.VehicleID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "charge card is not linked to a vehicle"})
		}
		// Charge point imports land on the card's registered vehicle.
		vehicleID = card.VehicleID
		cardID = &card.ID
	}

	vehicle, err := h.Vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if vehicle.Status == model.VehicleRetired {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle is retired"})
	}

	stationName := ""
	if req.StationID != nil {
		station, err := h.Stations.GetByID(ctx, *req.StationID)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		stationName = station.Name
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	var priceTotal decimal.Decimal
	if req.PriceTotal != nil {
		priceTotal = *req.PriceTotal
	}
	if req.TariffID != nil {
		tariff, err := h.Tariffs.GetByID(ctx, *req.TariffID)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "tariff not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if currency == "" {
			currency = tariff.Currency
		}
		if req.PriceTotal == nil {
			priceTotal = req.KwhCharged.Mul(tariff.PricePerKwh).Round(2)
		}
	}
	if currency == "" {
		currency = "BGN"
	}
	if priceTotal.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_total must not be negative"})
	}

	session := &model.ChargeSession{
		VehicleID:  vehicleID,
		StationID:  req.StationID,
		TariffID:   req.TariffID,
		CardID:     cardID,
		StartedAt:  req.StartedAt,
		EndedAt:    req.EndedAt,
		KwhCharged: req.KwhCharged,
		PriceTotal: priceTotal,
		Currency:   currency,
		Notes:      req.Notes,
		CreatedBy:  callerID,
	}
	if err := h.Sessions.Create(ctx, session); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create session"})
	}

	notified := h.notifyRecipients(ctx, *session, stationName)

	detail, err := h.Sessions.GetDetail(ctx, session.ID)
	if err != nil {
		// Session exists; fall back to the bare row.
		return c.JSON(http.StatusCreated, echo.Map{"session": session, "notified": notified})
	}
	return c.JSON(http.StatusCreated, echo.Map{"session": detail, "notified": notified})
}

// notifyRecipients resolves the vehicle's users and fans the odometer
// request out to them.  Every failure is swallowed here; the session
// is already durable.
func (h *SessionHandler) notifyRecipients(ctx context.Context, session model.ChargeSession, stationName string) int {
	loaded, err := h.Vehicles.GetWithDrivers(ctx, session.VehicleID)
	if err != nil {
		log.Printf("session %d: load vehicle %d for fan-out failed: %v", session.ID, session.VehicleID, err)
		return 0
	}
	recipients := service.ResolveRecipients(&loaded)
	if len(recipients) == 0 {
		return 0
	}
	return h.Notifier.NotifyOdometerRequest(ctx, session, loaded, stationName, recipients)
}

// List handles GET /v1/charge-sessions (admin and fleet manager).
func (h *SessionHandler) List(c echo.Context) error {
	items, err := h.Sessions.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MySessions handles GET /v1/charge-sessions/my-sessions: every session belonging to
// a vehicle the caller drives or is linked to.
func (h *SessionHandler) MySessions(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	vehicles, err := h.Vehicles.ListByDriver(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	ids := make([]uint64, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
	}
	items, err := h.Sessions.ListByVehicles(ctx, ids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// PendingByVehicle handles GET /v1/charge-sessions/pending/vehicle/:vehicleId.
// Drivers may only query vehicles they are linked to.
func (h *SessionHandler) PendingByVehicle(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	vehicleID, err := parseID(c, "vehicleId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()

	if currentRole(c) == model.RoleDriver {
		ok, err := h.driverOnVehicle(ctx, uid, vehicleID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if !ok {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your vehicle"})
		}
	}

	items, err := h.Sessions.ListPendingByVehicle(ctx, vehicleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetByID handles GET /v1/charge-sessions/:id.  Drivers may only see
// sessions of their own vehicles.
func (h *SessionHandler) GetByID(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()

	detail, err := h.Sessions.GetDetail(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	if currentRole(c) == model.RoleDriver {
		ok, err := h.driverOnVehicle(ctx, uid, detail.VehicleID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if !ok {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your vehicle"})
		}
	}
	return c.JSON(http.StatusOK, detail)
}

// driverOnVehicle reports whether the user drives or is linked to the
// given vehicle.
func (h *SessionHandler) driverOnVehicle(ctx context.Context, userID, vehicleID uint64) (bool, error) {
	vehicles, err := h.Vehicles.ListByDriver(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, v := range vehicles {
		if v.ID == vehicleID {
			return true, nil
		}
	}
	return false, nil
}
