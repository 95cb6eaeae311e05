package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"karocharge/backend/services/booking-service/internal/models"
	"karocharge/backend/services/booking-service/internal/service"
)

// ChargerHandlers owns the hosting and discovery endpoints.
type ChargerHandlers struct {
	svc    *service.BookingService
	logger *zap.Logger
}

// NewChargerHandlers builds handler set.
func NewChargerHandlers(svc *service.BookingService, logger *zap.Logger) *ChargerHandlers {
	return &ChargerHandlers{svc: svc, logger: logger}
}

type hostRequest struct {
	Connector         string  `json:"connector"`
	Address           string  `json:"address"`
	Date              string  `json:"date"`
	StartTime         string  `json:"startTime"`
	SlotDurationHours float64 `json:"slotDurationHours"`
}

// HandleHost handles POST /api/host.
func (h *ChargerHandlers) HandleHost(w http.ResponseWriter, r *http.Request) {
	var req hostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Connector == "" || req.Date == "" || req.StartTime == "" {
		writeError(w, http.StatusBadRequest, "connector, date and startTime are required")
		return
	}

	charger, err := h.svc.HostCharger(r.Context(), service.HostChargerInput{
		Connector:         req.Connector,
		Address:           req.Address,
		Date:              req.Date,
		StartTime:         req.StartTime,
		SlotDurationHours: req.SlotDurationHours,
	})
	if err != nil {
		h.logger.Warn("host charger rejected", zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, charger)
}

// HandleListChargers handles GET /api/chargers.
func (h *ChargerHandlers) HandleListChargers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListChargers(r.Context()))
}

// HandleBookingsByCharger handles GET /api/bookings/{chargerId}.
func (h *ChargerHandlers) HandleBookingsByCharger(w http.ResponseWriter, r *http.Request) {
	chargerID := r.PathValue("chargerId")
	if _, err := h.svc.GetCharger(r.Context(), chargerID); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	bookings := h.svc.BookingsByCharger(r.Context(), chargerID)
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}
