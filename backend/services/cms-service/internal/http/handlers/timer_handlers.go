package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"karocharge/backend/services/cms-service/internal/service"
)

// TimerHandlers owns the accrual lifecycle endpoints.
type TimerHandlers struct {
	engine    *service.AccrualEngine
	resources *service.ResourceState
	logger    *zap.Logger
}

// NewTimerHandlers builds handler set.
func NewTimerHandlers(engine *service.AccrualEngine, resources *service.ResourceState, logger *zap.Logger) *TimerHandlers {
	return &TimerHandlers{
		engine:    engine,
		resources: resources,
		logger:    logger,
	}
}

type timerRequest struct {
	ChargerID string `json:"chargerId"`
	BookingID string `json:"bookingId"`
}

type startTimerResponse struct {
	Message   string    `json:"message"`
	ChargerID string    `json:"chargerId"`
	BookingID string    `json:"bookingId"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

type stopTimerResponse struct {
	Message         string    `json:"message"`
	ChargerID       string    `json:"chargerId"`
	BookingID       string    `json:"bookingId"`
	SessionID       string    `json:"sessionId"`
	SessionEnergy   float64   `json:"sessionEnergy"`
	TotalEnergy     float64   `json:"totalEnergy"`
	DurationSeconds int64     `json:"durationSeconds"`
	Timestamp       time.Time `json:"timestamp"`
	Status          string    `json:"status"`
}

type timerStatusResponse struct {
	ChargerID      string `json:"chargerId"`
	Running        bool   `json:"running"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
	Completed      bool   `json:"completed,omitempty"`
}

type telemetryResponse struct {
	SessionID       string    `json:"sessionId"`
	ChargerID       string    `json:"chargerId"`
	BookingID       string    `json:"bookingId"`
	Timestamp       time.Time `json:"timestamp"`
	EnergyDelivered float64   `json:"energyDelivered"`
	DurationSeconds int64     `json:"durationSeconds"`
	Status          string    `json:"status"`
}

// HandleStartTimer handles POST /api/charger/start-timer.
func (h *TimerHandlers) HandleStartTimer(w http.ResponseWriter, r *http.Request) {
	var req timerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ChargerID == "" {
		writeError(w, http.StatusBadRequest, "chargerId is required")
		return
	}

	bookedDuration, _ := h.resources.BookedDuration(req.ChargerID)
	result, err := h.engine.Start(req.ChargerID, req.BookingID, bookedDuration)
	if err != nil {
		h.logger.Warn("start timer rejected", zap.String("charger_id", req.ChargerID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, startTimerResponse{
		Message:   "Session started",
		ChargerID: req.ChargerID,
		BookingID: req.BookingID,
		SessionID: result.SessionID,
		Timestamp: result.StartedAt,
	})
}

// HandleStopTimer handles POST /api/charger/stop-timer.
func (h *TimerHandlers) HandleStopTimer(w http.ResponseWriter, r *http.Request) {
	var req timerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ChargerID == "" {
		writeError(w, http.StatusBadRequest, "chargerId is required")
		return
	}

	result, err := h.engine.Stop(req.ChargerID)
	if err != nil {
		h.logger.Warn("stop timer rejected", zap.String("charger_id", req.ChargerID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stopTimerResponse{
		Message:         "Session stopped",
		ChargerID:       req.ChargerID,
		BookingID:       req.BookingID,
		SessionID:       result.SessionID,
		SessionEnergy:   result.SessionEnergy,
		TotalEnergy:     result.TotalEnergy,
		DurationSeconds: result.DurationSeconds,
		Timestamp:       result.Timestamp,
		Status:          "success",
	})
}

// HandleTimerStatus handles GET /api/charger/{chargerId}/timer-status.
func (h *TimerHandlers) HandleTimerStatus(w http.ResponseWriter, r *http.Request) {
	chargerID := r.PathValue("chargerId")
	status := h.engine.Status(chargerID)
	writeJSON(w, http.StatusOK, timerStatusResponse{
		ChargerID:      chargerID,
		Running:        status.Running,
		ElapsedSeconds: status.ElapsedSeconds,
		Completed:      status.Completed,
	})
}

// HandleTotalEnergy handles GET /api/charger/{chargerId}/total-energy.
func (h *TimerHandlers) HandleTotalEnergy(w http.ResponseWriter, r *http.Request) {
	chargerID := r.PathValue("chargerId")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chargerId":   chargerID,
		"totalEnergy": h.engine.TotalEnergy(chargerID),
	})
}

// HandleTelemetry handles GET /api/telemetry/{sessionId}.
func (h *TimerHandlers) HandleTelemetry(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	tel, err := h.engine.SessionTelemetry(sessionID)
	if err != nil {
		writeError(w, statusForError(err), "no telemetry data found for this session")
		return
	}
	writeJSON(w, http.StatusOK, telemetryResponse{
		SessionID:       tel.SessionID,
		ChargerID:       tel.ChargerID,
		BookingID:       tel.BookingID,
		Timestamp:       tel.Timestamp,
		EnergyDelivered: tel.EnergyDelivered,
		DurationSeconds: tel.DurationSeconds,
		Status:          tel.Status,
	})
}
