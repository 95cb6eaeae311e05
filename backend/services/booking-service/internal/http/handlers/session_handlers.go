package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"karocharge/backend/services/booking-service/internal/billing"
	"karocharge/backend/services/booking-service/internal/service"
)

// SessionHandlers owns the charging session endpoints.
type SessionHandlers struct {
	svc    *service.BookingService
	logger *zap.Logger
}

// NewSessionHandlers builds handler set.
func NewSessionHandlers(svc *service.BookingService, logger *zap.Logger) *SessionHandlers {
	return &SessionHandlers{svc: svc, logger: logger}
}

type sessionRequest struct {
	BookingID string `json:"bookingId"`
}

type completeSessionRequest struct {
	BookingID string `json:"bookingId"`
	HasNext   bool   `json:"hasNextBooking"`
}

type autoCompleteRequest struct {
	BookingID string `json:"bookingId"`
	SessionID string `json:"sessionId"`
}

type extendSessionRequest struct {
	BookingID       string  `json:"bookingId"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	AdditionalHours float64 `json:"additionalHours"`
}

type cancelSessionRequest struct {
	BookingID   string `json:"bookingId"`
	CancelledBy string `json:"cancelledBy"`
}

type costRequest struct {
	Connector       string     `json:"connector"`
	BookedHours     float64    `json:"bookedDurationHours"`
	ScheduledStart  time.Time  `json:"scheduledStart"`
	EnergyKWh       float64    `json:"energyConsumed"`
	DurationSeconds float64    `json:"durationSeconds"`
	AccruedLateFee  float64    `json:"accruedLateFee"`
	ActualStart     *time.Time `json:"actualStart"`
	ActualEnd       *time.Time `json:"actualEnd"`
	CancelledBy     string     `json:"cancelledBy"`
}

func stopResponse(result service.SessionStopResult) map[string]interface{} {
	return map[string]interface{}{
		"bookingId":       result.BookingID,
		"sessionId":       result.SessionID,
		"status":          result.Status,
		"energyDelivered": result.EnergyKWh,
		"durationSeconds": result.DurationSeconds,
		"sessionCost":     result.Cost.Rounded(),
	}
}

// HandleStart handles POST /api/session/start.
func (h *SessionHandlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BookingID == "" {
		writeError(w, http.StatusBadRequest, "bookingId is required")
		return
	}

	result, err := h.svc.StartSession(r.Context(), req.BookingID)
	if err != nil {
		h.logger.Warn("start session rejected", zap.String("booking_id", req.BookingID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bookingId": result.BookingID,
		"sessionId": result.SessionID,
		"status":    result.Status,
		"startedAt": result.StartedAt,
	})
}

// HandleComplete handles POST /api/complete-session.
func (h *SessionHandlers) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BookingID == "" {
		writeError(w, http.StatusBadRequest, "bookingId is required")
		return
	}

	result, err := h.svc.CompleteSession(r.Context(), req.BookingID, req.HasNext)
	if err != nil {
		h.logger.Warn("complete session rejected", zap.String("booking_id", req.BookingID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stopResponse(result))
}

// HandleAutoComplete handles POST /api/session/auto-complete.
func (h *SessionHandlers) HandleAutoComplete(w http.ResponseWriter, r *http.Request) {
	var req autoCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BookingID == "" || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "bookingId and sessionId are required")
		return
	}

	result, err := h.svc.AutoCompleteSession(r.Context(), req.BookingID, req.SessionID)
	if err != nil {
		h.logger.Warn("auto-complete rejected", zap.String("booking_id", req.BookingID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stopResponse(result))
}

// HandleExtend handles POST /api/session/extend.
func (h *SessionHandlers) HandleExtend(w http.ResponseWriter, r *http.Request) {
	var req extendSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BookingID == "" {
		writeError(w, http.StatusBadRequest, "bookingId is required")
		return
	}

	booking, err := h.svc.ExtendBooking(r.Context(), req.BookingID, service.ExtendBookingInput{
		Date:            req.Date,
		StartTime:       req.StartTime,
		AdditionalHours: req.AdditionalHours,
	})
	if err != nil {
		h.logger.Warn("extend rejected", zap.String("booking_id", req.BookingID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// HandleCancel handles POST /api/session/cancel.
func (h *SessionHandlers) HandleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BookingID == "" {
		writeError(w, http.StatusBadRequest, "bookingId is required")
		return
	}

	result, err := h.svc.CancelSession(r.Context(), req.BookingID, req.CancelledBy)
	if err != nil {
		h.logger.Warn("cancel session rejected", zap.String("booking_id", req.BookingID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stopResponse(result))
}

// HandleSummary handles GET /api/session/summary/{sessionId}.
func (h *SessionHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	payload := map[string]interface{}{
		"sessionId": summary.SessionID,
		"booking":   summary.Booking,
	}
	if summary.Booking.SessionCost != nil {
		payload["sessionCost"] = summary.Booking.SessionCost.Rounded()
	}
	if summary.Telemetry != nil {
		payload["telemetry"] = map[string]interface{}{
			"energyDelivered": summary.Telemetry.EnergyDelivered,
			"durationSeconds": summary.Telemetry.DurationSeconds,
			"status":          summary.Telemetry.Status,
			"timestamp":       summary.Telemetry.Timestamp,
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

// HandleCalculateCost handles POST /api/cost/calculate.
func (h *SessionHandlers) HandleCalculateCost(w http.ResponseWriter, r *http.Request) {
	var req costRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	breakdown := h.svc.ComputeCost(billing.Input{
		Connector:       req.Connector,
		BookedHours:     req.BookedHours,
		ScheduledStart:  req.ScheduledStart,
		EnergyKWh:       req.EnergyKWh,
		DurationSeconds: req.DurationSeconds,
		AccruedLateFee:  decimal.NewFromFloat(req.AccruedLateFee),
		ActualStart:     req.ActualStart,
		ActualEnd:       req.ActualEnd,
		CancelledBy:     req.CancelledBy,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionCost": breakdown.Rounded(),
		"breakdown":   breakdown.Detail,
	})
}
