package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"karocharge/backend/services/booking-service/internal/service"
)

// BookingHandlers owns booking creation, cancellation and payment.
type BookingHandlers struct {
	svc    *service.BookingService
	logger *zap.Logger
}

// NewBookingHandlers builds handler set.
func NewBookingHandlers(svc *service.BookingService, logger *zap.Logger) *BookingHandlers {
	return &BookingHandlers{svc: svc, logger: logger}
}

type createBookingRequest struct {
	ChargerID string `json:"chargerId"`
}

type cancelBookingRequest struct {
	BookingID   string `json:"bookingId"`
	CancelledBy string `json:"cancelledBy"`
}

// HandleCreate handles POST /api/booking/create.
func (h *BookingHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ChargerID == "" {
		writeError(w, http.StatusBadRequest, "chargerId is required")
		return
	}

	booking, err := h.svc.CreateBooking(r.Context(), req.ChargerID)
	if err != nil {
		h.logger.Warn("create booking rejected", zap.String("charger_id", req.ChargerID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// HandleGet handles GET /api/booking/{bookingId}.
func (h *BookingHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	booking, err := h.svc.GetBooking(r.Context(), r.PathValue("bookingId"))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// HandleTimer handles GET /api/booking/timer/{bookingId}.
func (h *BookingHandlers) HandleTimer(w http.ResponseWriter, r *http.Request) {
	win, err := h.svc.TimerWindow(r.Context(), r.PathValue("bookingId"))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bookingId":        win.BookingID,
		"hasTimer":         win.HasTimer,
		"elapsedSeconds":   win.ElapsedSeconds,
		"remainingSeconds": win.RemainingSeconds,
		"lateArrival":      win.LateArrival,
	})
}

// HandleCancel handles POST /api/booking/cancel.
func (h *BookingHandlers) HandleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BookingID == "" {
		writeError(w, http.StatusBadRequest, "bookingId is required")
		return
	}

	result, err := h.svc.CancelBooking(r.Context(), req.BookingID, req.CancelledBy)
	if err != nil {
		h.logger.Warn("cancel booking rejected", zap.String("booking_id", req.BookingID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	// Pre-start cancellation carries no cost, only the late flag.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bookingId": result.BookingID,
		"status":    result.Status,
		"lateFee":   result.LateCancellation,
	})
}

// HandlePay handles POST /api/booking/{bookingId}/pay.
func (h *BookingHandlers) HandlePay(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("bookingId")
	if err := h.svc.MarkPaid(r.Context(), bookingID); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"bookingId":     bookingID,
		"paymentStatus": "paid",
	})
}
