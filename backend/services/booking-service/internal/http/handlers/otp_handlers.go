package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"karocharge/backend/services/booking-service/internal/service"
)

// OTPHandlers owns the verification endpoints gating session start.
type OTPHandlers struct {
	svc    *service.BookingService
	logger *zap.Logger
}

// NewOTPHandlers builds handler set.
func NewOTPHandlers(svc *service.BookingService, logger *zap.Logger) *OTPHandlers {
	return &OTPHandlers{svc: svc, logger: logger}
}

type otpRequest struct {
	BookingID string `json:"bookingId"`
	OTP       string `json:"otp"`
}

// HandleRequest handles POST /api/request-otp.
func (h *OTPHandlers) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BookingID == "" {
		writeError(w, http.StatusBadRequest, "bookingId is required")
		return
	}

	result, err := h.svc.RequestOTP(r.Context(), req.BookingID)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	if result.Pending {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"bookingId": result.BookingID,
			"pending":   true,
			"message":   "OTP window has not opened yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bookingId": result.BookingID,
		"otp":       result.OTP,
	})
}

// HandleVerify handles POST /api/verify-otp.
func (h *OTPHandlers) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BookingID == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "bookingId and otp are required")
		return
	}

	if err := h.svc.VerifyOTP(r.Context(), req.BookingID, req.OTP); err != nil {
		h.logger.Warn("otp verification failed", zap.String("booking_id", req.BookingID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bookingId": req.BookingID,
		"verified":  true,
	})
}
