package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"karocharge/backend/services/cms-service/internal/service"
)

// ResourceHandlers owns the block/unblock reservation endpoints.
type ResourceHandlers struct {
	resources *service.ResourceState
	engine    *service.AccrualEngine
	logger    *zap.Logger
}

// NewResourceHandlers builds handler set.
func NewResourceHandlers(resources *service.ResourceState, engine *service.AccrualEngine, logger *zap.Logger) *ResourceHandlers {
	return &ResourceHandlers{
		resources: resources,
		engine:    engine,
		logger:    logger,
	}
}

type blockRequest struct {
	ChargerID      string    `json:"chargerId"`
	BookingID      string    `json:"bookingId"`
	ScheduledStart time.Time `json:"scheduledStart"`
	DurationHours  float64   `json:"durationHours"`
}

type unblockRequest struct {
	ChargerID string `json:"chargerId"`
	BookingID string `json:"bookingId"`
}

type resourceResponse struct {
	Message string                   `json:"message"`
	Charger service.ResourceSnapshot `json:"charger"`
}

// HandleBlock handles POST /api/charger/block.
func (h *ResourceHandlers) HandleBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ChargerID == "" {
		writeError(w, http.StatusBadRequest, "chargerId is required")
		return
	}

	snap := h.resources.Block(req.ChargerID, req.BookingID, req.ScheduledStart, req.DurationHours)
	// A hold re-applied mid-session extends the booked window; the running
	// accrual must not auto-complete at the old deadline.
	if req.DurationHours > 0 {
		h.engine.ExtendDeadline(req.ChargerID, time.Duration(req.DurationHours*float64(time.Hour)))
	}
	h.logger.Info("charger blocked",
		zap.String("charger_id", req.ChargerID),
		zap.String("booking_id", req.BookingID),
	)
	writeJSON(w, http.StatusOK, resourceResponse{Message: "Charger blocked successfully", Charger: snap})
}

// HandleUnblock handles POST /api/charger/unblock.
func (h *ResourceHandlers) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	var req unblockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ChargerID == "" {
		writeError(w, http.StatusBadRequest, "chargerId is required")
		return
	}

	snap := h.resources.Unblock(req.ChargerID, req.BookingID)
	h.logger.Info("charger unblocked",
		zap.String("charger_id", req.ChargerID),
		zap.String("booking_id", req.BookingID),
	)
	writeJSON(w, http.StatusOK, resourceResponse{Message: "Charger unblocked successfully", Charger: snap})
}

// HandleCharger handles GET /api/charger/{chargerId}.
func (h *ResourceHandlers) HandleCharger(w http.ResponseWriter, r *http.Request) {
	chargerID := r.PathValue("chargerId")
	snap, ok := h.resources.Get(chargerID)
	if !ok {
		snap = service.ResourceSnapshot{ChargerID: chargerID, Status: "AVAILABLE"}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chargerId": chargerID,
		"state":     snap,
	})
}
