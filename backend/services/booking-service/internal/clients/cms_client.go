package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"karocharge/backend/services/booking-service/internal/service"
)

// CMSClient talks to the charger management service over its request/response
// API. It implements service.TimerAPI.
type CMSClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewCMSClient builds HTTP client wrapper.
func NewCMSClient(baseURL string, logger *zap.Logger) *CMSClient {
	return &CMSClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
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

type timerRequest struct {
	ChargerID string `json:"chargerId"`
	BookingID string `json:"bookingId"`
}

type startTimerResponse struct {
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

type stopTimerResponse struct {
	SessionID       string    `json:"sessionId"`
	SessionEnergy   float64   `json:"sessionEnergy"`
	TotalEnergy     float64   `json:"totalEnergy"`
	DurationSeconds int64     `json:"durationSeconds"`
	Timestamp       time.Time `json:"timestamp"`
}

type telemetryResponse struct {
	SessionID       string    `json:"sessionId"`
	ChargerID       string    `json:"chargerId"`
	BookingID       string    `json:"bookingId"`
	EnergyDelivered float64   `json:"energyDelivered"`
	DurationSeconds int64     `json:"durationSeconds"`
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
}

// Block places a reservation hold on the charger.
func (c *CMSClient) Block(ctx context.Context, chargerID, bookingID string, scheduledStart time.Time, durationHours float64) error {
	return c.post(ctx, "/api/charger/block", blockRequest{
		ChargerID:      chargerID,
		BookingID:      bookingID,
		ScheduledStart: scheduledStart,
		DurationHours:  durationHours,
	}, nil)
}

// Unblock releases the charger's reservation hold.
func (c *CMSClient) Unblock(ctx context.Context, chargerID, bookingID string) error {
	return c.post(ctx, "/api/charger/unblock", unblockRequest{
		ChargerID: chargerID,
		BookingID: bookingID,
	}, nil)
}

// StartTimer begins energy accrual for the charger.
func (c *CMSClient) StartTimer(ctx context.Context, chargerID, bookingID string) (service.StartTimerResult, error) {
	var resp startTimerResponse
	if err := c.post(ctx, "/api/charger/start-timer", timerRequest{ChargerID: chargerID, BookingID: bookingID}, &resp); err != nil {
		return service.StartTimerResult{}, err
	}
	return service.StartTimerResult{
		SessionID: resp.SessionID,
		Timestamp: resp.Timestamp,
	}, nil
}

// StopTimer stops accrual and returns the terminal snapshot.
func (c *CMSClient) StopTimer(ctx context.Context, chargerID, bookingID string) (service.StopTimerResult, error) {
	var resp stopTimerResponse
	if err := c.post(ctx, "/api/charger/stop-timer", timerRequest{ChargerID: chargerID, BookingID: bookingID}, &resp); err != nil {
		return service.StopTimerResult{}, err
	}
	return service.StopTimerResult{
		SessionID:       resp.SessionID,
		SessionEnergy:   resp.SessionEnergy,
		TotalEnergy:     resp.TotalEnergy,
		DurationSeconds: resp.DurationSeconds,
		Timestamp:       resp.Timestamp,
	}, nil
}

// SessionTelemetry fetches telemetry by session identity.
func (c *CMSClient) SessionTelemetry(ctx context.Context, sessionID string) (service.TelemetryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/telemetry/%s", c.baseURL, sessionID), nil)
	if err != nil {
		return service.TelemetryResult{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("cms telemetry request failed", zap.Error(err))
		return service.TelemetryResult{}, fmt.Errorf("%w: %v", service.ErrPeerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return service.TelemetryResult{}, fmt.Errorf("session %s telemetry: %w", sessionID, service.ErrNotFound)
	}
	if resp.StatusCode >= 300 {
		c.logger.Warn("cms telemetry returned non-success", zap.Int("status", resp.StatusCode))
		return service.TelemetryResult{}, fmt.Errorf("cms telemetry status %d: %w", resp.StatusCode, service.ErrPeerUnavailable)
	}

	var payload telemetryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return service.TelemetryResult{}, err
	}
	return service.TelemetryResult{
		SessionID:       payload.SessionID,
		ChargerID:       payload.ChargerID,
		BookingID:       payload.BookingID,
		EnergyDelivered: payload.EnergyDelivered,
		DurationSeconds: payload.DurationSeconds,
		Status:          payload.Status,
		Timestamp:       payload.Timestamp,
	}, nil
}

func (c *CMSClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", c.baseURL, path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("cms request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", service.ErrPeerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn("cms returned non-success",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("cms %s status %d: %w", path, resp.StatusCode, service.ErrPeerUnavailable)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
