package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// BookingClient notifies the booking service about timer-driven events.
// All calls are best-effort: the accrual engine's local state is already
// authoritative, so failures are logged and never rolled back.
type BookingClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// AutoCompleteRequest payload for the auto-completion notification.
type AutoCompleteRequest struct {
	BookingID string `json:"bookingId"`
	SessionID string `json:"sessionId"`
}

// NewBookingClient builds HTTP client wrapper.
func NewBookingClient(baseURL string, logger *zap.Logger) *BookingClient {
	return &BookingClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// NotifyAutoComplete informs the booking service that a session terminated on
// its own after reaching the booked duration.
func (c *BookingClient) NotifyAutoComplete(ctx context.Context, bookingID, sessionID string) error {
	if c.baseURL == "" {
		c.logger.Debug("booking client disabled, skipping auto-complete notification")
		return nil
	}
	return c.post(ctx, "/api/session/auto-complete", AutoCompleteRequest{
		BookingID: bookingID,
		SessionID: sessionID,
	})
}

func (c *BookingClient) post(ctx context.Context, path string, body interface{}) error {
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
		c.logger.Warn("booking client request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn("booking client returned non-success", zap.Int("status", resp.StatusCode))
	}
	return nil
}
