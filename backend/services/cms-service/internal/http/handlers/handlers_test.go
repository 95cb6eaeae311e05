package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	httpserver "karocharge/backend/services/cms-service/internal/http"
	"karocharge/backend/services/cms-service/internal/service"
)

func newTestRouter() http.Handler {
	logger := zap.NewNop()
	resources := service.NewResourceState()
	engine := service.NewAccrualEngine(1, nil, logger)

	resourceHandlers := NewResourceHandlers(resources, engine, logger)
	timerHandlers := NewTimerHandlers(engine, resources, logger)

	return httpserver.NewRouter(httpserver.Routes{
		Block:       resourceHandlers.HandleBlock,
		Unblock:     resourceHandlers.HandleUnblock,
		Charger:     resourceHandlers.HandleCharger,
		StartTimer:  timerHandlers.HandleStartTimer,
		StopTimer:   timerHandlers.HandleStopTimer,
		TimerStatus: timerHandlers.HandleTimerStatus,
		TotalEnergy: timerHandlers.HandleTotalEnergy,
		Telemetry:   timerHandlers.HandleTelemetry,
		Health:      NewHealthHandler(),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	payload := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response for %s %s: %v", method, path, err)
		}
	}
	return rec, payload
}

func TestBlockStartStopFlow(t *testing.T) {
	router := newTestRouter()

	start := time.Now().Add(time.Hour).Format(time.RFC3339)
	rec, _ := doJSON(t, router, http.MethodPost, "/api/charger/block",
		`{"chargerId":"charger-1","bookingId":"booking-1","scheduledStart":"`+start+`","durationHours":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("block: status %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/charger/unblock",
		`{"chargerId":"charger-1","bookingId":"booking-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unblock: status %d", rec.Code)
	}

	rec, payload := doJSON(t, router, http.MethodPost, "/api/charger/start-timer",
		`{"chargerId":"charger-1","bookingId":"booking-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start-timer: status %d body %s", rec.Code, rec.Body.String())
	}
	if payload["sessionId"] != "booking-1" {
		t.Fatalf("expected session id booking-1, got %v", payload["sessionId"])
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/charger/start-timer",
		`{"chargerId":"charger-1","bookingId":"booking-2"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second start should conflict, got %d", rec.Code)
	}

	rec, payload = doJSON(t, router, http.MethodPost, "/api/charger/stop-timer",
		`{"chargerId":"charger-1","bookingId":"booking-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop-timer: status %d", rec.Code)
	}
	if payload["sessionEnergy"] == nil {
		t.Fatalf("stop response missing session energy: %v", payload)
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/charger/stop-timer",
		`{"chargerId":"charger-1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second stop should conflict, got %d", rec.Code)
	}

	rec, payload = doJSON(t, router, http.MethodGet, "/api/telemetry/booking-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("telemetry: status %d", rec.Code)
	}
	if payload["status"] != service.SessionCompleted {
		t.Fatalf("expected completed telemetry, got %v", payload["status"])
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/api/telemetry/unknown", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session should 404, got %d", rec.Code)
	}

	// Session and charger lookups must coexist on the mux; both wildcard
	// charger routes and the telemetry route have to resolve.
	rec, _ = doJSON(t, router, http.MethodGet, "/api/charger/charger-1/timer-status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("timer-status: status %d", rec.Code)
	}
	rec, _ = doJSON(t, router, http.MethodGet, "/api/charger/charger-1/total-energy", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("total-energy: status %d", rec.Code)
	}
	rec, _ = doJSON(t, router, http.MethodGet, "/api/charger/charger-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("charger lookup: status %d", rec.Code)
	}
}

func TestValidationErrors(t *testing.T) {
	router := newTestRouter()

	rec, _ := doJSON(t, router, http.MethodPost, "/api/charger/block", `{"bookingId":"booking-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing chargerId should 400, got %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/charger/start-timer", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json should 400, got %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
}
