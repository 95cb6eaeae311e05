package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Block       http.HandlerFunc
	Unblock     http.HandlerFunc
	StartTimer  http.HandlerFunc
	StopTimer   http.HandlerFunc
	Charger     http.HandlerFunc
	TimerStatus http.HandlerFunc
	TotalEnergy http.HandlerFunc
	Telemetry   http.HandlerFunc
	Health      http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Block != nil {
		mux.HandleFunc("POST /api/charger/block", routes.Block)
	}
	if routes.Unblock != nil {
		mux.HandleFunc("POST /api/charger/unblock", routes.Unblock)
	}
	if routes.StartTimer != nil {
		mux.HandleFunc("POST /api/charger/start-timer", routes.StartTimer)
	}
	if routes.StopTimer != nil {
		mux.HandleFunc("POST /api/charger/stop-timer", routes.StopTimer)
	}
	// Telemetry is keyed by session, not charger, so it lives on its own
	// segment; a charger-rooted pattern would collide with the wildcard
	// charger routes below.
	if routes.Telemetry != nil {
		mux.HandleFunc("GET /api/telemetry/{sessionId}", routes.Telemetry)
	}
	if routes.TimerStatus != nil {
		mux.HandleFunc("GET /api/charger/{chargerId}/timer-status", routes.TimerStatus)
	}
	if routes.TotalEnergy != nil {
		mux.HandleFunc("GET /api/charger/{chargerId}/total-energy", routes.TotalEnergy)
	}
	if routes.Charger != nil {
		mux.HandleFunc("GET /api/charger/{chargerId}", routes.Charger)
	}
	if routes.Health != nil {
		mux.HandleFunc("GET /health", routes.Health)
	}
	return mux
}
