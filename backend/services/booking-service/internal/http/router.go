package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Host              http.HandlerFunc
	ListChargers      http.HandlerFunc
	CreateBooking     http.HandlerFunc
	GetBooking        http.HandlerFunc
	BookingsByCharger http.HandlerFunc
	BookingTimer      http.HandlerFunc
	CancelBooking     http.HandlerFunc
	MarkPaid          http.HandlerFunc
	RequestOTP        http.HandlerFunc
	VerifyOTP         http.HandlerFunc
	StartSession      http.HandlerFunc
	CompleteSession   http.HandlerFunc
	AutoComplete      http.HandlerFunc
	ExtendSession     http.HandlerFunc
	CancelSession     http.HandlerFunc
	SessionSummary    http.HandlerFunc
	CalculateCost     http.HandlerFunc
	Health            http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Host != nil {
		mux.HandleFunc("POST /api/host", routes.Host)
	}
	if routes.ListChargers != nil {
		mux.HandleFunc("GET /api/chargers", routes.ListChargers)
	}
	if routes.CreateBooking != nil {
		mux.HandleFunc("POST /api/booking/create", routes.CreateBooking)
	}
	if routes.GetBooking != nil {
		mux.HandleFunc("GET /api/booking/{bookingId}", routes.GetBooking)
	}
	if routes.BookingsByCharger != nil {
		mux.HandleFunc("GET /api/bookings/{chargerId}", routes.BookingsByCharger)
	}
	if routes.BookingTimer != nil {
		mux.HandleFunc("GET /api/booking/timer/{bookingId}", routes.BookingTimer)
	}
	if routes.CancelBooking != nil {
		mux.HandleFunc("POST /api/booking/cancel", routes.CancelBooking)
	}
	if routes.MarkPaid != nil {
		mux.HandleFunc("POST /api/booking/{bookingId}/pay", routes.MarkPaid)
	}
	if routes.RequestOTP != nil {
		mux.HandleFunc("POST /api/request-otp", routes.RequestOTP)
	}
	if routes.VerifyOTP != nil {
		mux.HandleFunc("POST /api/verify-otp", routes.VerifyOTP)
	}
	if routes.StartSession != nil {
		mux.HandleFunc("POST /api/session/start", routes.StartSession)
	}
	if routes.CompleteSession != nil {
		mux.HandleFunc("POST /api/complete-session", routes.CompleteSession)
	}
	if routes.AutoComplete != nil {
		mux.HandleFunc("POST /api/session/auto-complete", routes.AutoComplete)
	}
	if routes.ExtendSession != nil {
		mux.HandleFunc("POST /api/session/extend", routes.ExtendSession)
	}
	if routes.CancelSession != nil {
		mux.HandleFunc("POST /api/session/cancel", routes.CancelSession)
	}
	if routes.SessionSummary != nil {
		mux.HandleFunc("GET /api/session/summary/{sessionId}", routes.SessionSummary)
	}
	if routes.CalculateCost != nil {
		mux.HandleFunc("POST /api/cost/calculate", routes.CalculateCost)
	}
	if routes.Health != nil {
		mux.HandleFunc("GET /health", routes.Health)
	}
	return mux
}
