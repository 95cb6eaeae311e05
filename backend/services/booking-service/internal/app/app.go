package app

import (
	"context"

	"go.uber.org/zap"

	libhttp "karocharge/backend/libs/httpserver"
	"karocharge/backend/services/booking-service/internal/billing"
	"karocharge/backend/services/booking-service/internal/clients"
	"karocharge/backend/services/booking-service/internal/config"
	httpserver "karocharge/backend/services/booking-service/internal/http"
	"karocharge/backend/services/booking-service/internal/http/handlers"
	"karocharge/backend/services/booking-service/internal/lifecycle"
	"karocharge/backend/services/booking-service/internal/registry"
	"karocharge/backend/services/booking-service/internal/scheduler"
	"karocharge/backend/services/booking-service/internal/service"
)

// App wires booking-service dependencies.
type App struct {
	server *libhttp.Server
	logger *zap.Logger
}

// New constructs the application graph. The scheduler is wired after the
// orchestrator because the orchestrator is its hook implementation.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	cmsClient := clients.NewCMSClient(cfg.CMS.BaseURL, logger)

	chargers := registry.NewChargerStore()
	bookings := registry.NewBookingStore()
	lifecycles := lifecycle.NewManager()
	otp := service.NewOTPService(cfg.OTPLead(), logger)

	svc := service.NewBookingService(chargers, bookings, lifecycles, otp, cmsClient, billing.DefaultPolicy(), logger)
	sched := scheduler.New(scheduler.Config{
		LateArrivalDelay: cfg.LateArrivalDelay(),
		LateFeeInterval:  cfg.LateFeeInterval(),
		NoShowGrace:      cfg.NoShowGrace(),
	}, svc, logger)
	svc.AttachScheduler(sched)

	chargerHandlers := handlers.NewChargerHandlers(svc, logger)
	bookingHandlers := handlers.NewBookingHandlers(svc, logger)
	otpHandlers := handlers.NewOTPHandlers(svc, logger)
	sessionHandlers := handlers.NewSessionHandlers(svc, logger)

	routes := httpserver.Routes{
		Host:              chargerHandlers.HandleHost,
		ListChargers:      chargerHandlers.HandleListChargers,
		BookingsByCharger: chargerHandlers.HandleBookingsByCharger,
		CreateBooking:     bookingHandlers.HandleCreate,
		GetBooking:        bookingHandlers.HandleGet,
		BookingTimer:      bookingHandlers.HandleTimer,
		CancelBooking:     bookingHandlers.HandleCancel,
		MarkPaid:          bookingHandlers.HandlePay,
		RequestOTP:        otpHandlers.HandleRequest,
		VerifyOTP:         otpHandlers.HandleVerify,
		StartSession:      sessionHandlers.HandleStart,
		CompleteSession:   sessionHandlers.HandleComplete,
		AutoComplete:      sessionHandlers.HandleAutoComplete,
		ExtendSession:     sessionHandlers.HandleExtend,
		CancelSession:     sessionHandlers.HandleCancel,
		SessionSummary:    sessionHandlers.HandleSummary,
		CalculateCost:     sessionHandlers.HandleCalculateCost,
		Health:            handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes)
	server := libhttp.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server: server,
		logger: logger,
	}, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}
