package app

import (
	"context"

	"go.uber.org/zap"

	libhttp "karocharge/backend/libs/httpserver"
	"karocharge/backend/services/cms-service/internal/clients"
	"karocharge/backend/services/cms-service/internal/config"
	httpserver "karocharge/backend/services/cms-service/internal/http"
	"karocharge/backend/services/cms-service/internal/http/handlers"
	"karocharge/backend/services/cms-service/internal/service"
)

// App wires cms-service dependencies.
type App struct {
	server *libhttp.Server
	logger *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	bookingClient := clients.NewBookingClient(cfg.Booking.BaseURL, logger)

	resources := service.NewResourceState()
	engine := service.NewAccrualEngine(cfg.Accrual.EnergyPerSecond, func(bookingID, sessionID string) {
		if err := bookingClient.NotifyAutoComplete(context.Background(), bookingID, sessionID); err != nil {
			logger.Warn("auto-complete notification failed",
				zap.String("booking_id", bookingID),
				zap.Error(err),
			)
		}
	}, logger)

	resourceHandlers := handlers.NewResourceHandlers(resources, engine, logger)
	timerHandlers := handlers.NewTimerHandlers(engine, resources, logger)

	routes := httpserver.Routes{
		Block:       resourceHandlers.HandleBlock,
		Unblock:     resourceHandlers.HandleUnblock,
		Charger:     resourceHandlers.HandleCharger,
		StartTimer:  timerHandlers.HandleStartTimer,
		StopTimer:   timerHandlers.HandleStopTimer,
		TimerStatus: timerHandlers.HandleTimerStatus,
		TotalEnergy: timerHandlers.HandleTotalEnergy,
		Telemetry:   timerHandlers.HandleTelemetry,
		Health:      handlers.NewHealthHandler(),
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
