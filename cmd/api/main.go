package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/scheduler-api/internal/config"
	"github.com/jwalitptl/scheduler-api/internal/handler"
	authHandler "github.com/jwalitptl/scheduler-api/internal/handler/auth"
	availabilityHandler "github.com/jwalitptl/scheduler-api/internal/handler/availability"
	bookingHandler "github.com/jwalitptl/scheduler-api/internal/handler/booking"
	slotHandler "github.com/jwalitptl/scheduler-api/internal/handler/slot"
	"github.com/jwalitptl/scheduler-api/internal/middleware"
	"github.com/jwalitptl/scheduler-api/internal/repository/postgres"
	"github.com/jwalitptl/scheduler-api/internal/router"
	authService "github.com/jwalitptl/scheduler-api/internal/service/auth"
	availabilityService "github.com/jwalitptl/scheduler-api/internal/service/availability"
	bookingService "github.com/jwalitptl/scheduler-api/internal/service/booking"
	eventService "github.com/jwalitptl/scheduler-api/internal/service/event"
	slotService "github.com/jwalitptl/scheduler-api/internal/service/slot"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
	"github.com/jwalitptl/scheduler-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Repositories
	slotRepo := postgres.NewSlotTemplateRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	leaveRepo := postgres.NewLeaveRepository(db)
	userRepo := postgres.NewUserRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	eventSvc := eventService.NewService(outboxRepo, appLogger)
	slotSvc := slotService.NewService(slotRepo, eventSvc, appLogger)
	availabilitySvc := availabilityService.NewService(slotRepo, bookingRepo, leaveRepo)
	bookingSvc := bookingService.NewService(bookingRepo, slotRepo, leaveRepo, eventSvc, appLogger)
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost, cfg.Auth.MinPasswordLen)
	authSvc := authService.NewService(userRepo, hasher, cfg.JWT)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.NewRouter(
		router.Config{
			RateLimitPerSec: cfg.Server.RateLimitPerSec,
			RateLimitBurst:  cfg.Server.RateLimitBurst,
			Timeout:         time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORS:            middleware.DefaultCORSConfig(),
			MetricsPrefix:   "scheduler",
		},
		healthH,
		authHandler.NewHandler(authSvc),
		slotHandler.NewHandler(slotSvc, authMiddleware),
		availabilityHandler.NewHandler(availabilitySvc, authMiddleware),
		bookingHandler.NewHandler(bookingSvc, authMiddleware),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
