package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"smartvote/config"
	_ "smartvote/docs"
	"smartvote/internal/adapters/auth"
	"smartvote/internal/clock"
	transporthttp "smartvote/internal/delivery/http"
	"smartvote/internal/delivery/http/controllers"
	"smartvote/internal/delivery/http/middleware"
	"smartvote/internal/fanout"
	"smartvote/internal/repository/postgres"
	"smartvote/internal/services"
	"smartvote/migrations"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// @title smartvote API
// @version 1.0
// @description Attendance registration and waitlist engine for club events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity token.
// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}
	if cfg.AdminKeyHash == "" {
		logger.Warn("ADMIN_KEY_HASH not set, admin endpoints will reject every request")
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := db.PingContext(startupCtx); err != nil {
		logger.Error("database ping", "err", err)
		os.Exit(1)
	}
	if err := migrations.Apply(startupCtx, db); err != nil {
		logger.Error("apply migrations", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	ledger := postgres.NewRegistrationLedgerRepository(db)

	roster := services.NewRosterService(eventRepo, ledger, cfg.StoreTimeout)
	hub := fanout.NewHub(roster, logger, fanout.WithRefreshTimeout(cfg.StoreTimeout))
	registrationSvc := services.NewRegistrationService(eventRepo, ledger, roster, hub, clock.NewSystem(), logger, cfg.StoreTimeout)
	eventSvc := services.NewEventService(eventRepo, cfg.StoreTimeout)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenerDone := make(chan struct{})
	if cfg.LedgerListen {
		listener := postgres.NewLedgerListener(cfg.DBUrl, hub, logger)
		go func() {
			defer close(listenerDone)
			if err := listener.Run(stopCtx); err != nil {
				logger.Error("ledger listener stopped", "err", err)
			}
		}()
	} else {
		close(listenerDone)
	}

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Logger:        logger,
		Registrations: controllers.NewRegistrationController(logger, registrationSvc, hub),
		Events:        controllers.NewEventController(logger, eventSvc),
		Tokens:        auth.NewJWTVerifier(cfg.JWTSecret),
		AdminKeys:     auth.NewAdminKeyVerifier(cfg.AdminKeyHash),
	})
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSOrigins, router))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("api listening", "port", cfg.Port, "env", cfg.Environment)
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}
	stop()

	// Open roster streams never finish on their own; closing the hub ends them.
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "err", err)
	}
	<-listenerDone
	logger.Info("server stopped")
}
