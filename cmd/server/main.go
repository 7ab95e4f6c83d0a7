// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/database"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/metrics"
	"github.com/javajoker/bricolage-backend/internal/middleware"
	"github.com/javajoker/bricolage-backend/internal/router"
	"github.com/javajoker/bricolage-backend/internal/services"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Log.ApplyToStandardLogger()

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize i18n: %w", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.SeedInitialData(db, cfg.Seed); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	locker, err := services.NewLocker(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize locker: %w", err)
	}
	storage, err := services.NewStorageService(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	mailer := services.NewAsyncMailer(services.NewMailer(cfg.Email), time.Duration(cfg.Email.SendTimeout)*time.Second)
	defer mailer.Wait()

	limits := middleware.NewRateLimits(cfg.RateLimit)
	defer limits.Close()

	// Initialize router
	r, err := router.Initialize(db, cfg, router.Dependencies{
		Mailer:     mailer,
		Locker:     locker,
		Payments:   services.NewPaymentGateway(cfg.Payment),
		Storage:    storage,
		Metrics:    metrics.New(),
		RateLimits: limits,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":        srv.Addr,
			"environment": cfg.Environment,
			"driver":      cfg.Database.Driver,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case sig := <-quit:
		logrus.WithField("signal", sig.String()).Info("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrus.Info("Server exited")
	return nil
}
