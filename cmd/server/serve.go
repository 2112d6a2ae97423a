package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-extras/cobraflags"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"cms-panel/internal/api/routes"
	"cms-panel/internal/config"
	"cms-panel/internal/logging"
	"cms-panel/internal/models"
	"cms-panel/internal/services"
)

const (
	shutdownTimeout = 15 * time.Second
	// uploads younger than this may still be waiting for their database row
	orphanMinAge = time.Hour
)

func newServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Load the configuration, initialise the database (migrating the schema and
seeding the default admin when no users exist) and serve the API until
SIGINT or SIGTERM is received.`,
		RunE: serveCommand,
	}

	cobraflags.RegisterMap(serveCmd, commonFlags)
	return serveCmd
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := models.NewGateway(cfg, logger)
	defer func() {
		if err := gw.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	gin.SetMode(cfg.Server.Mode)
	router := routes.NewEngine(cfg, gw, logger)

	// Serverless deployments initialise on first request instead.
	if !cfg.Server.Serverless {
		if err := gw.EnsureInitialized(ctx); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	if cfg.Uploads.PruneSchedule != "" {
		scheduler, err := schedulePrune(cfg, gw, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting CMS server", "addr", srv.Addr, "db", cfg.Database.Type, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// schedulePrune registers the orphaned upload cleanup on the configured cron spec.
func schedulePrune(cfg *config.Config, gw *models.Gateway, logger *slog.Logger) (*cron.Cron, error) {
	media := services.NewMediaService(gw, cfg.Uploads, logger)

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Uploads.PruneSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		removed, err := media.PruneOrphans(ctx, orphanMinAge)
		if err != nil {
			logger.Error("orphan upload prune failed", "error", err)
			return
		}
		if removed > 0 {
			logger.Info("pruned orphan uploads", "removed", removed)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid uploads prune_schedule %q: %w", cfg.Uploads.PruneSchedule, err)
	}
	return scheduler, nil
}
