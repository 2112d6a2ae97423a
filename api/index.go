// Package handler is the per-request entry point used by serverless
// platforms. The engine is built on the first invocation and reused while the
// instance stays warm; the database is initialised lazily by the router.
package handler

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"cms-panel/internal/api/routes"
	"cms-panel/internal/config"
	"cms-panel/internal/logging"
	"cms-panel/internal/models"
)

var (
	engineOnce sync.Once
	engine     http.Handler
	engineErr  error
)

func buildEngine() (http.Handler, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	cfg.Server.Serverless = true

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.EnsureDirs(); err != nil {
		// read-only filesystems are common here; uploads fail later with a clear error
		logger.Warn("could not create writable directories", "error", err)
	}

	gin.SetMode(cfg.Server.Mode)
	gw := models.NewGateway(cfg, logger)
	return routes.NewEngine(cfg, gw, logger), nil
}

// Handler serves one request.
func Handler(w http.ResponseWriter, r *http.Request) {
	engineOnce.Do(func() {
		engine, engineErr = buildEngine()
	})
	if engineErr != nil {
		slog.Error("failed to start CMS handler", "error", engineErr)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Server configuration error"}`))
		return
	}
	engine.ServeHTTP(w, r)
}
