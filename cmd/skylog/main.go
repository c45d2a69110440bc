// Skylog is a local-first flight logbook for drone telemetry: import DJI
// flight logs, browse and chart telemetry, export to CSV/JSON/GPX/KML/XLSX
// and print grouped HTML reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelari/skylog/internal/api"
	"github.com/avelari/skylog/internal/config"
	"github.com/avelari/skylog/internal/importer"
	"github.com/avelari/skylog/internal/storage/sqlite"
	"github.com/avelari/skylog/internal/weather"
	"github.com/avelari/skylog/pkg/logger"
)

// Version is stamped by the build.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "skylog: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "skylog.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting skylog",
		logger.String("version", Version),
		logger.String("config", *configPath),
	)

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	storage, err := sqlite.NewFlightStorage(db, log)
	if err != nil {
		return err
	}

	imp := importer.New(storage, log, importer.NewJSONParser())

	var wx *weather.Client
	if cfg.Weather.Enabled {
		wx = weather.NewClient(weather.Config{
			BaseURL:        cfg.Weather.APIBaseURL,
			RequestTimeout: cfg.Weather.RequestTimeout(),
			MaxRetries:     cfg.Weather.MaxRetries,
			CacheTTL:       cfg.Weather.CacheExpiry(),
		}, log)
	}

	handler := api.NewHandler(storage, imp, wx, cfg, Version, log)
	router := api.NewRouter(handler, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Info("Shutting down", logger.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	log.Info("Shutdown complete")
	return nil
}
