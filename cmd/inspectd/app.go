package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/ARTM2000/guise"
	"github.com/ARTM2000/guise/inspect"
)

const (
	envAddr        = "GUISE_INSPECT_ADDR"
	envLogLevel    = "GUISE_LOG_LEVEL"
	envDatabaseURL = "GUISE_DATABASE_URL"

	defaultAddr            = ":8089"
	defaultDatabaseURL     = "postgres://localhost:5432/app"
	defaultShutdownTimeout = 5 * time.Second
	mountPath              = "/debug/guise"
)

type appConfig struct {
	addr        string
	logLevel    slog.Level
	databaseURL string
}

// loadConfig reads files (default .env) into the environment, ignoring
// missing files, then builds the config from the environment.
func loadConfig(files ...string) (appConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return appConfig{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := appConfig{addr: defaultAddr, logLevel: slog.LevelInfo, databaseURL: defaultDatabaseURL}
	if addr := os.Getenv(envAddr); addr != "" {
		cfg.addr = addr
	}
	if url := os.Getenv(envDatabaseURL); url != "" {
		cfg.databaseURL = url
	}
	if level := os.Getenv(envLogLevel); level != "" {
		if err := cfg.logLevel.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
			return appConfig{}, fmt.Errorf("parse %s: %w", envLogLevel, err)
		}
	}
	return cfg, nil
}

func newRouter(r *guise.Registry) http.Handler {
	mux := chi.NewRouter()
	mux.Mount(mountPath, inspect.Handler(r))
	mux.Get("/users/{id}", userRoute(r))
	return mux
}

// userRoute renders one user with the exporter named by the format query
// parameter (default json).
func userRoute(r *guise.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(req, "id"))
		if err != nil {
			http.Error(w, "invalid user id", http.StatusBadRequest)
			return
		}

		format := req.URL.Query().Get("format")
		if format == "" {
			format = "json"
		}
		key := guise.NewKey[Exporter](format, exportersContainer)
		exporter, ok, err := guise.Resolve(r, key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "unknown format "+format, http.StatusNotFound)
			return
		}

		h, err := guise.ResolveInto(r, &userHandler{})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if h.Users == nil {
			http.Error(w, "user service unavailable", http.StatusServiceUnavailable)
			return
		}

		if reg, ok := r.Lookup(key); ok {
			if ct, ok := guise.MetadataAs[string](reg); ok {
				w.Header().Set("Content-Type", ct)
			}
		}
		_, _ = io.WriteString(w, exporter.Export(id, h.Users.GetUser(id)))
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.logLevel}))
	// The default registry logs through slog.Default, so set it first.
	slog.SetDefault(logger)

	registry := guise.Default()
	registerServices(registry, cfg, logger)

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           newRouter(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("inspectd listening", "addr", cfg.addr, "path", mountPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	logger.Info("inspectd shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
