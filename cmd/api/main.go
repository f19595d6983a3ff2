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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"cendeu-features-go/internal/api"
	"cendeu-features-go/internal/bureau"
	"cendeu-features-go/internal/logger"
	"cendeu-features-go/internal/metrics"
	"cendeu-features-go/internal/processor"
	"cendeu-features-go/internal/store"
	"cendeu-features-go/internal/window"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.Info("starting service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run returns before any fatal exit so its deferred closes happen
	if err := run(ctx, log); err != nil {
		log.WithError(err).Fatal("service stopped")
	}
	log.Info("service stopped")
}

func run(ctx context.Context, log *logger.Logger) error {
	windows := window.DefaultConfig()
	if path := os.Getenv("WINDOWS_CONFIG"); path != "" {
		cfg, err := window.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("invalid window config: %w", err)
		}
		windows = cfg
		log.WithField("windows_config", path).Info("window config loaded")
	}

	source, closeSource, err := openSource(ctx, log)
	if err != nil {
		return err
	}
	defer closeSource()

	proc, err := processor.New(source, windows)
	if err != nil {
		return fmt.Errorf("invalid window config: %w", err)
	}

	metrics.Init()
	mux := api.NewMux(proc)
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	return serve(ctx, srv)
}

// openSource picks the debt source from the environment. The returned close
// func is always safe to call.
func openSource(ctx context.Context, log *logger.Logger) (processor.Source, func(), error) {
	switch {
	case os.Getenv("USE_MOCK_BUREAU") == "true":
		log.Warn("using mock bureau")
		return bureau.Mock{}, func() {}, nil
	case os.Getenv("DATABASE_URL") != "":
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		db, err := store.Open(connectCtx, os.Getenv("DATABASE_URL"))
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect failed: %w", err)
		}
		log.Info("reading debts from postgres")
		return db, db.Close, nil
	default:
		client, err := bureau.NewFromEnv()
		if err != nil {
			return nil, nil, fmt.Errorf("bureau client not configured: %w", err)
		}
		return client, func() {}, nil
	}
}

// serve runs srv until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
