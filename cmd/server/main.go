package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Iamregulus/Group-savings-app/internal/auth"
	"github.com/Iamregulus/Group-savings-app/internal/config"
	"github.com/Iamregulus/Group-savings-app/internal/middleware"
	"github.com/Iamregulus/Group-savings-app/internal/notify"
	"github.com/Iamregulus/Group-savings-app/internal/savings"
	"github.com/Iamregulus/Group-savings-app/internal/service"
	"github.com/Iamregulus/Group-savings-app/internal/storage/sqlite"
	"github.com/Iamregulus/Group-savings-app/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sender notify.Sender
	if cfg.EmailEnabled() {
		sender = notify.NewHTTPSender(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, &http.Client{Timeout: cfg.EmailTimeout})
		logger.Info("Email delivery enabled", "url", cfg.EmailAPIURL)
	} else {
		sender = notify.NewLogSender(logger)
		logger.Info("Email delivery disabled, logging emails instead")
	}
	dispatcher := notify.NewDispatcher(store, sender, cfg.NotifyQueueSize, cfg.EmailTimeout, logger)
	// The dispatcher outlives the signal so requests drained by Shutdown
	// still get their emails sent.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(dispatchCtx)
	}()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	core := savings.NewService(store, dispatcher, logger)

	mux := http.NewServeMux()
	service.Mount(mux,
		service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger),
		service.NewSavingsService(core, logger),
		service.Interceptors{
			Outer: []connect.Interceptor{
				middleware.MetricsInterceptor(),
				middleware.RateLimitInterceptor(limiter),
			},
			Auth:  middleware.RequireAuth(jwtManager),
			Inner: []connect.Interceptor{middleware.LoggingInterceptor(logger)},
		},
	)
	mux.Handle("GET /export/transactions.csv", middleware.RequireAuthHTTP(jwtManager, service.NewExportHandler(core, logger)))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.LogHTTP(logger, middleware.CORS(cfg.AllowedOrigins, mux))

	// h2c serves HTTP/2 without TLS, which Connect's gRPC protocol needs.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			stopDispatch()
			<-dispatchDone
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)

	stopDispatch()
	<-dispatchDone
	return err
}
