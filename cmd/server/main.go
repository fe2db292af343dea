package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/lunch-picker/lunch-picker/internal/api/http"
	"github.com/lunch-picker/lunch-picker/internal/application/choice"
	"github.com/lunch-picker/lunch-picker/internal/application/guard"
	"github.com/lunch-picker/lunch-picker/internal/application/pick"
	"github.com/lunch-picker/lunch-picker/internal/application/session"
	"github.com/lunch-picker/lunch-picker/internal/application/user"
	"github.com/lunch-picker/lunch-picker/internal/config"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/metrics"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/random"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/sse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store error")
	}
	defer st.close()

	metrics.Register()

	// infrastructure
	sseHub := sse.NewHub()
	defer sseHub.Stop()
	rnd := random.New(&random.Config{Seed: cfg.RandomSeed})

	// services
	userSvc := user.NewService(st.users, logger)
	if _, err := userSvc.LoadCSV(ctx, cfg.UsersCSVPath); err != nil {
		logger.Fatal().Err(err).Msg("user directory load failed")
	}
	sessionSvc := session.NewService(st.sessions, st.choices, st.users, logger)
	choiceSvc := choice.NewService(st.sessions, st.choices, sseHub, logger)
	pickSvc := pick.NewService(st.sessions, st.choices, guard.New(st.sessions), rnd, sseHub, logger)

	// API server
	apiServer := httpapi.NewServer(sessionSvc, choiceSvc, pickSvc, userSvc, sseHub, st.health, logger, cfg.RequestTimeout)

	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No write timeout: event streams are long-lived. Per-request
		// deadlines come from the router's timeout middleware.
		IdleTimeout: 60 * time.Second,
	}

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("driver", cfg.StoreDriver).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	// closing subscriber channels ends open event streams so Shutdown can drain
	sseHub.Stop()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	logger.Info().Msg("http server stopped")
}
