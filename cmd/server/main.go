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

	"github.com/gin-gonic/gin"

	"github.com/radarjoki/backend/internal/api"
	"github.com/radarjoki/backend/internal/auth"
	"github.com/radarjoki/backend/internal/config"
	"github.com/radarjoki/backend/internal/discord"
	"github.com/radarjoki/backend/internal/relay"
	"github.com/radarjoki/backend/internal/store"
	pkgLogger "github.com/radarjoki/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Log.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logger := pkgLogger.NewLogger(pkgLogger.LogLevel(level))

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to migrate database: %v\n", err)
		os.Exit(1)
	}

	authManager := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLDuration())

	bus := relay.NewMessageBus(64)
	registry := relay.NewRegistry(cfg.Relay.SendBuffer, logger)

	gateway, err := discord.NewGateway(bus, cfg.Discord, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create discord gateway: %v\n", err)
		os.Exit(1)
	}

	relayService := relay.NewService(registry, gateway, bus, cfg.Discord.ChannelID, logger)
	wsServer := relay.NewWSServer(relayService, cfg.Relay, logger)

	router := gin.Default()
	handler := api.NewHandler(st, authManager, relayService, wsServer, cfg.Server.CORSOrigin, logger)
	handler.RegisterRoutes(router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	// A gateway that cannot bind its channel is fatal: the relay can never
	// function, so the process refuses to run degraded.
	gatewayErr := make(chan error, 1)
	go func() {
		gatewayErr <- gateway.Start(ctx)
	}()

	go func() {
		if err := relayService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("relay stopped", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}
	httpDone := make(chan struct{})
	go func() {
		defer close(httpDone)
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	gwErr := <-gatewayErr
	cancel()
	// Let in-flight HTTP requests drain before the process exits.
	<-httpDone

	if gwErr != nil && !errors.Is(gwErr, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Discord gateway error: %v\n", gwErr)
		os.Exit(1)
	}
}
