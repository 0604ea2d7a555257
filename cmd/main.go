package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"

	"github.com/firekill222/signaling-server/domain/event"
	"github.com/firekill222/signaling-server/infrastructure/ws"
	"github.com/firekill222/signaling-server/internal"
	"github.com/firekill222/signaling-server/observability"
	"github.com/firekill222/signaling-server/runtime"
	"github.com/firekill222/signaling-server/runtime/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Relay core: registry, dispatcher, engine, event loop
	stats := observability.NewRelayStats()
	registry := runtime.NewRegistry()
	events := make(chan event.SessionEvent, config.EventBufferSize)
	hub := ws.NewHub(log, ws.Options{
		SendBufferSize: config.SendBufferSize,
		WriteTimeout:   config.WriteTimeout,
		PongTimeout:    config.PongTimeout,
		MaxMessageSize: config.MaxMessageSize,
	}, events)
	engine := runtime.NewEngine(log, registry, hub, stats)

	// 3. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewRelayWorker(log, events, engine))
	sup.Add(workers.NewTelemetryWorker(log, config.MetricInterval, registry, stats))

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 5. Debug surface
	debugServer := internal.StartDebugServer(log, config.DebugPort, registry, stats)

	// 6. Relay endpoint
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", server.Addr, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("relay server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	_ = debugServer.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
