package main

import (
	"campus-assistant/api"
	"campus-assistant/infrastructure/grpc/server"
	"campus-assistant/observability"
	"campus-assistant/repositories"
	"campus-assistant/responder"
	"campus-assistant/runtime"
	"campus-assistant/runtime/workers"
	"campus-assistant/search"
	"campus-assistant/services"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, serves until a signal arrives, then shuts down
// in reverse order. Deferred cleanups run before main exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage, kept in memory: conversations end with the process
	db, err := repositories.OpenInMemory()
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	if log.Enabled(ctx, slog.LevelDebug) {
		log.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))
		database.StartDebugServer(db, config.DebugPort, "/inspect", repositories.InspectMapper)
	}

	index, err := search.NewInMemoryIndex(log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() { _ = index.Close() }()

	campus, err := responder.NewCampusResponder()
	if err != nil {
		return fmt.Errorf("responder build failed: %w", err)
	}

	// 3. Supervision & Orchestration
	monitoring := observability.NewMonitoringManager(log)
	orchestrator := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, config.RestartInterval),
		runtime.NewRegistry(),
		repositories.NewMessageRepository(db, log, config.LimitMessages),
		index, campus, monitoring,
		runtime.Options{
			NumberOfWorkers: config.NumberOfWorkers,
			BufferSize:      config.BufferSize,
			TypingDelay:     config.TypingDelay,
			SinkTimeout:     config.SinkTimeout,
			SampleInterval:  config.MetricInterval,

			LowCapacityThreshold: config.LowCapacityThreshold,
		})
	svc := services.NewAssistantService(orchestrator, monitoring, config.MaxContentLength)

	errChan := make(chan error, 3)
	go func() {
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 4. HTTP & WebSocket
	httpServer := api.NewServer(log, svc, fmt.Sprintf("%s:%d", config.Host, config.Port), config.ConnectionBufferSize, config.MaxContentLength)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 5. gRPC health
	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	healthServer := server.NewHealthServer(log)
	go func() {
		if err := healthServer.Serve(listener); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	healthServer.SetServing(true)
	log.Info("Campus assistant ready", "widget", fmt.Sprintf("http://%s:%d/", config.Host, config.Port))

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errChan:
		return err
	}

	// 7. Graceful shutdown
	healthServer.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server did not stop cleanly", "error", err)
	}
	orchestrator.Stop()
	healthServer.GracefulStop()
	log.Info("Program stopped cleanly")
	return nil
}
