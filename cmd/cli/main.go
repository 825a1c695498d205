package main

import (
	"campus-assistant/observability"
	"campus-assistant/repositories"
	"campus-assistant/responder"
	"campus-assistant/runtime"
	"campus-assistant/runtime/workers"
	"campus-assistant/search"
	"campus-assistant/services"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.OpenInMemory()
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() { _ = db.Close() }()
	index, err := search.NewInMemoryIndex(log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() { _ = index.Close() }()
	campus, err := responder.NewCampusResponder()
	if err != nil {
		return err
	}

	monitoring := observability.NewMonitoringManager(log)
	orchestrator := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, time.Second),
		runtime.NewRegistry(),
		repositories.NewMessageRepository(db, log, nil),
		index, campus, monitoring,
		runtime.Options{NumberOfWorkers: 1, BufferSize: 16, TypingDelay: config.TypingDelay, SinkTimeout: time.Second})
	go func() { _ = orchestrator.Start(ctx) }()
	defer orchestrator.Stop()
	for !orchestrator.Running() {
		time.Sleep(5 * time.Millisecond)
	}

	terminal := NewTerminal(services.NewAssistantService(orchestrator, monitoring, config.MaxContentLength), os.Stdout, config.Colours)
	if err := terminal.Start(ctx); err != nil {
		return err
	}
	defer terminal.Close()
	return terminal.Loop(ctx, os.Stdin)
}
