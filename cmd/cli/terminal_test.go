package main

import (
	"bytes"
	"campus-assistant/observability"
	"campus-assistant/repositories"
	"campus-assistant/responder"
	"campus-assistant/runtime"
	"campus-assistant/runtime/workers"
	"campus-assistant/search"
	"campus-assistant/services"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTerminal(t *testing.T) (*Terminal, *syncBuffer) {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)

	db, err := repositories.OpenInMemory()
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	index, err := search.NewInMemoryIndex(log)
	req.NoError(err)
	t.Cleanup(func() { _ = index.Close() })
	campus, err := responder.NewCampusResponder()
	req.NoError(err)

	monitoring := observability.NewMonitoringManager(log)
	orchestrator := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, 10*time.Millisecond),
		runtime.NewRegistry(),
		repositories.NewMessageRepository(db, log, nil),
		index, campus, monitoring,
		runtime.Options{NumberOfWorkers: 1, BufferSize: 16, TypingDelay: 5 * time.Millisecond, SinkTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = orchestrator.Start(ctx) }()
	req.Eventually(orchestrator.Running, time.Second, 5*time.Millisecond)

	out := &syncBuffer{}
	terminal := NewTerminal(services.NewAssistantService(orchestrator, monitoring, 100), out, false)
	req.NoError(terminal.Start(context.Background()))
	return terminal, out
}

func TestTerminal_Conversation(t *testing.T) {
	req := require.New(t)
	terminal, out := newTerminal(t)
	ctx := context.Background()

	// Given the greeting and the help table were printed
	req.Contains(out.String(), "Assistant: "+responder.Greeting)
	req.Contains(out.String(), "Library Services")

	// When the user asks about food then presses the admin quick action
	req.False(terminal.Handle(ctx, "Any good food around?"))
	req.Eventually(func() bool { return strings.Contains(out.String(), "Dining options include") }, 2*time.Second, 5*time.Millisecond)
	req.False(terminal.Handle(ctx, "/5"))

	// Then the quick action query is echoed and answered
	req.Contains(out.String(), "You: How do I register for classes?")
	req.Eventually(func() bool { return strings.Count(out.String(), "Assistant: ") == 3 }, 2*time.Second, 5*time.Millisecond)
	req.Contains(out.String(), "Assistant is typing")

	// And the transcript can be searched
	req.False(terminal.Handle(ctx, "/search food"))
	req.Contains(out.String(), "Any good food around?")
}

func TestTerminal_Commands(t *testing.T) {
	req := require.New(t)
	terminal, out := newTerminal(t)
	ctx := context.Background()

	req.False(terminal.Handle(ctx, "/9"))
	req.Contains(out.String(), "unknown quick action")

	req.False(terminal.Handle(ctx, "/dance"))
	req.Contains(out.String(), "Unknown command /dance")

	req.False(terminal.Handle(ctx, "/search zzzqqq"))
	req.Contains(out.String(), "No match")

	req.False(terminal.Handle(ctx, "   "))
	req.True(terminal.Handle(ctx, "/quit"))

	err := terminal.Loop(ctx, strings.NewReader("/history\n/quit\nnever read\n"))
	req.NoError(err)
	req.Contains(out.String(), "bot")
}

func TestTerminal_LoopStopsOnCancel(t *testing.T) {
	req := require.New(t)
	terminal, _ := newTerminal(t)

	// Given a user who never presses Enter
	in, writer := io.Pipe()
	defer writer.Close()
	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan error, 1)
	go func() { returned <- terminal.Loop(ctx, in) }()

	// When the interrupt cancels the context
	cancel()

	// Then the loop returns without waiting for a line
	select {
	case err := <-returned:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("loop still waiting for input")
	}
}
