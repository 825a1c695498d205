package observability

import (
	"campus-assistant/domain"
	"campus-assistant/domain/event"
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_CountsConversation(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug))
	ctx := context.Background()

	// Given a session with a greeting, two questions and two replies
	mm.IncrSessionsStarted()
	events := []event.DomainEvent{
		event.MessageAppended{Message: domain.NewBotMessage("s1", "hello", domain.CategoryGreeting)},
		event.MessageAppended{Message: domain.NewUserMessage("s1", "dining hours?")},
		event.MessageAppended{Message: domain.NewBotMessage("s1", "menu", domain.CategoryDining)},
		event.MessageAppended{Message: domain.NewUserMessage("s1", "weather?")},
		event.MessageAppended{Message: domain.NewBotMessage("s1", "sorry", domain.CategoryGeneral)},
		event.TypingChanged{Session: "s1", Typing: true},
	}

	// When monitoring consumes them
	for _, e := range events {
		req.NoError(mm.Consume(ctx, e))
	}
	mm.IncrIgnoredInputs()

	// Then the counters reflect the conversation
	stats := mm.GetLatest()
	req.Equal(uint64(1), stats.SessionsStarted)
	req.Equal(uint64(2), stats.Questions)
	req.Equal(uint64(2), stats.Replies)
	req.Equal(uint64(1), stats.Fallbacks)
	req.Equal(uint64(1), stats.IgnoredInputs)
	req.Equal(map[string]uint64{"dining": 1, "general": 1}, stats.RepliesPerCategory)
	req.Empty(stats.SampledAt)
}

func TestMonitoringManager_RecordProcess(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug))

	mm.RecordProcess(2048, 12.5)

	stats := mm.GetLatest()
	req.Equal(uint64(2048), stats.RSSBytes)
	req.Equal(12.5, stats.CPUPercent)
	req.NotEmpty(stats.SampledAt)
}
