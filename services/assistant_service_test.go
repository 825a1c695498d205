package services

import (
	"campus-assistant/domain"
	"campus-assistant/errors"
	"campus-assistant/observability"
	"campus-assistant/repositories"
	"campus-assistant/responder"
	"campus-assistant/runtime"
	"campus-assistant/runtime/workers"
	"campus-assistant/search"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newAssistant(t *testing.T) *AssistantService {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

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
		runtime.Options{NumberOfWorkers: 2, BufferSize: 100, TypingDelay: 10 * time.Millisecond, SinkTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = orchestrator.Start(ctx) }()
	req.Eventually(orchestrator.Running, time.Second, 5*time.Millisecond)

	return NewAssistantService(orchestrator, monitoring, 50)
}

func waitForMessages(t *testing.T, svc *AssistantService, session domain.SessionID, n int) []domain.Message {
	t.Helper()
	require.Eventually(t, func() bool {
		messages, _, err := svc.History(string(session), nil)
		return err == nil && len(messages) == n && !svc.IsTyping(string(session))
	}, 2*time.Second, 5*time.Millisecond)
	messages, _, err := svc.History(string(session), nil)
	require.NoError(t, err)
	return messages
}

func TestAssistantService_StartSession(t *testing.T) {
	req := require.New(t)
	svc := newAssistant(t)

	session, greeting, err := svc.StartSession(context.Background())

	req.NoError(err)
	req.NotEmpty(session)
	req.Equal(responder.Greeting, greeting.Content)
	req.Equal(domain.SenderBot, greeting.Sender)
	req.Equal(uint64(1), svc.Stats().SessionsStarted)
	req.Equal(1, svc.Stats().ActiveSessions)
}

func TestAssistantService_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("should append one question then exactly one reply", func(t *testing.T) {
		req := require.New(t)
		svc := newAssistant(t)
		session, _, err := svc.StartSession(ctx)
		req.NoError(err)

		// When a question is asked
		question, err := svc.Ask(ctx, AskRequest{Session: string(session), Content: "  What time is my class?  "})

		// Then the user message is returned trimmed
		req.NoError(err)
		req.NotNil(question)
		req.Equal("What time is my class?", question.Content)

		// And exactly one reply follows it
		messages := waitForMessages(t, svc, session, 3)
		req.Equal(domain.SenderUser, messages[1].Sender)
		req.Equal(domain.SenderBot, messages[2].Sender)
		req.Equal(domain.CategorySchedules, messages[2].Category)
		time.Sleep(30 * time.Millisecond)
		messages, _, err = svc.History(string(session), nil)
		req.NoError(err)
		req.Len(messages, 3)
	})

	t.Run("should ignore blank input", func(t *testing.T) {
		req := require.New(t)
		svc := newAssistant(t)
		session, _, err := svc.StartSession(ctx)
		req.NoError(err)

		for _, blank := range []string{"", "   ", "\t\n"} {
			message, err := svc.Ask(ctx, AskRequest{Session: string(session), Content: blank})
			req.NoError(err)
			req.Nil(message)
		}

		time.Sleep(30 * time.Millisecond)
		messages, _, err := svc.History(string(session), nil)
		req.NoError(err)
		req.Len(messages, 1)
		req.False(svc.IsTyping(string(session)))
		req.Equal(uint64(3), svc.Stats().IgnoredInputs)
	})

	t.Run("should answer unknown topics with the fallback", func(t *testing.T) {
		req := require.New(t)
		svc := newAssistant(t)
		session, _, err := svc.StartSession(ctx)
		req.NoError(err)

		_, err = svc.Ask(ctx, AskRequest{Session: string(session), Content: "Who won the game?"})
		req.NoError(err)

		messages := waitForMessages(t, svc, session, 3)
		req.Equal(responder.Fallback, messages[2].Content)
		req.Equal(domain.CategoryGeneral, messages[2].Category)
	})

	t.Run("should reject too long content", func(t *testing.T) {
		req := require.New(t)
		svc := newAssistant(t)
		session, _, err := svc.StartSession(ctx)
		req.NoError(err)

		_, err = svc.Ask(ctx, AskRequest{Session: string(session), Content: strings.Repeat("a", 51)})

		req.ErrorIs(err, errors.ErrInvalidInput)
	})

	t.Run("should reject unknown sessions", func(t *testing.T) {
		req := require.New(t)
		svc := newAssistant(t)

		_, err := svc.Ask(ctx, AskRequest{Session: "not-a-uuid", Content: "hello"})
		req.ErrorIs(err, errors.ErrSessionNotFound)

		_, err = svc.Ask(ctx, AskRequest{Session: uuid.NewString(), Content: "hello"})
		req.ErrorIs(err, errors.ErrSessionNotFound)
	})
}

func TestAssistantService_AskQuickAction(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newAssistant(t)
	session, _, err := svc.StartSession(ctx)
	req.NoError(err)

	// When the dining quick action is pressed
	question, err := svc.AskQuickAction(ctx, string(session), 2)

	// Then its query is posted as if typed
	req.NoError(err)
	req.Equal(svc.QuickActions()[2].Query, question.Content)
	messages := waitForMessages(t, svc, session, 3)
	req.Equal(domain.CategoryDining, messages[2].Category)

	// And unknown buttons are rejected
	_, err = svc.AskQuickAction(ctx, string(session), 5)
	req.ErrorIs(err, errors.ErrUnknownQuickAction)
}

func TestAssistantService_SearchAndEnd(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newAssistant(t)
	session, _, err := svc.StartSession(ctx)
	req.NoError(err)
	_, err = svc.Ask(ctx, AskRequest{Session: string(session), Content: "Where is the library?"})
	req.NoError(err)
	waitForMessages(t, svc, session, 3)

	found, err := svc.Search(ctx, string(session), "library", 0)
	req.NoError(err)
	req.NotEmpty(found)

	blank, err := svc.Search(ctx, string(session), "  ", 0)
	req.NoError(err)
	req.Empty(blank)

	req.NoError(svc.EndSession(string(session)))
	req.Equal(uint64(1), svc.Stats().SessionsEnded)
	_, _, err = svc.History(string(session), nil)
	req.ErrorIs(err, errors.ErrSessionNotFound)
}
