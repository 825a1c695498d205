package services

import (
	"campus-assistant/contract"
	"campus-assistant/domain"
	"campus-assistant/errors"
	"campus-assistant/observability"
	"campus-assistant/responder"
	"campus-assistant/runtime"
	"context"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

const defaultSearchLimit = 20

type IAssistantService interface {
	StartSession(ctx context.Context) (domain.SessionID, domain.Message, error)
	Ask(ctx context.Context, req AskRequest) (*domain.Message, error)
	AskQuickAction(ctx context.Context, session string, index int) (*domain.Message, error)
	QuickActions() []domain.QuickAction
	History(session string, cursor *string) ([]domain.Message, *string, error)
	Search(ctx context.Context, session, text string, limit int) ([]domain.Message, error)
	IsTyping(session string) bool
	EndSession(session string) error
	Connect(connectionID, session string, sink contract.EventSink) error
	Disconnect(connectionID, session string)
	Stats() observability.Stats
}

type AssistantService struct {
	orchestrator     *runtime.Orchestrator
	monitoring       *observability.MonitoringManager
	maxContentLength int
}

func NewAssistantService(o *runtime.Orchestrator, monitoring *observability.MonitoringManager, maxContentLength int) *AssistantService {
	return &AssistantService{orchestrator: o, monitoring: monitoring, maxContentLength: maxContentLength}
}

// StartSession opens a new conversation and posts the greeting.
func (s *AssistantService) StartSession(ctx context.Context) (domain.SessionID, domain.Message, error) {
	session := domain.SessionID(uuid.NewString())
	if err := s.orchestrator.OpenSession(session); err != nil {
		return "", domain.Message{}, err
	}
	greeting, err := s.orchestrator.Post(ctx, session, responder.Greeting, domain.CategoryGreeting)
	if err != nil {
		return "", domain.Message{}, fmt.Errorf("failed to greet: %w", err)
	}
	s.monitoring.IncrSessionsStarted()
	return session, greeting, nil
}

// Ask posts a question. Blank input is ignored: it returns nil and no error.
func (s *AssistantService) Ask(ctx context.Context, req AskRequest) (*domain.Message, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validateAsk(req, s.maxContentLength); err != nil {
		return nil, err
	}
	if req.Content == "" {
		s.monitoring.IncrIgnoredInputs()
		return nil, nil
	}
	message := domain.NewUserMessage(domain.SessionID(req.Session), req.Content)
	message.Language = detectLanguage(req.Content)

	appended, err := s.orchestrator.Ask(ctx, message)
	if err != nil {
		return nil, err
	}
	return &appended, nil
}

func (s *AssistantService) AskQuickAction(ctx context.Context, session string, index int) (*domain.Message, error) {
	action, ok := domain.QuickActionAt(index)
	if !ok {
		return nil, fmt.Errorf("%w: %d", errors.ErrUnknownQuickAction, index)
	}
	return s.Ask(ctx, AskRequest{Session: session, Content: action.Query})
}

func (s *AssistantService) QuickActions() []domain.QuickAction {
	return domain.QuickActions()
}

func (s *AssistantService) History(session string, cursor *string) ([]domain.Message, *string, error) {
	if err := validateSession(session); err != nil {
		return nil, nil, err
	}
	return s.orchestrator.History(domain.SessionID(session), cursor)
}

func (s *AssistantService) Search(ctx context.Context, session, text string, limit int) ([]domain.Message, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []domain.Message{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.orchestrator.Search(ctx, domain.SessionID(session), text, limit)
}

func (s *AssistantService) IsTyping(session string) bool {
	return s.orchestrator.IsTyping(domain.SessionID(session))
}

func (s *AssistantService) EndSession(session string) error {
	if err := validateSession(session); err != nil {
		return err
	}
	if err := s.orchestrator.CloseSession(domain.SessionID(session)); err != nil {
		return err
	}
	s.monitoring.IncrSessionsEnded()
	return nil
}

func (s *AssistantService) Connect(connectionID, session string, sink contract.EventSink) error {
	if err := validateSession(session); err != nil {
		return err
	}
	return s.orchestrator.Connect(connectionID, domain.SessionID(session), sink)
}

func (s *AssistantService) Disconnect(connectionID, session string) {
	s.orchestrator.Disconnect(connectionID, domain.SessionID(session))
}

func (s *AssistantService) Stats() observability.Stats {
	stats := s.monitoring.GetLatest()
	stats.ActiveSessions = s.orchestrator.Sessions()
	stats.Connections = s.orchestrator.Connections()
	return stats
}

// detectLanguage returns an ISO 639-1 code, or "" when the guess is unreliable.
func detectLanguage(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
