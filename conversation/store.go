// Package conversation keeps the append-only history of every open session.
// It assigns sequence numbers and timestamps, stores and indexes messages,
// and announces them as domain events.
package conversation

import (
	"campus-assistant/domain"
	"campus-assistant/domain/event"
	"campus-assistant/errors"
	"campus-assistant/repositories"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Indexer interface {
	Add(message domain.Message) error
	Delete(ids []uuid.UUID) error
	Search(ctx context.Context, session domain.SessionID, text string, limit int) ([]uuid.UUID, error)
}

type tail struct {
	seq uint64
	at  time.Time
}

type Store struct {
	mu         sync.Mutex
	log        *slog.Logger
	tails      map[domain.SessionID]*tail
	repository repositories.IMessageRepository
	index      Indexer
	events     chan<- event.DomainEvent
	now        func() time.Time
}

func NewStore(log *slog.Logger, repository repositories.IMessageRepository, index Indexer, events chan<- event.DomainEvent) *Store {
	return &Store{
		log:        log,
		tails:      make(map[domain.SessionID]*tail),
		repository: repository,
		index:      index,
		events:     events,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Open registers a session. It returns false when the session already exists.
func (s *Store) Open(session domain.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tails[session]; ok {
		return false
	}
	s.tails[session] = &tail{}
	return true
}

func (s *Store) Exists(session domain.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tails[session]
	return ok
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tails)
}

// Append stamps the message and puts it at the tail of its conversation.
// Timestamps never go backwards within a session, so sequence order equals
// chronological order. Events leave in the same order.
func (s *Store) Append(_ context.Context, message domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tails[message.Session]
	if !ok {
		return domain.Message{}, errors.ErrSessionNotFound
	}
	at := s.now()
	if at.Before(t.at) {
		at = t.at
	}
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = at
	if err := s.repository.StoreMessage(toDiskMessage(message, t.seq)); err != nil {
		return domain.Message{}, fmt.Errorf("failed to store message: %w", err)
	}
	t.seq++
	t.at = at

	if err := s.index.Add(message); err != nil {
		s.log.Warn("Failed to index message", "session", message.Session, "error", err)
	}
	s.publish(event.MessageAppended{Message: message})
	return message, nil
}

// History returns a page of the conversation, oldest first.
func (s *Store) History(session domain.SessionID, cursor *string) ([]domain.Message, *string, error) {
	if !s.Exists(session) {
		return nil, nil, errors.ErrSessionNotFound
	}
	messages, next, err := s.repository.GetMessages(string(session), cursor)
	if err != nil {
		return nil, nil, err
	}
	return lo.Map(messages, func(item repositories.DiskMessage, _ int) domain.Message {
		return fromDiskMessage(item)
	}), next, nil
}

// Conversation loads the complete history of a session.
func (s *Store) Conversation(session domain.SessionID) (*domain.Conversation, error) {
	if !s.Exists(session) {
		return nil, errors.ErrSessionNotFound
	}
	return s.load(session)
}

func (s *Store) load(session domain.SessionID) (*domain.Conversation, error) {
	conversation := domain.NewConversation(session)
	var cursor *string
	for {
		page, next, err := s.repository.GetMessages(string(session), cursor)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return conversation, nil
		}
		for _, item := range page {
			if err := conversation.Append(fromDiskMessage(item)); err != nil {
				return nil, err
			}
		}
		cursor = next
	}
}

// Search returns the messages of the session matching text, in conversation order.
func (s *Store) Search(ctx context.Context, session domain.SessionID, text string, limit int) ([]domain.Message, error) {
	conversation, err := s.Conversation(session)
	if err != nil {
		return nil, err
	}
	ids, err := s.index.Search(ctx, session, text, limit)
	if err != nil {
		return nil, err
	}
	found := lo.SliceToMap(ids, func(id uuid.UUID) (uuid.UUID, struct{}) { return id, struct{}{} })
	return lo.Filter(conversation.Messages(), func(m domain.Message, _ int) bool {
		_, ok := found[m.ID]
		return ok
	}), nil
}

// Close forgets a session and everything it contains. Once the tail is
// removed no append can reach the session, so the messages read afterwards
// are all of them.
func (s *Store) Close(session domain.SessionID) error {
	s.mu.Lock()
	if _, ok := s.tails[session]; !ok {
		s.mu.Unlock()
		return errors.ErrSessionNotFound
	}
	delete(s.tails, session)
	s.mu.Unlock()

	conversation, err := s.load(session)
	if err != nil {
		return err
	}
	ids := lo.Map(conversation.Messages(), func(m domain.Message, _ int) uuid.UUID { return m.ID })
	if err := s.index.Delete(ids); err != nil {
		s.log.Warn("Failed to remove session from index", "session", session, "error", err)
	}
	return s.repository.DeleteSession(string(session))
}

// publish never blocks: history is authoritative, events are notifications.
func (s *Store) publish(e event.DomainEvent) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- e:
	default:
		s.log.Warn("Event channel full, dropping event", "session", e.SessionID())
	}
}

func toDiskMessage(message domain.Message, seq uint64) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:       message.ID,
		Session:  string(message.Session),
		Seq:      seq,
		Sender:   string(message.Sender),
		Content:  message.Content,
		Category: string(message.Category),
		Language: message.Language,
		At:       message.CreatedAt,
	}
}

func fromDiskMessage(message repositories.DiskMessage) domain.Message {
	return domain.Message{
		ID:        message.ID,
		Session:   domain.SessionID(message.Session),
		Sender:    domain.Sender(message.Sender),
		Content:   message.Content,
		Category:  domain.Category(message.Category),
		Language:  message.Language,
		CreatedAt: message.At,
	}
}
