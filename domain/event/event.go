package event

import (
	"campus-assistant/domain"
	"time"
)

type DomainEvent interface {
	SessionID() domain.SessionID
}

// MessageAppended is emitted once a message is part of a conversation.
type MessageAppended struct {
	Message domain.Message
}

func (m MessageAppended) SessionID() domain.SessionID {
	return m.Message.Session
}

// TypingChanged reports whether the assistant is composing a reply.
type TypingChanged struct {
	Session domain.SessionID
	Typing  bool
	At      time.Time
}

func (t TypingChanged) SessionID() domain.SessionID {
	return t.Session
}
