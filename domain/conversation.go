package domain

import (
	"campus-assistant/errors"
)

// Conversation is the append-only history of one session.
// Sequence order equals chronological order.
type Conversation struct {
	Session  SessionID
	messages []Message
}

func NewConversation(session SessionID) *Conversation {
	return &Conversation{Session: session}
}

// Append adds a message at the tail. A message stamped before the current
// tail is rejected, equal timestamps are accepted.
func (c *Conversation) Append(message Message) error {
	if message.Session != c.Session {
		return errors.ErrSessionMismatch
	}
	if n := len(c.messages); n > 0 && message.CreatedAt.Before(c.messages[n-1].CreatedAt) {
		return errors.ErrNonChronological
	}
	c.messages = append(c.messages, message)
	return nil
}

// Messages returns a copy of the history, oldest first.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}
