package domain

import (
	"time"

	"github.com/google/uuid"
)

// AskCommand asks the assistant to answer a user message once the
// simulated typing delay has elapsed.
type AskCommand struct {
	Session   SessionID
	MessageID uuid.UUID
	Content   string
	At        time.Time
}

func (c AskCommand) SessionID() SessionID {
	return c.Session
}

// DueAt is the earliest moment the reply may be appended.
func (c AskCommand) DueAt(delay time.Duration) time.Time {
	return c.At.Add(delay)
}
