package runtime

import (
	"campus-assistant/domain"
	"campus-assistant/domain/event"
	"log/slog"
	"sync"
	"time"
)

// Typing counts the replies still being composed for each session and
// announces when a session starts or stops "typing".
type Typing struct {
	mu      sync.Mutex
	log     *slog.Logger
	pending map[domain.SessionID]int
	events  chan<- event.DomainEvent
}

func NewTyping(log *slog.Logger, events chan<- event.DomainEvent) *Typing {
	return &Typing{log: log, pending: make(map[domain.SessionID]int), events: events}
}

func (t *Typing) Begin(session domain.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[session]++
	if t.pending[session] == 1 {
		t.publish(session, true)
	}
}

func (t *Typing) Done(session domain.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.pending[session]
	if !ok {
		return
	}
	if n <= 1 {
		delete(t.pending, session)
		t.publish(session, false)
		return
	}
	t.pending[session] = n - 1
}

func (t *Typing) IsTyping(session domain.SessionID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending[session] > 0
}

// Forget drops the counter of a closed session without announcing anything.
func (t *Typing) Forget(session domain.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, session)
}

func (t *Typing) publish(session domain.SessionID, typing bool) {
	if t.events == nil {
		return
	}
	select {
	case t.events <- event.TypingChanged{Session: session, Typing: typing, At: time.Now().UTC()}:
	default:
		t.log.Warn("Event channel full, dropping typing event", "session", session)
	}
}
