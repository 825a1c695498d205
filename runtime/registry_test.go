package runtime

import (
	"campus-assistant/contract"
	"campus-assistant/domain"
	"campus-assistant/domain/event"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Subscribe_One_Session_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	session := domain.SessionID(uuid.NewString())
	sink := Sink{name: "tab"}

	// Given nobody is connected
	req.Empty(registry.connections)
	req.Empty(registry.sessions)

	// When a connection subscribes to a session
	registry.Subscribe(connectionID, session, sink)

	// Then
	req.Equal(1, registry.Connections())
	req.Equal(sink, registry.connections[connectionID])
	req.Contains(registry.sessions[session], connectionID)
	req.Equal([]contract.EventSink{sink}, registry.GetSinksForSession(session))
}

func TestRegistry_Subscribe_One_Session_Multiple_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	session := domain.SessionID(uuid.NewString())
	sink1 := Sink{name: "tab-1"}
	sink2 := Sink{name: "tab-2"}

	registry.Subscribe("c1", session, sink1)
	registry.Subscribe("c2", session, sink2)

	req.Equal(2, registry.Connections())
	req.Len(registry.sessions[session], 2)
	req.ElementsMatch([]contract.EventSink{sink1, sink2}, registry.GetSinksForSession(session))
	req.Nil(registry.GetSinksForSession("other"))
}

func TestRegistry_Unsubscribe(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	session := domain.SessionID(uuid.NewString())
	sink1 := Sink{name: "tab-1"}
	sink2 := Sink{name: "tab-2"}
	registry.Subscribe("c1", session, sink1)
	registry.Subscribe("c2", session, sink2)

	// When one connection leaves
	registry.Unsubscribe("c1", session)

	// Then only the other one is left
	req.Equal([]contract.EventSink{sink2}, registry.GetSinksForSession(session))

	// When the last connection leaves
	registry.Unsubscribe("c2", session)

	// Then the session entry is removed
	req.Empty(registry.connections)
	req.Empty(registry.sessions)
	req.Nil(registry.GetSinksForSession(session))
}
