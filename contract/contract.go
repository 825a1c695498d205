//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"campus-assistant/domain"
	"campus-assistant/domain/event"
	"campus-assistant/responder"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type IRegistry interface {
	GetSinksForSession(session domain.SessionID) []EventSink
	Subscribe(connectionID string, session domain.SessionID, sink EventSink)
	Unsubscribe(connectionID string, session domain.SessionID)
}

type Responder interface {
	Respond(query string) responder.Reply
}

// MessageAppender appends messages at the tail of a conversation.
type MessageAppender interface {
	Append(ctx context.Context, message domain.Message) (domain.Message, error)
}

// TypingTracker counts replies still being composed per session.
type TypingTracker interface {
	Begin(session domain.SessionID)
	Done(session domain.SessionID)
}
