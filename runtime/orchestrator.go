// Package runtime handles job routing, event propagation and the typing state.
// It orchestrates the assistant without containing any answering rule.
package runtime

import (
	"campus-assistant/contract"
	"campus-assistant/conversation"
	"campus-assistant/domain"
	"campus-assistant/domain/event"
	"campus-assistant/errors"
	"campus-assistant/observability"
	"campus-assistant/repositories"
	"campus-assistant/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

type Options struct {
	NumberOfWorkers int
	BufferSize      int
	TypingDelay     time.Duration
	SinkTimeout     time.Duration
	SampleInterval  time.Duration
	// LowCapacityThreshold is the free room below which a channel is reported.
	LowCapacityThreshold int
}

type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	registry   *Registry
	store      *conversation.Store
	typing     *Typing
	responder  contract.Responder
	monitoring *observability.MonitoringManager
	jobs       []chan domain.AskCommand
	events     chan event.DomainEvent
	options    Options
	running    atomic.Bool
	// asking serializes the questions of a session from append to enqueue.
	asking sync.Map
}

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor, registry *Registry,
	repository repositories.IMessageRepository, index conversation.Indexer,
	responder contract.Responder, monitoring *observability.MonitoringManager, options Options) *Orchestrator {
	if options.NumberOfWorkers < 1 {
		options.NumberOfWorkers = 1
	}
	events := make(chan event.DomainEvent, options.BufferSize)
	jobs := make([]chan domain.AskCommand, options.NumberOfWorkers)
	for i := range jobs {
		jobs[i] = make(chan domain.AskCommand, options.BufferSize)
	}
	return &Orchestrator{
		log:        log,
		supervisor: supervisor,
		registry:   registry,
		store:      conversation.NewStore(log, repository, index, events),
		typing:     NewTyping(log, events),
		responder:  responder,
		monitoring: monitoring,
		jobs:       jobs,
		events:     events,
		options:    options,
	}
}

// Start registers every worker and runs the supervisor until ctx is canceled
// or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	for _, jobs := range o.jobs {
		o.supervisor.Add(workers.NewReplyWorker(o.log, jobs, o.responder, o.store, o.typing, o.options.TypingDelay))
	}
	o.supervisor.Add(workers.NewEventFanout(o.log, o.events, o.registry, o.options.SinkTimeout, o.monitoring))
	if o.options.SampleInterval > 0 {
		o.supervisor.Add(
			workers.NewProcessSampler(o.log, o.options.SampleInterval, o.monitoring),
			workers.NewChannelCapacityWorker(o.log, o.namedChannels(), o.monitoring,
				o.options.SampleInterval, o.options.LowCapacityThreshold),
		)
	}
	o.running.Store(true)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "reply_workers", len(o.jobs))
	o.supervisor.Run(ctx)
	o.running.Store(false)
	return nil
}

func (o *Orchestrator) namedChannels() []workers.NamedChannel {
	channels := []workers.NamedChannel{{Name: "events", Channel: o.events}}
	for i, jobs := range o.jobs {
		channels = append(channels, workers.NamedChannel{Name: fmt.Sprintf("replies-%d", i), Channel: jobs})
	}
	return channels
}

// Stop cancels the supervised workers. Pending replies are abandoned.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.running.Store(false)
	o.supervisor.Stop()
}

func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

func (o *Orchestrator) OpenSession(session domain.SessionID) error {
	if !o.store.Open(session) {
		return fmt.Errorf("session %s already exists", session)
	}
	return nil
}

// Post appends a bot message directly, without any delay.
func (o *Orchestrator) Post(ctx context.Context, session domain.SessionID, content string, category domain.Category) (domain.Message, error) {
	return o.store.Append(ctx, domain.NewBotMessage(session, content, category))
}

// Ask appends the user message and schedules exactly one reply for it.
func (o *Orchestrator) Ask(ctx context.Context, message domain.Message) (domain.Message, error) {
	if !o.Running() {
		return domain.Message{}, errors.ErrAssistantStopped
	}
	lock := o.askLock(message.Session)
	lock.Lock()
	defer lock.Unlock()

	appended, err := o.store.Append(ctx, message)
	if err != nil {
		return domain.Message{}, err
	}
	o.typing.Begin(appended.Session)

	cmd := domain.AskCommand{
		Session:   appended.Session,
		MessageID: appended.ID,
		Content:   appended.Content,
		At:        appended.CreatedAt,
	}
	select {
	case o.route(appended.Session) <- cmd:
		return appended, nil
	case <-ctx.Done():
		o.typing.Done(appended.Session)
		return appended, fmt.Errorf("reply not scheduled: %w", ctx.Err())
	}
}

func (o *Orchestrator) askLock(session domain.SessionID) *sync.Mutex {
	lock, _ := o.asking.LoadOrStore(session, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// route always sends the jobs of one session to the same worker.
func (o *Orchestrator) route(session domain.SessionID) chan<- domain.AskCommand {
	return o.jobs[xxhash.Sum64String(string(session))%uint64(len(o.jobs))]
}

func (o *Orchestrator) IsTyping(session domain.SessionID) bool {
	return o.typing.IsTyping(session)
}

// Connect subscribes a sink to the events of an existing session.
func (o *Orchestrator) Connect(connectionID string, session domain.SessionID, sink contract.EventSink) error {
	if !o.store.Exists(session) {
		return errors.ErrSessionNotFound
	}
	o.registry.Subscribe(connectionID, session, sink)
	return nil
}

func (o *Orchestrator) Disconnect(connectionID string, session domain.SessionID) {
	o.registry.Unsubscribe(connectionID, session)
}

func (o *Orchestrator) History(session domain.SessionID, cursor *string) ([]domain.Message, *string, error) {
	return o.store.History(session, cursor)
}

func (o *Orchestrator) Conversation(session domain.SessionID) (*domain.Conversation, error) {
	return o.store.Conversation(session)
}

func (o *Orchestrator) Search(ctx context.Context, session domain.SessionID, text string, limit int) ([]domain.Message, error) {
	return o.store.Search(ctx, session, text, limit)
}

// CloseSession forgets a session. A reply still pending for it is dropped.
func (o *Orchestrator) CloseSession(session domain.SessionID) error {
	if err := o.store.Close(session); err != nil {
		return err
	}
	o.typing.Forget(session)
	o.asking.Delete(session)
	return nil
}

func (o *Orchestrator) Sessions() int {
	return o.store.Count()
}

func (o *Orchestrator) Connections() int {
	return o.registry.Connections()
}
