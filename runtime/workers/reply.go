package workers

import (
	"campus-assistant/contract"
	"campus-assistant/domain"
	"context"
	"log/slog"
	"time"
)

// ReplyWorker answers questions once the simulated typing delay is over.
// Jobs of one session always reach the same worker, so replies keep the
// order of the questions.
type ReplyWorker struct {
	log       *slog.Logger
	jobs      <-chan domain.AskCommand
	responder contract.Responder
	appender  contract.MessageAppender
	typing    contract.TypingTracker
	delay     time.Duration
}

func NewReplyWorker(log *slog.Logger, jobs <-chan domain.AskCommand, responder contract.Responder,
	appender contract.MessageAppender, typing contract.TypingTracker, delay time.Duration) *ReplyWorker {
	return &ReplyWorker{
		log:       log,
		jobs:      jobs,
		responder: responder,
		appender:  appender,
		typing:    typing,
		delay:     delay,
	}
}

func (w *ReplyWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping reply worker")
			return ctx.Err()
		case cmd, ok := <-w.jobs:
			if !ok {
				w.log.Debug("Job channel is closed")
				return nil
			}
			if err := w.handle(ctx, cmd); err != nil {
				return err
			}
		}
	}
}

func (w *ReplyWorker) handle(ctx context.Context, cmd domain.AskCommand) error {
	defer w.typing.Done(cmd.Session)

	if err := wait(ctx, cmd.DueAt(w.delay)); err != nil {
		return err
	}

	reply := w.responder.Respond(cmd.Content)
	message, err := w.appender.Append(ctx, domain.NewBotMessage(cmd.Session, reply.Content, reply.Category))
	if err != nil {
		// The session may have been closed while the reply was pending.
		w.log.Warn("Reply dropped", "session", cmd.Session, "question_id", cmd.MessageID, "error", err)
		return nil
	}
	w.log.Debug("Reply sent",
		"session", cmd.Session,
		"category", message.Category,
		"latency_ms", message.CreatedAt.Sub(cmd.At).Milliseconds())
	return nil
}

// wait blocks until due or until ctx is canceled.
func wait(ctx context.Context, due time.Time) error {
	d := time.Until(due)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
