package main

import (
	"bufio"
	"campus-assistant/domain"
	"campus-assistant/domain/event"
	"campus-assistant/services"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// Terminal is a line based chat bound to one session.
// It is also the event sink of that session.
type Terminal struct {
	mu      sync.Mutex
	svc     services.IAssistantService
	session domain.SessionID
	out     io.Writer
	colours bool
}

func NewTerminal(svc services.IAssistantService, out io.Writer, colours bool) *Terminal {
	return &Terminal{svc: svc, out: out, colours: colours}
}

// Start opens the session, subscribes to it and prints the greeting.
func (t *Terminal) Start(ctx context.Context) error {
	session, greeting, err := t.svc.StartSession(ctx)
	if err != nil {
		return err
	}
	t.session = session
	if err := t.svc.Connect("terminal", string(session), t); err != nil {
		return err
	}
	t.printBot(greeting.Content)
	t.printHelp()
	return nil
}

func (t *Terminal) Close() {
	t.svc.Disconnect("terminal", string(t.session))
	_ = t.svc.EndSession(string(t.session))
}

// Consume prints replies and the typing indicator.
func (t *Terminal) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAppended:
		if !evt.Message.FromUser() {
			t.printBot(evt.Message.Content)
		}
	case event.TypingChanged:
		if evt.Typing {
			t.print(color.Gray, "Assistant is typing…")
		}
	}
	return nil
}

// Loop reads commands until /quit, the end of input or ctx is canceled.
// Reading happens aside so a pending line never delays cancellation.
func (t *Terminal) Loop(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		done <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			return err
		case line := <-lines:
			if quit := t.Handle(ctx, line); quit {
				return nil
			}
		}
	}
}

// Handle runs one input line. It returns true when the user quits.
func (t *Terminal) Handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "/quit" || trimmed == "/exit":
		return true
	case trimmed == "/help":
		t.printHelp()
	case trimmed == "/history":
		t.printHistory()
	case strings.HasPrefix(trimmed, "/search"):
		t.printSearch(ctx, strings.TrimSpace(strings.TrimPrefix(trimmed, "/search")))
	case isQuickAction(trimmed):
		index, _ := strconv.Atoi(trimmed[1:])
		message, err := t.svc.AskQuickAction(ctx, string(t.session), index-1)
		if err != nil {
			t.print(color.Red, err.Error())
			return false
		}
		t.print(color.Cyan, "You: "+message.Content)
	case strings.HasPrefix(trimmed, "/"):
		t.print(color.Red, fmt.Sprintf("Unknown command %s, type /help", trimmed))
	default:
		if _, err := t.svc.Ask(ctx, services.AskRequest{Session: string(t.session), Content: line}); err != nil {
			t.print(color.Red, err.Error())
		}
	}
	return false
}

func isQuickAction(s string) bool {
	if len(s) < 2 || s[0] != '/' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

func (t *Terminal) printHelp() {
	t.mu.Lock()
	defer t.mu.Unlock()
	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"Command", "Quick action", "Query"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, action := range t.svc.QuickActions() {
		table.Append([]string{fmt.Sprintf("/%d", i+1), action.Label, action.Query})
	}
	table.Append([]string{"/search <text>", "", "Search this conversation"})
	table.Append([]string{"/history", "", "Print the conversation"})
	table.Append([]string{"/quit", "", "Leave"})
	table.Render()
}

func (t *Terminal) printHistory() {
	messages, _, err := t.svc.History(string(t.session), nil)
	if err != nil {
		t.print(color.Red, err.Error())
		return
	}
	t.printMessages(messages)
}

func (t *Terminal) printSearch(ctx context.Context, text string) {
	messages, err := t.svc.Search(ctx, string(t.session), text, 0)
	if err != nil {
		t.print(color.Red, err.Error())
		return
	}
	if len(messages) == 0 {
		t.print(color.Yellow, "No match")
		return
	}
	t.printMessages(messages)
}

func (t *Terminal) printMessages(messages []domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"Time", "From", "Message"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, m := range messages {
		table.Append([]string{m.CreatedAt.Local().Format("15:04:05"), string(m.Sender), m.Content})
	}
	table.Render()
}

func (t *Terminal) printBot(content string) {
	t.print(color.Green, "Assistant: "+content)
}

func (t *Terminal) print(c color.Color, line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.colours {
		line = c.Render(line)
	}
	_, _ = fmt.Fprintln(t.out, line)
}
