package api

import (
	"campus-assistant/domain"
	"campus-assistant/domain/event"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Frame types exchanged over the websocket.
const (
	TypeSendMessage = "send_message"
	TypeQuickAction = "quick_action"

	TypeHistory = "history"
	TypeMessage = "message"
	TypeTyping  = "typing"
	TypeError   = "error"
)

type WsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type QuickActionRequest struct {
	Index int `json:"index"`
}

type MessageDTO struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Category  string `json:"category,omitempty"`
	Language  string `json:"language,omitempty"`
	CreatedAt string `json:"created_at"`
}

type TypingDTO struct {
	Typing bool `json:"typing"`
}

type ErrorDTO struct {
	Error string `json:"error"`
}

type QuickActionDTO struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Query string `json:"query"`
}

type HistoryDTO struct {
	Messages []MessageDTO `json:"messages"`
	Cursor   *string      `json:"cursor,omitempty"`
	Typing   bool         `json:"typing"`
}

func NewWsMessage(typ string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WsMessage{Type: typ, Payload: p})
}

func toMessageDTO(m domain.Message) MessageDTO {
	return MessageDTO{
		ID:        m.ID.String(),
		Sender:    string(m.Sender),
		Content:   m.Content,
		Category:  string(m.Category),
		Language:  m.Language,
		CreatedAt: m.CreatedAt.Format(time.RFC3339Nano),
	}
}

func toMessageDTOs(messages []domain.Message) []MessageDTO {
	return lo.Map(messages, func(m domain.Message, _ int) MessageDTO { return toMessageDTO(m) })
}

func toQuickActionDTOs(actions []domain.QuickAction) []QuickActionDTO {
	return lo.Map(actions, func(a domain.QuickAction, i int) QuickActionDTO {
		return QuickActionDTO{Index: i, Label: a.Label, Icon: a.Icon, Query: a.Query}
	})
}

// encodeEvent turns a domain event into a websocket frame.
func encodeEvent(e event.DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case event.MessageAppended:
		return NewWsMessage(TypeMessage, toMessageDTO(evt.Message))
	case event.TypingChanged:
		return NewWsMessage(TypeTyping, TypingDTO{Typing: evt.Typing})
	default:
		return nil, fmt.Errorf("unsupported event %T", e)
	}
}
