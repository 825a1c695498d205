// Package domain contains core concepts of the campus assistant.
// This file defines chat messages and the two fixed sender roles.
// Messages are immutable once appended to a conversation.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Category tags a bot reply with the rule that produced it.
type Category string

const (
	CategorySchedules  Category = "schedules"
	CategoryFacilities Category = "facilities"
	CategoryDining     Category = "dining"
	CategoryLibrary    Category = "library"
	CategoryAdmin      Category = "admin"
	CategoryUniform    Category = "uniform"
	CategoryGeneral    Category = "general"
	CategoryGreeting   Category = "greeting"
)

// Message represents an immutable chat turn.
type Message struct {
	ID        uuid.UUID // unique identifier
	Session   SessionID
	Sender    Sender
	Content   string
	Category  Category // bot replies only
	Language  string   // ISO 639-1, user messages only, may be empty
	CreatedAt time.Time
}

func NewUserMessage(session SessionID, content string) Message {
	return Message{ID: uuid.New(), Session: session, Sender: SenderUser, Content: content}
}

func NewBotMessage(session SessionID, content string, category Category) Message {
	return Message{ID: uuid.New(), Session: session, Sender: SenderBot, Content: content, Category: category}
}

func (m Message) FromUser() bool {
	return m.Sender == SenderUser
}
