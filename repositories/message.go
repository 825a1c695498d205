//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(session string, cursor *string) ([]DiskMessage, *string, error)
	DeleteSession(session string) error
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// OpenInMemory opens a badger instance that never touches the disk.
// Conversations live as long as the process.
func OpenInMemory() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
}

type DiskMessage struct {
	ID       uuid.UUID
	Session  string
	Seq      uint64
	Sender   string
	Content  string
	Category string
	Language string
	At       time.Time
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{session}:{seq_padded}:{uuid}" so that a prefix
// scan returns messages in append order. The sequence is zero padded to 20
// digits to keep lexicographical and numerical order identical.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := messageKey(message.Session, message.Seq, message.ID)
	value, err := fromDiskMessage(message)
	if err != nil {
		return err
	}
	bytes, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages returns the messages of a session oldest first, starting after
// the cursor when provided. It stops once limitMessages is reached and
// returns the cursor of the last message read.
func (m MessageRepository) GetMessages(session string, cursor *string) ([]DiskMessage, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	prefixStr := sessionPrefix(session)
	prefix := []byte(prefixStr)

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if cursor != nil {
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	diskMessages := make([]DiskMessage, 0, len(byteMessages))
	for _, b := range byteMessages {
		var value structpb.Struct
		if err = proto.Unmarshal(b, &value); err != nil {
			return nil, nil, err
		}
		message, err := toDiskMessage(&value)
		if err != nil {
			return nil, nil, err
		}
		diskMessages = append(diskMessages, message)
	}
	if lastKey == "" {
		return diskMessages, cursor, nil
	}
	return diskMessages, &lastKey, nil
}

// DeleteSession drops every message of a session.
func (m MessageRepository) DeleteSession(session string) error {
	return m.db.DropPrefix([]byte(sessionPrefix(session)))
}

func sessionPrefix(session string) string {
	return fmt.Sprintf("msg:%s:", session)
}

func messageKey(session string, seq uint64, id uuid.UUID) string {
	return fmt.Sprintf("msg:%s:%020d:%s", session, seq, id)
}

func fromDiskMessage(message DiskMessage) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":       message.ID.String(),
		"session":  message.Session,
		"seq":      fmt.Sprintf("%d", message.Seq),
		"sender":   message.Sender,
		"content":  message.Content,
		"category": message.Category,
		"language": message.Language,
		"at":       message.At.UTC().Format(time.RFC3339Nano),
	})
}

func toDiskMessage(value *structpb.Struct) (DiskMessage, error) {
	fields := value.GetFields()
	str := func(key string) string { return fields[key].GetStringValue() }

	parsedID, err := uuid.Parse(str("id"))
	if err != nil {
		return DiskMessage{}, err
	}
	var seq uint64
	if _, err = fmt.Sscanf(str("seq"), "%d", &seq); err != nil {
		return DiskMessage{}, fmt.Errorf("invalid sequence %q: %w", str("seq"), err)
	}
	at, err := time.Parse(time.RFC3339Nano, str("at"))
	if err != nil {
		return DiskMessage{}, err
	}
	return DiskMessage{
		ID:       parsedID,
		Session:  str("session"),
		Seq:      seq,
		Sender:   str("sender"),
		Content:  str("content"),
		Category: str("category"),
		Language: str("language"),
		At:       at.UTC(),
	}, nil
}
