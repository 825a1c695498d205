package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func openTestDB(t *testing.T) *badger.DB {
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Record_And_Get_Messages_In_Append_Order(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	session := uuid.NewString()
	at := time.Now().UTC()
	diskMessages := []DiskMessage{
		{uuid.New(), session, 0, "bot", "Hi! I'm your Campus AI Assistant.", "greeting", "", at},
		{uuid.New(), session, 1, "user", "When are dining halls open?", "", "en", at.Add(time.Second)},
		{uuid.New(), session, 2, "bot", "Dining options include...", "dining", "", at.Add(2 * time.Second)},
	}

	// Given messages stored out of order
	for _, i := range []int{2, 0, 1} {
		req.NoError(repository.StoreMessage(diskMessages[i]))
	}

	// When fetching messages
	fetched, cursor, err := repository.GetMessages(session, nil)

	// Then they come back in sequence order
	req.NoError(err)
	req.Equal(diskMessages, fetched)
	req.NotNil(cursor)
}

func Test_Sessions_Are_Isolated(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	at := time.Now().UTC()

	req.NoError(repository.StoreMessage(DiskMessage{ID: uuid.New(), Session: "a", Seq: 0, Sender: "user", Content: "hello", At: at}))
	req.NoError(repository.StoreMessage(DiskMessage{ID: uuid.New(), Session: "ab", Seq: 0, Sender: "user", Content: "other", At: at}))

	fetched, _, err := repository.GetMessages("a", nil)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("hello", fetched[0].Content)

	// When the session is deleted
	req.NoError(repository.DeleteSession("a"))

	// Then only its messages are gone
	fetched, cursor, err := repository.GetMessages("a", nil)
	req.NoError(err)
	req.Empty(fetched)
	req.Nil(cursor)
	fetched, _, err = repository.GetMessages("ab", nil)
	req.NoError(err)
	req.Len(fetched, 1)
}

func Test_MessageRepository_Pagination(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), lo.ToPtr(4))
	session := uuid.NewString()
	now := time.Now().UTC()

	// Given 10 messages
	for i := 1; i <= 10; i++ {
		req.NoError(repository.StoreMessage(DiskMessage{
			ID:      uuid.New(),
			Session: session,
			Seq:     uint64(i),
			Sender:  "user",
			Content: fmt.Sprintf("Message %d", i),
			At:      now.Add(time.Duration(i) * time.Second),
		}))
	}

	// --- PAGE 1 ---
	page1, cursor1, err := repository.GetMessages(session, nil)
	req.NoError(err)
	req.Len(page1, 4)
	req.Equal("Message 1", page1[0].Content)
	req.Equal("Message 4", page1[3].Content)

	// --- PAGE 2 ---
	page2, cursor2, err := repository.GetMessages(session, cursor1)
	req.NoError(err)
	req.Len(page2, 4)
	req.Equal("Message 5", page2[0].Content)
	req.Equal("Message 8", page2[3].Content)

	// --- PAGE 3 ---
	page3, cursor3, err := repository.GetMessages(session, cursor2)
	req.NoError(err)
	req.Len(page3, 2)
	req.Equal("Message 10", page3[1].Content)

	// Then nothing is left and the cursor stays put
	page4, cursor4, err := repository.GetMessages(session, cursor3)
	req.NoError(err)
	req.Empty(page4)
	req.Equal(cursor3, cursor4)
}

func TestInspectMapper(t *testing.T) {
	req := require.New(t)
	message := DiskMessage{
		ID:       uuid.New(),
		Session:  "s1",
		Seq:      3,
		Sender:   "bot",
		Content:  "menu",
		Category: "dining",
		At:       time.Date(2024, 9, 1, 12, 30, 0, 0, time.UTC),
	}
	value, err := fromDiskMessage(message)
	req.NoError(err)
	bytes, err := proto.Marshal(value)
	req.NoError(err)

	row := InspectMapper(messageKey(message.Session, message.Seq, message.ID), bytes)

	req.Equal("BOT", row.Type)
	req.Equal("12:30:00", row.Timestamp)
	req.Equal("[dining] menu", row.Detail)
}
