// Package search indexes conversation messages for full-text lookup.
// The index lives in memory and follows the lifetime of the process.
package search

import (
	"campus-assistant/domain"
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const (
	idField      = "_id"
	sessionField = "session"
	contentField = "content"
)

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewInMemoryIndex(log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return &Index{writer: writer, log: log}, nil
}

// Add indexes the content of a message under its session.
func (i *Index) Add(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField(sessionField, string(message.Session))).
		AddField(bluge.NewTextField(contentField, message.Content))
	return i.writer.Update(doc.ID(), doc)
}

// Delete removes messages from the index.
func (i *Index) Delete(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	batch := bluge.NewBatch()
	for _, id := range ids {
		batch.Delete(bluge.Identifier(id.String()))
	}
	return i.writer.Batch(batch)
}

// Search returns the ids of the session messages matching text, best match first.
func (i *Index) Search(ctx context.Context, session domain.SessionID, text string, limit int) ([]uuid.UUID, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(text).SetField(contentField)).
		AddMust(bluge.NewTermQuery(string(session)).SetField(sessionField))

	matches, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var ids []uuid.UUID
	match, err := matches.Next()
	for err == nil && match != nil {
		var visitErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field != idField {
				return true
			}
			id, parseErr := uuid.ParseBytes(value)
			if parseErr != nil {
				visitErr = parseErr
				return false
			}
			ids = append(ids, id)
			return false
		})
		if err == nil {
			err = visitErr
		}
		if err != nil {
			break
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}
