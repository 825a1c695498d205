package api

import (
	"campus-assistant/domain/event"
	"campus-assistant/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// defaultReadLimit applies when the content length is not capped.
	defaultReadLimit = 1 << 20
)

var errClientClosed = fmt.Errorf("client closed")

// Client is one websocket connection displaying a session.
// It is the event sink of that connection.
type Client struct {
	id        string
	session   string
	log       *slog.Logger
	conn      *websocket.Conn
	svc       services.IAssistantService
	send      chan []byte
	done      chan struct{}
	once      sync.Once
	readLimit int64
	// primeMu holds live events back until the history frame is queued.
	primeMu sync.Mutex
}

func newClient(id, session string, log *slog.Logger, conn *websocket.Conn, svc services.IAssistantService, bufferSize int, readLimit int64) *Client {
	return &Client{
		id:        id,
		session:   session,
		log:       log.With("connection", id, "session", session),
		conn:      conn,
		svc:       svc,
		send:      make(chan []byte, bufferSize),
		done:      make(chan struct{}),
		readLimit: readLimit,
	}
}

// readLimitFor sizes the largest accepted frame so that any question within
// maxContentLength fits, whatever its encoding. One character takes at most
// six bytes once JSON escaped.
func readLimitFor(maxContentLength int) int64 {
	if maxContentLength <= 0 {
		return defaultReadLimit
	}
	return int64(6*maxContentLength + 1024)
}

func (c *Client) Consume(ctx context.Context, e event.DomainEvent) error {
	frame, err := encodeEvent(e)
	if err != nil {
		return err
	}
	c.primeMu.Lock()
	defer c.primeMu.Unlock()
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return errClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// prime runs fn before any live event reaches the send buffer.
func (c *Client) prime(fn func() error) error {
	c.primeMu.Lock()
	defer c.primeMu.Unlock()
	return fn()
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// enqueue never blocks: a client that does not read is not waited for.
func (c *Client) enqueue(typ string, payload any) {
	frame, err := NewWsMessage(typ, payload)
	if err != nil {
		c.log.Warn("Failed to encode frame", "type", typ, "error", err)
		return
	}
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		c.log.Warn("Send buffer full, dropping frame", "type", typ)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.close()
	c.conn.SetReadLimit(c.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("Unexpected websocket close", "error", err)
			}
			return
		}

		var msg WsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.enqueue(TypeError, ErrorDTO{Error: "malformed frame"})
			continue
		}

		switch msg.Type {
		case TypeSendMessage:
			c.handleSendMessage(ctx, msg.Payload)
		case TypeQuickAction:
			c.handleQuickAction(ctx, msg.Payload)
		default:
			c.enqueue(TypeError, ErrorDTO{Error: fmt.Sprintf("unknown frame type %q", msg.Type)})
		}
	}
}

func (c *Client) handleSendMessage(ctx context.Context, payload json.RawMessage) {
	var req SendMessageRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.enqueue(TypeError, ErrorDTO{Error: "malformed send_message payload"})
		return
	}
	if _, err := c.svc.Ask(ctx, services.AskRequest{Session: c.session, Content: req.Content}); err != nil {
		c.enqueue(TypeError, ErrorDTO{Error: err.Error()})
	}
}

func (c *Client) handleQuickAction(ctx context.Context, payload json.RawMessage) {
	var req QuickActionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.enqueue(TypeError, ErrorDTO{Error: "malformed quick_action payload"})
		return
	}
	if _, err := c.svc.AskQuickAction(ctx, c.session, req.Index); err != nil {
		c.enqueue(TypeError, ErrorDTO{Error: err.Error()})
	}
}
