package api

import (
	"campus-assistant/errors"
	"campus-assistant/services"
	goerrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type widgetData struct {
	Title            string
	Subtitle         string
	MaxContentLength int
	QuickActions     []QuickActionDTO
}

// Widget handles GET /
func (s *Server) Widget(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "widget.html", widgetData{
		Title:            "Campus Assistant",
		Subtitle:         "AI Campus Assistant - Your guide to campus life and services",
		MaxContentLength: s.maxContentLength,
		QuickActions:     toQuickActionDTOs(s.svc.QuickActions()),
	})
}

func (s *Server) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) QuickActions(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, toQuickActionDTOs(s.svc.QuickActions()))
}

func (s *Server) Stats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.svc.Stats())
}

// CreateSession handles POST /api/sessions
func (s *Server) CreateSession(ctx *gin.Context) {
	session, greeting, err := s.svc.StartSession(ctx.Request.Context())
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"session_id": session,
		"messages":   []MessageDTO{toMessageDTO(greeting)},
	})
}

// GetMessages handles GET /api/sessions/:id/messages
func (s *Server) GetMessages(ctx *gin.Context) {
	var cursor *string
	if c := ctx.Query("cursor"); c != "" {
		cursor = &c
	}
	session := ctx.Param("id")
	messages, next, err := s.svc.History(session, cursor)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, HistoryDTO{
		Messages: toMessageDTOs(messages),
		Cursor:   next,
		Typing:   s.svc.IsTyping(session),
	})
}

// PostMessage handles POST /api/sessions/:id/messages
func (s *Server) PostMessage(ctx *gin.Context) {
	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorDTO{Error: err.Error()})
		return
	}
	message, err := s.svc.Ask(ctx.Request.Context(), services.AskRequest{Session: ctx.Param("id"), Content: req.Content})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	if message == nil {
		ctx.Status(http.StatusNoContent)
		return
	}
	ctx.JSON(http.StatusAccepted, toMessageDTO(*message))
}

// PostQuickAction handles POST /api/sessions/:id/quick-actions/:index
func (s *Server) PostQuickAction(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorDTO{Error: "invalid quick action index"})
		return
	}
	message, err := s.svc.AskQuickAction(ctx.Request.Context(), ctx.Param("id"), index)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusAccepted, toMessageDTO(*message))
}

// Search handles GET /api/sessions/:id/search?q=
func (s *Server) Search(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	messages, err := s.svc.Search(ctx.Request.Context(), ctx.Param("id"), ctx.Query("q"), limit)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"messages": toMessageDTOs(messages)})
}

// EndSession handles DELETE /api/sessions/:id
func (s *Server) EndSession(ctx *gin.Context) {
	if err := s.svc.EndSession(ctx.Param("id")); err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ServeWs handles GET /ws?session=
func (s *Server) ServeWs(ctx *gin.Context) {
	session := ctx.Query("session")
	if _, _, err := s.svc.History(session, nil); err != nil {
		s.fail(ctx, err)
		return
	}
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		s.log.Warn("Failed to upgrade connection", "error", err)
		return
	}

	client := newClient(uuid.NewString(), session, s.log, conn, s.svc, s.connectionBufferSize, readLimitFor(s.maxContentLength))
	// Subscribed before reading history so nothing is missed. Events fanned
	// out meanwhile are queued behind the history frame and the widget drops
	// the messages it already shows.
	err = client.prime(func() error {
		if err := s.svc.Connect(client.id, session, client); err != nil {
			return err
		}
		if messages, _, err := s.svc.History(session, nil); err == nil {
			client.enqueue(TypeHistory, HistoryDTO{Messages: toMessageDTOs(messages), Typing: s.svc.IsTyping(session)})
		}
		return nil
	})
	if err != nil {
		if frame, encodeErr := NewWsMessage(TypeError, ErrorDTO{Error: err.Error()}); encodeErr == nil {
			_ = conn.WriteMessage(websocket.TextMessage, frame)
		}
		client.close()
		return
	}
	defer s.svc.Disconnect(client.id, session)
	client.log.Info("Client connected")

	go client.writePump()
	client.readPump(ctx.Request.Context())
	client.log.Info("Client disconnected")
}

func (s *Server) fail(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case goerrors.Is(err, errors.ErrSessionNotFound):
		status = http.StatusNotFound
	case goerrors.Is(err, errors.ErrInvalidInput), goerrors.Is(err, errors.ErrUnknownQuickAction):
		status = http.StatusBadRequest
	case goerrors.Is(err, errors.ErrAssistantStopped):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "path", ctx.FullPath(), "error", err)
	}
	ctx.JSON(status, ErrorDTO{Error: err.Error()})
}
