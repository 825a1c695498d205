// Package api exposes the assistant over HTTP and websockets and serves the
// chat widget.
package api

import (
	"campus-assistant/services"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

//go:embed widget.html
var templatesFS embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	log                  *slog.Logger
	svc                  services.IAssistantService
	router               *gin.Engine
	httpServer           *http.Server
	connectionBufferSize int
	maxContentLength     int
}

// NewServer builds the HTTP and websocket server. maxContentLength must be
// the limit enforced by svc, 0 when questions are not capped.
func NewServer(log *slog.Logger, svc services.IAssistantService, addr string, connectionBufferSize, maxContentLength int) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "widget.html")))

	s := &Server{
		log:                  log,
		svc:                  svc,
		router:               router,
		connectionBufferSize: connectionBufferSize,
		maxContentLength:     maxContentLength,
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.GET("/", s.Widget)
	s.router.GET("/healthz", s.Health)
	s.router.GET("/ws", s.ServeWs)

	api := s.router.Group("/api")
	api.GET("/quick-actions", s.QuickActions)
	api.GET("/stats", s.Stats)
	api.POST("/sessions", s.CreateSession)
	api.DELETE("/sessions/:id", s.EndSession)
	api.GET("/sessions/:id/messages", s.GetMessages)
	api.POST("/sessions/:id/messages", s.PostMessage)
	api.POST("/sessions/:id/quick-actions/:index", s.PostQuickAction)
	api.GET("/sessions/:id/search", s.Search)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		log.Debug("HTTP request",
			"method", ctx.Request.Method,
			"path", ctx.FullPath(),
			"status", ctx.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds())
	}
}
