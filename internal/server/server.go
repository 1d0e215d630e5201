// Package server exposes the agent over HTTP: synchronous chat,
// SSE and websocket streaming, session management and the async
// report task pair.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mimurillof/chat-agent-service/internal/agent"
	"github.com/mimurillof/chat-agent-service/internal/config"
	"github.com/mimurillof/chat-agent-service/internal/report"
	"github.com/mimurillof/chat-agent-service/internal/session"
	"github.com/mimurillof/chat-agent-service/internal/task"
)

const version = "1.0.0"

// ChatService is the conversational core the transport layer drives.
type ChatService interface {
	Chat(ctx context.Context, req agent.Request) *agent.Response
	ChatStream(ctx context.Context, req agent.Request) <-chan agent.Chunk
}

// ReportService produces portfolio reports synchronously; the server
// owns the task-decoupling around it.
type ReportService interface {
	Generate(ctx context.Context, req report.Request) (*report.Response, error)
}

// Server represents the HTTP server.
type Server struct {
	cfg        *config.Config
	chat       ChatService
	reports    ReportService
	sessions   session.Store
	tasks      *task.Store
	httpServer *http.Server
	startTime  time.Time
	logger     *slog.Logger
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status          string   `json:"status"`
	Service         string   `json:"service"`
	Version         string   `json:"version"`
	Uptime          string   `json:"uptime"`
	ModelsAvailable []string `json:"models_available"`
	ActiveSessions  int      `json:"active_sessions"`
	Capabilities    []string `json:"capabilities"`
	Timestamp       string   `json:"timestamp"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// New creates a new HTTP server.
func New(cfg *config.Config, chat ChatService, reports ReportService, sessions session.Store, tasks *task.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		chat:      chat,
		reports:   reports,
		sessions:  sessions,
		tasks:     tasks,
		logger:    logger,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/chat", s.chatHandler)
	mux.HandleFunc("/api/v1/chat/stream", s.chatStreamHandler)
	mux.HandleFunc("/ws/chat", s.wsChatHandler)
	mux.HandleFunc("/api/v1/sessions", s.sessionsHandler)
	mux.HandleFunc("/api/v1/sessions/", s.sessionHandler)
	mux.HandleFunc("/api/v1/reports/portfolio", s.createReportHandler)
	mux.HandleFunc("/api/v1/reports/portfolio/", s.pollReportHandler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.withRequestLog(mux),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles health check requests.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	active := 0
	if live, err := s.sessions.List(r.Context()); err == nil {
		active = len(live)
	}

	response := HealthResponse{
		Status:          "healthy",
		Service:         "chat-agent-service",
		Version:         version,
		Uptime:          time.Since(s.startTime).String(),
		ModelsAvailable: []string{s.cfg.Models.Fast, s.cfg.Models.Deep},
		ActiveSessions:  active,
		Capabilities: []string{
			"search_grounding",
			"url_context",
			"function_calling",
			"datetime",
			"citation_generation",
			"portfolio_reports",
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Detail: detail})
}

// decodeJSONBody decodes best-effort; an empty or absent body leaves v
// at its zero value.
func decodeJSONBody(r *http.Request, v any) {
	if r.Body == nil {
		return
	}
	_ = json.NewDecoder(r.Body).Decode(v)
}
