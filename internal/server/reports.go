package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mimurillof/chat-agent-service/internal/report"
	"github.com/mimurillof/chat-agent-service/internal/task"
)

// ReportTaskResponse is the create/poll payload. Result fields appear
// only on terminal states.
type ReportTaskResponse struct {
	TaskID    string         `json:"task_id"`
	Status    string         `json:"status"`
	Report    *report.Report `json:"report,omitempty"`
	ModelUsed string         `json:"model_used,omitempty"`
	Error     string         `json:"error,omitempty"`
	Detail    string         `json:"detail,omitempty"`
}

// createReportHandler starts a background generation and returns the
// task id immediately. The worker runs detached from the request
// context so the caller's connection timeout cannot abort it.
func (s *Server) createReportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UserID          string         `json:"user_id"`
		SessionID       string         `json:"session_id,omitempty"`
		ModelPreference string         `json:"model_preference,omitempty"`
		Context         map[string]any `json:"context,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	t := s.tasks.Create(r.Context())
	go s.runReportTask(t.ID, report.Request{
		UserID:          req.UserID,
		SessionID:       req.SessionID,
		ModelPreference: req.ModelPreference,
		Context:         req.Context,
	})

	writeJSON(w, http.StatusAccepted, ReportTaskResponse{TaskID: t.ID, Status: t.State})
}

// runReportTask owns the task for its lifetime.
func (s *Server) runReportTask(taskID string, req report.Request) {
	ctx := context.Background()
	if err := s.tasks.SetProcessing(ctx, taskID); err != nil {
		s.logger.Error("report task lost before start", "task_id", taskID, "error", err)
		return
	}

	resp, err := s.reports.Generate(ctx, req)
	if err != nil {
		s.logger.Error("report generation failed", "task_id", taskID, "error", err)
		if err := s.tasks.Fail(ctx, taskID, "Error generando informe", err.Error()); err != nil {
			s.logger.Error("report task lost", "task_id", taskID, "error", err)
		}
		return
	}

	result := map[string]any{"report": resp.Report}
	for k, v := range resp.Metadata {
		result[k] = v
	}
	if err := s.tasks.Complete(ctx, taskID, result, resp.ModelUsed); err != nil {
		s.logger.Error("report task lost", "task_id", taskID, "error", err)
	}
}

// pollReportHandler returns the task state, with the report or the
// error payload on terminal states.
func (s *Server) pollReportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/portfolio/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	t, err := s.tasks.Get(r.Context(), id)
	if errors.Is(err, task.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load task", err.Error())
		return
	}

	resp := ReportTaskResponse{TaskID: t.ID, Status: t.State}
	switch t.State {
	case task.StateCompleted:
		if rep, ok := t.Result["report"].(*report.Report); ok {
			resp.Report = rep
		}
		resp.ModelUsed = t.ModelUsed
	case task.StateError:
		resp.Error = t.Error
		resp.Detail = t.Detail
	}
	writeJSON(w, http.StatusOK, resp)
}
