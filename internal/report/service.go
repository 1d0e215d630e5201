package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/mimurillof/chat-agent-service/internal/cascade"
	"github.com/mimurillof/chat-agent-service/internal/provider"
	"github.com/mimurillof/chat-agent-service/internal/recovery"
	"github.com/mimurillof/chat-agent-service/internal/session"
	"github.com/mimurillof/chat-agent-service/internal/storage"
)

// Report generations answer with a full document, so the output budget
// is far above the conversational one.
const maxOutputTokens = 60576

// Request is one report generation order.
type Request struct {
	UserID          string
	SessionID       string
	ModelPreference string
	Context         map[string]any
}

// Response is a completed generation.
type Response struct {
	Report    *Report
	SessionID string
	ModelUsed string
	Metadata  map[string]any
}

// Service runs the full report flow: storage context assembly, deep
// tier generation, structured recovery, archival.
type Service struct {
	selector  *cascade.Selector
	storage   storage.Store // nil disables the storage collaborator
	sessions  session.Store
	pipeline  *recovery.Pipeline
	fastModel string
	deepModel string
	logger    *slog.Logger
}

func NewService(selector *cascade.Selector, store storage.Store, sessions session.Store, repairer recovery.Repairer, fastModel, deepModel string, logger *slog.Logger) *Service {
	return &Service{
		selector:  selector,
		storage:   store,
		sessions:  sessions,
		pipeline:  recovery.NewPipeline(SchemaValidator{}, repairer, logger),
		fastModel: fastModel,
		deepModel: deepModel,
		logger:    logger,
	}
}

// Generate produces one portfolio report. Deep analysis defaults to
// the deep tier; only an explicit "flash" preference downgrades it.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	model := s.deepModel
	if strings.EqualFold(req.ModelPreference, "flash") {
		model = s.fastModel
	}

	contents := []provider.Content{provider.TextContent(provider.RoleUser, masterPrompt)}

	merged := map[string]any{}
	for k, v := range req.Context {
		merged[k] = v
	}
	if storageCtx := s.gatherStorageContext(ctx, req.UserID); storageCtx != nil {
		merged["storage"] = storageCtx
	}
	if len(merged) > 0 {
		ctxJSON, err := json.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("encode context: %w", err)
		}
		contents = append(contents, provider.TextContent(provider.RoleUser, "CONTEXT_JSON=\n"+string(ctxJSON)))
	}

	genReq := &provider.GenerateRequest{
		Contents: contents,
		GenerationConfig: &provider.GenerationConfig{
			Temperature:      provider.Float64(0.1),
			TopP:             provider.Float64(0.8),
			MaxOutputTokens:  maxOutputTokens,
			ResponseMIMEType: "application/json",
			ResponseSchema:   ResponseSchema(),
		},
	}

	result, modelUsed, err := s.selector.Invoke(ctx, model, genReq)
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	if result.Empty() {
		return nil, fmt.Errorf("generate report: %s produced no output", modelUsed)
	}

	obj, attempts, err := s.pipeline.Recover(result.Text())
	if err != nil {
		return nil, fmt.Errorf("parse report from %s: %w", modelUsed, err)
	}
	rep := obj.(*Report)

	s.archive(ctx, req.UserID, rep)
	s.recordSummary(ctx, req.SessionID)

	md := map[string]any{
		"recovery_attempts": len(attempts),
	}
	if len(req.Context) > 0 {
		keys := make([]string, 0, len(req.Context))
		for k := range req.Context {
			keys = append(keys, k)
		}
		md["context_keys"] = keys
	}
	if modelUsed != model {
		md["fallback_model"] = modelUsed
	}

	return &Response{
		Report:    rep,
		SessionID: req.SessionID,
		ModelUsed: modelUsed,
		Metadata:  md,
	}, nil
}

// gatherStorageContext compiles the user's bucket folder into the
// context turn: parsed JSON docs, markdown notes, and the PNG chart
// inventory. Storage being down degrades to no context, not an error.
func (s *Service) gatherStorageContext(ctx context.Context, userID string) map[string]any {
	if s.storage == nil || userID == "" {
		return nil
	}
	files, err := s.storage.List(ctx, userID)
	if err != nil {
		s.logger.Warn("storage context unavailable", "user_id", userID, "error", err)
		return nil
	}
	if len(files) == 0 {
		return nil
	}

	jsonDocs := map[string]any{}
	markdownDocs := map[string]string{}
	var images []map[string]string
	for _, f := range files {
		name := path.Base(f.Name)
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".png":
			images = append(images, map[string]string{"path": f.Name})
		case ".json":
			data, err := s.storage.Download(ctx, f.Name)
			if err != nil {
				s.logger.Warn("skipping storage file", "name", f.Name, "error", err)
				continue
			}
			var parsed any
			if err := json.Unmarshal(data, &parsed); err != nil {
				jsonDocs[name] = map[string]any{"_raw": string(data)}
			} else {
				jsonDocs[name] = parsed
			}
		case ".md":
			data, err := s.storage.Download(ctx, f.Name)
			if err != nil {
				s.logger.Warn("skipping storage file", "name", f.Name, "error", err)
				continue
			}
			markdownDocs[name] = string(data)
		}
	}

	return map[string]any{
		"user_id":       userID,
		"images":        images,
		"json_docs":     jsonDocs,
		"markdown_docs": markdownDocs,
	}
}

// archive uploads the finished document next to the user's source
// files. Failures are logged, never surfaced: the report already
// exists and the caller is waiting for it.
func (s *Service) archive(ctx context.Context, userID string, rep *Report) {
	if s.storage == nil || userID == "" {
		return
	}
	data, err := json.Marshal(rep)
	if err != nil {
		s.logger.Warn("report archival skipped", "error", err)
		return
	}
	name := "reports/" + strings.TrimSuffix(rep.FileName, ".pdf") + ".json"
	if err := s.storage.UploadJSON(ctx, userID, name, data); err != nil {
		s.logger.Warn("report archival failed", "name", name, "error", err)
	}
}

// recordSummary leaves a marker turn in the conversation so later chat
// requests know a report was produced.
func (s *Service) recordSummary(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return
	}
	sess.Append(provider.RoleModel, "[INFORME_PORTAFOLIO_GENERADO]")
	if err := s.sessions.Put(ctx, sess); err != nil {
		s.logger.Warn("session summary not recorded", "session_id", sessionID, "error", err)
	}
}
