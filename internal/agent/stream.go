package agent

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/mimurillof/chat-agent-service/internal/grounding"
	"github.com/mimurillof/chat-agent-service/internal/provider"
	"github.com/mimurillof/chat-agent-service/internal/session"
)

// Chunk is one streaming event. Text chunks carry Done=false; the
// terminal chunk carries Done=true plus the aggregate metadata.
type Chunk struct {
	Text     string         `json:"text,omitempty"`
	Done     bool           `json:"done"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChatStream runs one turn incrementally. Text fragments are forwarded
// as they arrive; grounding metadata is captured and, once the
// provider sequence ends, the citation markers alone are sent as one
// final text chunk so already-delivered content is never re-sent. The
// channel is closed after the terminal chunk. The consumer may stop
// reading at any time if it cancels ctx.
func (a *Agent) ChatStream(ctx context.Context, req Request) <-chan Chunk {
	out := make(chan Chunk, 8)
	go func() {
		defer close(out)
		a.streamTurn(ctx, req, out)
	}()
	return out
}

func (a *Agent) streamTurn(ctx context.Context, req Request, out chan<- Chunk) {
	sess := a.resolveSession(ctx, req)
	decision := a.decide(req)
	sess.Model = decision.Model

	genReq := &provider.GenerateRequest{
		Contents:         a.buildConversation(sess, decision.Model, req.Message),
		Tools:            decision.Selection.Tools(),
		GenerationConfig: conversationConfig(),
	}

	stream, modelUsed, err := a.selector.InvokeStream(ctx, decision.Model, genReq)
	if err != nil {
		a.logger.Error("stream open failed", "session_id", sess.ID, "model", decision.Model, "error", err)
		a.emitApology(ctx, sess, req, err, out)
		return
	}
	defer stream.Close()

	var acc strings.Builder
	var captured *grounding.Metadata
	for {
		evt, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			a.logger.Error("stream read failed", "session_id", sess.ID, "error", err)
			a.emitApology(ctx, sess, req, err, out)
			return
		}
		if evt.Grounding != nil {
			captured = evt.Grounding
		}
		if evt.Text != "" {
			acc.WriteString(evt.Text)
			select {
			case out <- Chunk{Text: evt.Text}:
			case <-ctx.Done():
				return
			}
		}
	}

	full := acc.String()
	md := map[string]any{
		"routing_rule": decision.Rule,
	}
	if captured != nil && full != "" {
		injected, markers := grounding.InjectWithMarkers(full, captured)
		if len(markers) > 0 {
			select {
			case out <- Chunk{Text: strings.Join(markers, "")}:
				full = injected
			case <-ctx.Done():
				return
			}
		}
		if sources := captured.Sources(); len(sources) > 0 {
			md["sources"] = sources
		}
		if len(captured.SearchQueries) > 0 {
			md["search_queries"] = captured.SearchQueries
		}
	}

	text := strings.TrimSpace(full)
	if text == "" {
		text = noResponseMessage
		select {
		case out <- Chunk{Text: text}:
		case <-ctx.Done():
			return
		}
	}

	sess.Append(provider.RoleUser, req.Message)
	sess.Append(provider.RoleModel, text)
	if err := a.sessions.Put(ctx, sess); err != nil {
		a.logger.Warn("session not persisted", "session_id", sess.ID, "error", err)
	}

	md["session_id"] = sess.ID
	md["model_used"] = modelUsed
	md["tools_used"] = decision.Selection.Labels()
	md["message_count"] = len(sess.Turns)

	select {
	case out <- Chunk{Done: true, Metadata: md}:
	case <-ctx.Done():
	}
}

func (a *Agent) emitApology(ctx context.Context, sess *session.Session, req Request, cause error, out chan<- Chunk) {
	resp := a.apologize(ctx, sess, req, cause)
	select {
	case out <- Chunk{Text: resp.Response}:
	case <-ctx.Done():
		return
	}
	md := resp.Metadata
	md["session_id"] = resp.SessionID
	md["model_used"] = resp.ModelUsed
	select {
	case out <- Chunk{Done: true, Metadata: md}:
	case <-ctx.Done():
	}
}
