// Package agent runs the conversational core: routing, the model
// cascade, the tool-use cycle and citation injection, on top of the
// session store.
package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mimurillof/chat-agent-service/internal/cascade"
	"github.com/mimurillof/chat-agent-service/internal/grounding"
	"github.com/mimurillof/chat-agent-service/internal/metrics"
	"github.com/mimurillof/chat-agent-service/internal/provider"
	"github.com/mimurillof/chat-agent-service/internal/routing"
	"github.com/mimurillof/chat-agent-service/internal/session"
	"github.com/mimurillof/chat-agent-service/internal/tools"
)

// maxToolRounds caps the tool-use cycle. Hitting the ceiling is not an
// error; the last available text is returned as-is.
const maxToolRounds = 5

// Request is one chat turn.
type Request struct {
	Message         string         `json:"message"`
	UserID          string         `json:"user_id"`
	SessionID       string         `json:"session_id,omitempty"`
	ModelPreference string         `json:"model_preference,omitempty"`
	FilePath        string         `json:"file_path,omitempty"`
	URL             string         `json:"url,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
}

// Response is the final answer for one turn. Chat never fails at the
// transport level: provider errors degrade to a fixed apology with the
// detail in Metadata["error"].
type Response struct {
	Response  string         `json:"response"`
	SessionID string         `json:"session_id"`
	ModelUsed string         `json:"model_used"`
	ToolsUsed []string       `json:"tools_used"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// FunctionCallRecord documents one executed local function for
// response metadata.
type FunctionCallRecord struct {
	Name    string         `json:"name"`
	Args    map[string]any `json:"args,omitempty"`
	Skipped bool           `json:"skipped,omitempty"`
}

// Agent ties the collaborators together.
type Agent struct {
	selector      *cascade.Selector
	router        *routing.Router
	functions     tools.Registry
	sessions      session.Store
	fastModel     string
	deepModel     string
	historyWindow int
	logger        *slog.Logger
}

func New(selector *cascade.Selector, router *routing.Router, functions tools.Registry, sessions session.Store, fastModel, deepModel string, historyWindow int, logger *slog.Logger) *Agent {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Agent{
		selector:      selector,
		router:        router,
		functions:     functions,
		sessions:      sessions,
		fastModel:     fastModel,
		deepModel:     deepModel,
		historyWindow: historyWindow,
		logger:        logger,
	}
}

// resolveSession loads the session or lazily creates a fresh one; an
// unknown id is treated the same as none.
func (a *Agent) resolveSession(ctx context.Context, req Request) *session.Session {
	if req.SessionID != "" {
		if sess, err := a.sessions.Get(ctx, req.SessionID); err == nil {
			return sess
		}
	}
	return session.New(req.UserID, a.fastModel)
}

// decide picks the tier and tool selection. An explicit preference
// overrides the router and carries no tools.
func (a *Agent) decide(req Request) routing.Decision {
	if req.ModelPreference != "" {
		model := a.fastModel
		if strings.EqualFold(req.ModelPreference, "pro") {
			model = a.deepModel
		}
		return routing.Decision{Model: model, Rule: "preference"}
	}
	return a.router.Route(req.Message, req.FilePath != "", req.URL)
}

// buildConversation threads the system prompt, the recent history
// window and the current message into provider turns.
func (a *Agent) buildConversation(sess *session.Session, model, message string) []provider.Content {
	prompt := flashSystemPrompt
	if model == a.deepModel {
		prompt = proSystemPrompt
	}
	contents := []provider.Content{
		provider.TextContent(provider.RoleUser, "[SISTEMA] "+prompt),
	}
	recent := sess.Recent(a.historyWindow)
	for _, turn := range recent {
		contents = append(contents, provider.TextContent(turn.Role, turn.Content))
	}
	contents = append(contents, provider.TextContent(provider.RoleUser, message))
	return contents
}

func conversationConfig() *provider.GenerationConfig {
	return &provider.GenerationConfig{
		Temperature:     provider.Float64(0.7),
		TopP:            provider.Float64(0.9),
		MaxOutputTokens: 2048,
	}
}

// Chat runs one synchronous turn.
func (a *Agent) Chat(ctx context.Context, req Request) *Response {
	sess := a.resolveSession(ctx, req)
	decision := a.decide(req)
	sess.Model = decision.Model

	contents := a.buildConversation(sess, decision.Model, req.Message)
	genReq := &provider.GenerateRequest{
		Contents:         contents,
		Tools:            decision.Selection.Tools(),
		GenerationConfig: conversationConfig(),
	}

	result, modelUsed, err := a.selector.Invoke(ctx, decision.Model, genReq)
	if err != nil {
		a.logger.Error("chat turn failed", "session_id", sess.ID, "model", decision.Model, "error", err)
		return a.apologize(ctx, sess, req, err)
	}

	result, calls, err := a.runToolCycle(ctx, decision.Model, genReq, result)
	if err != nil {
		a.logger.Error("tool cycle failed", "session_id", sess.ID, "error", err)
		return a.apologize(ctx, sess, req, err)
	}
	modelUsed = result.ModelUsed

	text := result.Text()
	if text == "" {
		text = noResponseMessage
	}

	md := map[string]any{
		"routing_rule":     decision.Rule,
		"context_provided": req.Context != nil,
		"file_analyzed":    req.FilePath != "",
		"url_analyzed":     req.URL != "",
	}
	if gmd := result.Grounding(); gmd != nil {
		text = grounding.Inject(text, gmd)
		if sources := gmd.Sources(); len(sources) > 0 {
			md["sources"] = sources
		}
		if len(gmd.SearchQueries) > 0 {
			md["search_queries"] = gmd.SearchQueries
		}
	}
	if len(calls) > 0 {
		md["function_calls"] = calls
	}

	sess.Append(provider.RoleUser, req.Message)
	sess.Append(provider.RoleModel, text)
	if err := a.sessions.Put(ctx, sess); err != nil {
		a.logger.Warn("session not persisted", "session_id", sess.ID, "error", err)
	}
	md["message_count"] = len(sess.Turns)

	return &Response{
		Response:  text,
		SessionID: sess.ID,
		ModelUsed: modelUsed,
		ToolsUsed: decision.Selection.Labels(),
		Metadata:  md,
	}
}

// runToolCycle executes local function calls until the model answers
// with text, up to the round ceiling. Only the first function call of
// the lead candidate is executed each round; each round appends
// exactly two turns (the call and its result) before re-invoking.
func (a *Agent) runToolCycle(ctx context.Context, model string, genReq *provider.GenerateRequest, result *provider.Result) (*provider.Result, []FunctionCallRecord, error) {
	var records []FunctionCallRecord
	rounds := 0
	for ; rounds < maxToolRounds; rounds++ {
		calls := result.FunctionCalls()
		if len(calls) == 0 {
			break
		}
		call := calls[0]
		records = append(records, FunctionCallRecord{Name: call.Name, Args: call.Args})
		// Extra calls in the same round are reported, not executed.
		for _, extra := range calls[1:] {
			records = append(records, FunctionCallRecord{Name: extra.Name, Args: extra.Args, Skipped: true})
			a.logger.Warn("extra function call skipped", "function", extra.Name)
		}

		out, err := a.functions.Execute(call)
		if err != nil {
			// The model sees the failure and can still answer.
			out = map[string]any{"error": err.Error()}
			a.logger.Warn("function call failed", "function", call.Name, "error", err)
		}

		genReq.Contents = append(genReq.Contents,
			provider.Content{Role: provider.RoleModel, Parts: []provider.Part{{FunctionCall: &call}}},
			provider.Content{Role: provider.RoleUser, Parts: []provider.Part{{
				FunctionResponse: &provider.FunctionResponse{Name: call.Name, Response: out},
			}}},
		)

		next, _, err := a.selector.Invoke(ctx, model, genReq)
		if err != nil {
			return nil, records, err
		}
		result = next
	}
	if rounds > 0 {
		metrics.ToolCycleRounds.Observe(float64(rounds))
	}
	return result, records, nil
}

// apologize is the conversational failure path: the fixed apology with
// the underlying detail in metadata. The user turn is still recorded.
func (a *Agent) apologize(ctx context.Context, sess *session.Session, req Request, cause error) *Response {
	sess.Append(provider.RoleUser, req.Message)
	sess.Append(provider.RoleModel, apologyMessage)
	if err := a.sessions.Put(ctx, sess); err != nil {
		a.logger.Warn("session not persisted", "session_id", sess.ID, "error", err)
	}
	return &Response{
		Response:  apologyMessage,
		SessionID: sess.ID,
		ModelUsed: "none",
		ToolsUsed: []string{},
		Metadata:  map[string]any{"error": cause.Error()},
	}
}
