package provider

import (
	"strings"

	"github.com/mimurillof/chat-agent-service/internal/grounding"
)

// Conversation roles understood by the provider.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is one piece of a conversation turn: text, inline bytes, a
// function call requested by the model, or a function result fed back.
type Part struct {
	Text             string            `json:"text,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Blob carries inline binary data such as an image.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// Content is one conversation turn. Turns are immutable once appended
// to a conversation.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// TextContent builds a single-text turn.
func TextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// FunctionCall is a model request to execute a declared function.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a function result back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Schema is a subset of JSON Schema used for function parameters and
// structured response contracts.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// FunctionDeclaration describes a callable local function to the model.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Tool is one tool entry in a request. The provider rejects grounding
// tools mixed with function declarations, so a request carries either
// one grounding tool or one declaration set, never both.
type Tool struct {
	GoogleSearch         *struct{}             `json:"google_search,omitempty"`
	URLContext           *struct{}             `json:"url_context,omitempty"`
	FunctionDeclarations []FunctionDeclaration `json:"function_declarations,omitempty"`
}

// GenerationConfig holds sampling and output-shape parameters.
type GenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema  `json:"responseSchema,omitempty"`
}

// GenerateRequest is a full generation request.
type GenerateRequest struct {
	Contents          []Content         `json:"contents"`
	Tools             []Tool            `json:"tools,omitempty"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Float64 returns a pointer for optional generation parameters.
func Float64(v float64) *float64 { return &v }

// Candidate is one model completion.
type Candidate struct {
	Content           Content                `json:"content"`
	FinishReason      string                 `json:"finishReason,omitempty"`
	GroundingMetadata *wireGroundingMetadata `json:"groundingMetadata,omitempty"`
}

// Result is a structured generation result.
type Result struct {
	Candidates []Candidate    `json:"candidates"`
	Usage      *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelUsed  string         `json:"-"`
}

// UsageMetadata reports token accounting from the provider.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}

// Text concatenates the text parts of the lead candidate.
func (r *Result) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

// FunctionCalls returns the function-call parts of the lead candidate
// in order. Only the lead candidate is inspected.
func (r *Result) FunctionCalls() []FunctionCall {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	var calls []FunctionCall
	for _, p := range r.Candidates[0].Content.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

// Grounding returns the lead candidate's grounding metadata, or nil.
func (r *Result) Grounding() *grounding.Metadata {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	return r.Candidates[0].GroundingMetadata.toDomain()
}

// Empty reports whether the result carries neither text nor function
// calls. "No response" is a data case, not an error.
func (r *Result) Empty() bool {
	return r.Text() == "" && len(r.FunctionCalls()) == 0
}

// wireGroundingMetadata mirrors the provider's grounding payload.
type wireGroundingMetadata struct {
	WebSearchQueries []string `json:"webSearchQueries,omitempty"`
	GroundingChunks  []struct {
		Web *struct {
			URI   string `json:"uri"`
			Title string `json:"title"`
		} `json:"web,omitempty"`
	} `json:"groundingChunks,omitempty"`
	GroundingSupports []struct {
		Segment struct {
			StartIndex int `json:"startIndex,omitempty"`
			EndIndex   int `json:"endIndex,omitempty"`
		} `json:"segment"`
		GroundingChunkIndices []int `json:"groundingChunkIndices,omitempty"`
	} `json:"groundingSupports,omitempty"`
}

func (w *wireGroundingMetadata) toDomain() *grounding.Metadata {
	md := &grounding.Metadata{SearchQueries: w.WebSearchQueries}
	for _, c := range w.GroundingChunks {
		if c.Web == nil {
			continue
		}
		md.Chunks = append(md.Chunks, grounding.Chunk{Title: c.Web.Title, URI: c.Web.URI})
	}
	for _, s := range w.GroundingSupports {
		md.Supports = append(md.Supports, grounding.Support{
			EndOffset:    s.Segment.EndIndex,
			ChunkIndices: s.GroundingChunkIndices,
		})
	}
	if len(md.Chunks) == 0 && len(md.Supports) == 0 && len(md.SearchQueries) == 0 {
		return nil
	}
	return md
}
