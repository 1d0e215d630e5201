// Package routing selects the model tier and tool set for a query.
package routing

import (
	"regexp"

	"github.com/mimurillof/chat-agent-service/internal/provider"
	"github.com/mimurillof/chat-agent-service/internal/tools"
)

// Selection is the tool set attached to one request: at most one
// grounding tool or one function-declaration set, never both.
type Selection struct {
	Search     bool
	URLContext bool
	Functions  []provider.FunctionDeclaration
}

// Valid reports the mutual-exclusion invariant.
func (s Selection) Valid() bool {
	grounding := s.Search || s.URLContext
	if s.Search && s.URLContext {
		return false
	}
	return !(grounding && len(s.Functions) > 0)
}

// Tools renders the selection as provider tool entries.
func (s Selection) Tools() []provider.Tool {
	switch {
	case s.Search:
		return []provider.Tool{{GoogleSearch: &struct{}{}}}
	case s.URLContext:
		return []provider.Tool{{URLContext: &struct{}{}}}
	case len(s.Functions) > 0:
		return []provider.Tool{{FunctionDeclarations: s.Functions}}
	}
	return nil
}

// Labels names the selected tools for response metadata.
func (s Selection) Labels() []string {
	switch {
	case s.Search:
		return []string{"google_search"}
	case s.URLContext:
		return []string{"url_context"}
	case len(s.Functions) > 0:
		labels := make([]string, 0, len(s.Functions))
		for _, f := range s.Functions {
			labels = append(labels, f.Name)
		}
		return labels
	}
	return nil
}

// Decision is one routing outcome.
type Decision struct {
	Model     string
	Selection Selection
	Rule      string
}

// Router applies the fixed priority rules over the lexicon tables.
type Router struct {
	fastModel string
	deepModel string
	recency   *Lexicon
	datetime  *Lexicon
	functions tools.Registry
}

// NewRouter builds a router for the configured tier names.
func NewRouter(fastModel, deepModel string, functions tools.Registry) *Router {
	return &Router{
		fastModel: fastModel,
		deepModel: deepModel,
		recency:   &WebRecency,
		datetime:  &DateTime,
		functions: functions,
	}
}

var urlPattern = regexp.MustCompile(`https?://[^\s)>\]"']+`)

// DetectURL returns the first URL in the query, if any.
func DetectURL(query string) string {
	return urlPattern.FindString(query)
}

// Route evaluates the priority rules in order; first match wins.
//
//  1. local file present: deep tier, url-context only if a URL is also
//     implicated.
//  2. explicit or detected URL: fast tier + url-context.
//  3. web-recency lexicon match: fast tier + search grounding.
//  4. datetime lexicon match (and not rule 3): fast tier + datetime
//     function declarations.
//  5. otherwise: fast tier, no tools.
func (r *Router) Route(query string, hasLocalFile bool, explicitURL string) Decision {
	url := explicitURL
	if url == "" {
		url = DetectURL(query)
	}

	if hasLocalFile {
		if url != "" {
			return Decision{Model: r.deepModel, Selection: Selection{URLContext: true}, Rule: "local-file+url"}
		}
		return Decision{Model: r.deepModel, Rule: "local-file"}
	}
	if url != "" {
		return Decision{Model: r.fastModel, Selection: Selection{URLContext: true}, Rule: "url"}
	}
	if r.recency.Matches(query) {
		return Decision{Model: r.fastModel, Selection: Selection{Search: true}, Rule: r.recency.Name}
	}
	if r.datetime.Matches(query) {
		return Decision{
			Model:     r.fastModel,
			Selection: Selection{Functions: r.functions.Declarations()},
			Rule:      r.datetime.Name,
		}
	}
	return Decision{Model: r.fastModel, Rule: "default"}
}
