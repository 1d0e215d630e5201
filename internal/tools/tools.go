// Package tools holds the local functions the model can call.
package tools

import (
	"fmt"
	"time"

	"github.com/mimurillof/chat-agent-service/internal/provider"
)

// Tool pairs a function declaration with its local handler.
type Tool struct {
	Name        string
	Description string
	Declaration provider.FunctionDeclaration
	Handler     func(args map[string]any) (map[string]any, error)
}

// Registry maps tool names to tools.
type Registry map[string]*Tool

// NewRegistry builds a registry from tools.
func NewRegistry(ts ...*Tool) Registry {
	r := make(Registry, len(ts))
	for _, t := range ts {
		r[t.Name] = t
	}
	return r
}

// Declarations returns every registered function declaration.
func (r Registry) Declarations() []provider.FunctionDeclaration {
	decls := make([]provider.FunctionDeclaration, 0, len(r))
	for _, t := range r {
		decls = append(decls, t.Declaration)
	}
	return decls
}

// Execute runs the handler for a model-requested function call.
func (r Registry) Execute(call provider.FunctionCall) (map[string]any, error) {
	t, ok := r[call.Name]
	if !ok {
		return nil, fmt.Errorf("unknown function: %s", call.Name)
	}
	return t.Handler(call.Args)
}

// CurrentDatetime returns the tool that answers date/time questions
// without mixing function calling into grounded requests.
func CurrentDatetime() *Tool {
	return &Tool{
		Name:        "get_current_datetime",
		Description: "Returns the current date and time",
		Declaration: provider.FunctionDeclaration{
			Name:        "get_current_datetime",
			Description: "Get the current date and time, including the day of the week and timezone.",
			Parameters: &provider.Schema{
				Type:       "object",
				Properties: map[string]*provider.Schema{},
			},
		},
		Handler: func(_ map[string]any) (map[string]any, error) {
			now := time.Now()
			zone, _ := now.Zone()
			return map[string]any{
				"datetime":    now.Format(time.RFC3339),
				"date":        now.Format("2006-01-02"),
				"time":        now.Format("15:04:05"),
				"day_of_week": now.Weekday().String(),
				"timezone":    zone,
				"unix":        now.Unix(),
			}, nil
		},
	}
}
