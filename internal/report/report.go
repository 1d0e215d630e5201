// Package report generates structured portfolio analysis documents.
// The model is asked for a Report JSON natively; when the provider
// hands back loose text instead, the recovery pipeline reconstructs it.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Content item types the PDF renderer understands.
const (
	TypeHeader1      = "header1"
	TypeHeader2      = "header2"
	TypeHeader3      = "header3"
	TypeParagraph    = "paragraph"
	TypeSpacer       = "spacer"
	TypePageBreak    = "page_break"
	TypeTable        = "table"
	TypeList         = "list"
	TypeKeyValueList = "key_value_list"
	TypeImage        = "image"
)

var paragraphStyles = map[string]bool{
	"":           true, // defaults to body
	"body":       true,
	"italic":     true,
	"bold":       true,
	"centered":   true,
	"disclaimer": true,
}

// Report is the structured document contract. Field names follow the
// wire schema the downstream PDF renderer consumes.
type Report struct {
	FileName string        `json:"fileName"`
	Document Document      `json:"document"`
	Content  []ContentItem `json:"content"`
}

// Document carries PDF-level metadata.
type Document struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Subject string `json:"subject"`
}

// KeyValue is one entry of a key_value_list block.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ContentItem is one renderable block. Which fields apply depends on
// Type; Validate enforces the per-type requirements.
type ContentItem struct {
	Type    string     `json:"type"`
	Text    string     `json:"text,omitempty"`
	Style   string     `json:"style,omitempty"`
	Height  float64    `json:"height,omitempty"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
	Items   []string   `json:"items,omitempty"`
	Pairs   []KeyValue `json:"pairs,omitempty"`
	Path    string     `json:"path,omitempty"`
	Caption string     `json:"caption,omitempty"`
	Width   float64    `json:"width,omitempty"`
}

// Validate checks structural requirements: required top-level fields,
// per-block required fields, and the type/style enums.
func (r *Report) Validate() error {
	if !strings.HasSuffix(strings.ToLower(r.FileName), ".pdf") {
		return fmt.Errorf("fileName must end in .pdf, got %q", r.FileName)
	}
	if r.Document.Title == "" {
		return fmt.Errorf("document.title is required")
	}
	if len(r.Content) == 0 {
		return fmt.Errorf("content must not be empty")
	}
	for i, item := range r.Content {
		if err := item.validate(); err != nil {
			return fmt.Errorf("content[%d]: %w", i, err)
		}
	}
	return nil
}

func (c *ContentItem) validate() error {
	switch c.Type {
	case TypeHeader1, TypeHeader2, TypeHeader3:
		if c.Text == "" {
			return fmt.Errorf("%s requires text", c.Type)
		}
	case TypeParagraph:
		if c.Text == "" {
			return fmt.Errorf("paragraph requires text")
		}
		if !paragraphStyles[c.Style] {
			return fmt.Errorf("unknown paragraph style %q", c.Style)
		}
	case TypeSpacer:
		if c.Height <= 0 {
			return fmt.Errorf("spacer requires a positive height")
		}
	case TypePageBreak:
		// no fields
	case TypeTable:
		if len(c.Headers) == 0 {
			return fmt.Errorf("table requires headers")
		}
		for i, row := range c.Rows {
			if len(row) != len(c.Headers) {
				return fmt.Errorf("table row %d has %d cells, want %d", i, len(row), len(c.Headers))
			}
		}
	case TypeList:
		if len(c.Items) == 0 {
			return fmt.Errorf("list requires items")
		}
	case TypeKeyValueList:
		if len(c.Pairs) == 0 {
			return fmt.Errorf("key_value_list requires pairs")
		}
		for i, kv := range c.Pairs {
			if kv.Key == "" {
				return fmt.Errorf("key_value_list pair %d has empty key", i)
			}
		}
	case TypeImage:
		if c.Path == "" {
			return fmt.Errorf("image requires a path")
		}
	default:
		return fmt.Errorf("unknown content type %q", c.Type)
	}
	return nil
}

// SchemaValidator adapts Report validation to the recovery pipeline.
type SchemaValidator struct{}

// Validate decodes the candidate and checks it structurally. A decode
// failure here is a schema failure, not a syntax one: the pipeline has
// already established the bytes are valid JSON.
func (SchemaValidator) Validate(data []byte) (any, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report shape: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
