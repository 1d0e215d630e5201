package report

import "github.com/mimurillof/chat-agent-service/internal/provider"

// ResponseSchema describes the Report contract to the provider so the
// model emits structured JSON natively. The recovery pipeline remains
// the fallback for providers (or tiers) that ignore it.
func ResponseSchema() *provider.Schema {
	item := &provider.Schema{
		Type: "object",
		Properties: map[string]*provider.Schema{
			"type": {
				Type: "string",
				Enum: []string{
					TypeHeader1, TypeHeader2, TypeHeader3, TypeParagraph,
					TypeSpacer, TypePageBreak, TypeTable, TypeList,
					TypeKeyValueList, TypeImage,
				},
			},
			"text":  {Type: "string"},
			"style": {Type: "string", Enum: []string{"body", "italic", "bold", "centered", "disclaimer"}},
			"height": {
				Type:        "number",
				Description: "spacer height in points, or image height in inches",
			},
			"headers": {Type: "array", Items: &provider.Schema{Type: "string"}},
			"rows": {
				Type:  "array",
				Items: &provider.Schema{Type: "array", Items: &provider.Schema{Type: "string"}},
			},
			"items": {Type: "array", Items: &provider.Schema{Type: "string"}},
			"pairs": {
				Type: "array",
				Items: &provider.Schema{
					Type: "object",
					Properties: map[string]*provider.Schema{
						"key":   {Type: "string"},
						"value": {Type: "string"},
					},
					Required: []string{"key", "value"},
				},
			},
			"path":    {Type: "string"},
			"caption": {Type: "string"},
			"width":   {Type: "number", Description: "image width in inches"},
		},
		Required: []string{"type"},
	}

	return &provider.Schema{
		Type: "object",
		Properties: map[string]*provider.Schema{
			"fileName": {Type: "string", Description: "professional file name ending in .pdf"},
			"document": {
				Type: "object",
				Properties: map[string]*provider.Schema{
					"title":   {Type: "string"},
					"author":  {Type: "string"},
					"subject": {Type: "string"},
				},
				Required: []string{"title", "author", "subject"},
			},
			"content": {Type: "array", Items: item},
		},
		Required: []string{"fileName", "document", "content"},
	}
}
