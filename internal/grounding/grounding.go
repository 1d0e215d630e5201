// Package grounding holds web-grounding metadata and the citation
// injector that splices source references into generated text.
package grounding

import (
	"fmt"
	"sort"
	"strings"
)

// Chunk is one retrieved source.
type Chunk struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Support ties a byte offset in the generated text to the chunks that
// ground the text before it. EndOffset is valid against the final
// accumulated text, before any citation has been spliced at or after it.
type Support struct {
	EndOffset    int   `json:"end_offset"`
	ChunkIndices []int `json:"chunk_indices"`
}

// Metadata is the grounding payload attached to a model response.
type Metadata struct {
	SearchQueries []string  `json:"search_queries,omitempty"`
	Chunks        []Chunk   `json:"chunks,omitempty"`
	Supports      []Support `json:"supports,omitempty"`
}

// Inject splices citation markers into text at the support offsets.
// It never fails: any problem degrades to returning text unchanged.
func Inject(text string, md *Metadata) string {
	out, _ := InjectWithMarkers(text, md)
	return out
}

// InjectWithMarkers is Inject plus the list of marker strings that were
// inserted, in splice order (descending offset). Supports are processed
// in descending EndOffset order so that each splice leaves every
// still-unprocessed smaller offset valid.
func InjectWithMarkers(text string, md *Metadata) (result string, markers []string) {
	result = text
	if md == nil || len(md.Supports) == 0 || len(md.Chunks) == 0 {
		return result, nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = text
			markers = nil
		}
	}()

	supports := make([]Support, len(md.Supports))
	copy(supports, md.Supports)
	sort.SliceStable(supports, func(i, j int) bool {
		return supports[i].EndOffset > supports[j].EndOffset
	})

	for _, sup := range supports {
		if sup.EndOffset < 0 || sup.EndOffset > len(text) {
			continue
		}
		marker := formatMarker(sup, md.Chunks)
		if marker == "" {
			continue
		}
		result = result[:sup.EndOffset] + marker + result[sup.EndOffset:]
		markers = append(markers, marker)
	}
	return result, markers
}

// formatMarker renders one support as a parenthesized, numbered
// reference list, e.g. " ([1](https://a), [3](https://c))".
// Chunk indices out of range are skipped.
func formatMarker(sup Support, chunks []Chunk) string {
	refs := make([]string, 0, len(sup.ChunkIndices))
	for _, idx := range sup.ChunkIndices {
		if idx < 0 || idx >= len(chunks) {
			continue
		}
		refs = append(refs, fmt.Sprintf("[%d](%s)", idx+1, chunks[idx].URI))
	}
	if len(refs) == 0 {
		return ""
	}
	return " (" + strings.Join(refs, ", ") + ")"
}

// Sources returns the chunks as a list of title/uri maps for response
// metadata.
func (m *Metadata) Sources() []map[string]string {
	if m == nil {
		return nil
	}
	sources := make([]map[string]string, 0, len(m.Chunks))
	for _, c := range m.Chunks {
		sources = append(sources, map[string]string{"title": c.Title, "uri": c.URI})
	}
	return sources
}
