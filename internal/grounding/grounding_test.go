package grounding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetadata() *Metadata {
	return &Metadata{
		SearchQueries: []string{"AAPL price today"},
		Chunks: []Chunk{
			{Title: "Example", URI: "https://example.com/a"},
			{Title: "Other", URI: "https://example.com/b"},
		},
		Supports: []Support{
			{EndOffset: 5, ChunkIndices: []int{0}},
			{EndOffset: 11, ChunkIndices: []int{0, 1}},
		},
	}
}

func TestInject(t *testing.T) {
	text := "Hello world"
	out := Inject(text, sampleMetadata())

	assert.Equal(t, "Hello ([1](https://example.com/a)) world ([1](https://example.com/a), [2](https://example.com/b))", out)
}

func TestInjectRoundTrip(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"
	md := &Metadata{
		Chunks: []Chunk{
			{Title: "a", URI: "https://a"},
			{Title: "b", URI: "https://b"},
			{Title: "c", URI: "https://c"},
		},
		Supports: []Support{
			{EndOffset: 9, ChunkIndices: []int{1}},
			{EndOffset: 19, ChunkIndices: []int{0, 2}},
			{EndOffset: len(text), ChunkIndices: []int{2}},
		},
	}

	out, markers := InjectWithMarkers(text, md)
	require.Len(t, markers, 3)

	// Removing every inserted marker reconstructs the original exactly.
	for _, m := range markers {
		out = strings.Replace(out, m, "", 1)
	}
	assert.Equal(t, text, out)
}

func TestInjectDescendingOrder(t *testing.T) {
	// Supports arrive unsorted; earlier offsets must not shift.
	text := "abcdef"
	md := &Metadata{
		Chunks:   []Chunk{{Title: "x", URI: "u"}},
		Supports: []Support{{EndOffset: 2, ChunkIndices: []int{0}}, {EndOffset: 4, ChunkIndices: []int{0}}},
	}
	out := Inject(text, md)
	assert.Equal(t, "ab ([1](u))cd ([1](u))ef", out)
}

func TestInjectEmptyMetadata(t *testing.T) {
	assert.Equal(t, "text", Inject("text", nil))
	assert.Equal(t, "text", Inject("text", &Metadata{}))
	assert.Equal(t, "text", Inject("text", &Metadata{Chunks: []Chunk{{URI: "u"}}}))
	assert.Equal(t, "text", Inject("text", &Metadata{Supports: []Support{{EndOffset: 1}}}))
}

func TestInjectOutOfRange(t *testing.T) {
	text := "short"
	md := &Metadata{
		Chunks: []Chunk{{Title: "x", URI: "u"}},
		Supports: []Support{
			{EndOffset: 99, ChunkIndices: []int{0}},
			{EndOffset: -1, ChunkIndices: []int{0}},
			{EndOffset: 3, ChunkIndices: []int{7}}, // chunk index out of range
		},
	}
	assert.Equal(t, text, Inject(text, md))
}

func TestSources(t *testing.T) {
	md := sampleMetadata()
	sources := md.Sources()
	require.Len(t, sources, 2)
	assert.Equal(t, "Example", sources[0]["title"])
	assert.Equal(t, "https://example.com/b", sources[1]["uri"])
}
