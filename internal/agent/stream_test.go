package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseChunk(text string) string {
	return `data: {"candidates":[{"content":{"role":"model","parts":[{"text":"` + text + `"}]}}]}` + "\n\n"
}

func collect(ch <-chan Chunk) []Chunk {
	var out []Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestChatStreamForwardsChunks(t *testing.T) {
	gw := &scriptedGateway{sse: sseChunk("Hola, ") + sseChunk("¿en qué puedo ayudarte?")}
	agent, sessions := newTestAgent(t, gw)

	chunks := collect(agent.ChatStream(context.Background(), Request{Message: "hola", UserID: "user-1"}))
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hola, ", chunks[0].Text)
	assert.Equal(t, "¿en qué puedo ayudarte?", chunks[1].Text)

	done := chunks[2]
	assert.True(t, done.Done)
	assert.Equal(t, fastModel, done.Metadata["model_used"])
	assert.NotEmpty(t, done.Metadata["session_id"])

	sess, err := sessions.Get(context.Background(), done.Metadata["session_id"].(string))
	require.NoError(t, err)
	require.Len(t, sess.Turns, 2)
	assert.Equal(t, "Hola, ¿en qué puedo ayudarte?", sess.Turns[1].Content)
}

func TestChatStreamDefersCitationsToFinalChunk(t *testing.T) {
	grounded := `data: {"candidates":[{"content":{"role":"model","parts":[{"text":" hoy"}]},` +
		`"groundingMetadata":{"webSearchQueries":["mercado"],` +
		`"groundingChunks":[{"web":{"uri":"https://example.com/a","title":"example.com"}}],` +
		`"groundingSupports":[{"segment":{"endIndex":20},"groundingChunkIndices":[0]}]}}]}` + "\n\n"
	gw := &scriptedGateway{sse: sseChunk("El mercado subio") + grounded}
	agent, _ := newTestAgent(t, gw)

	chunks := collect(agent.ChatStream(context.Background(), Request{Message: "últimas noticias del mercado"}))
	require.Len(t, chunks, 4)

	// Text chunks exactly as produced, no markers inside them.
	assert.Equal(t, "El mercado subio", chunks[0].Text)
	assert.Equal(t, " hoy", chunks[1].Text)

	// One final chunk carrying only the inserted markers.
	assert.Equal(t, " ([1](https://example.com/a))", chunks[2].Text)

	done := chunks[3]
	assert.True(t, done.Done)
	assert.Equal(t, []string{"mercado"}, done.Metadata["search_queries"])
	assert.Equal(t, []string{"google_search"}, done.Metadata["tools_used"])
}

func TestChatStreamEmptyOutput(t *testing.T) {
	gw := &scriptedGateway{sse: ""}
	agent, _ := newTestAgent(t, gw)

	chunks := collect(agent.ChatStream(context.Background(), Request{Message: "hola"}))
	require.Len(t, chunks, 2)
	assert.Equal(t, noResponseMessage, chunks[0].Text)
	assert.True(t, chunks[1].Done)
}

func TestChatStreamProviderFailure(t *testing.T) {
	gw := &scriptedGateway{err: errFatal()}
	agent, _ := newTestAgent(t, gw)

	chunks := collect(agent.ChatStream(context.Background(), Request{Message: "hola"}))
	require.Len(t, chunks, 2)
	assert.Equal(t, apologyMessage, chunks[0].Text)
	assert.True(t, chunks[1].Done)
	assert.NotEmpty(t, chunks[1].Metadata["error"])
}
