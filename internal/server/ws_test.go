package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimurillof/chat-agent-service/internal/agent"
)

func TestWebsocketChat(t *testing.T) {
	chat := &fakeChat{chunks: []agent.Chunk{
		{Text: "Hola"},
		{Done: true, Metadata: map[string]any{"model_used": "gemini-2.5-flash"}},
	}}
	srv, _, _ := testServer(t, chat, &fakeReports{})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(agent.Request{Message: "hola"}))

	var first agent.Chunk
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "Hola", first.Text)
	assert.False(t, first.Done)

	var done agent.Chunk
	require.NoError(t, conn.ReadJSON(&done))
	assert.True(t, done.Done)
	assert.Equal(t, "gemini-2.5-flash", done.Metadata["model_used"])
}

func TestWebsocketRejectsEmptyMessage(t *testing.T) {
	srv, _, _ := testServer(t, &fakeChat{chunks: nil}, &fakeReports{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(agent.Request{}))

	var errResp ErrorResponse
	require.NoError(t, conn.ReadJSON(&errResp))
	assert.Equal(t, "message required", errResp.Error)
}
