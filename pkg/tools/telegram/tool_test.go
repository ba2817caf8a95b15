package telegram

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestNewToolRequiresToken(t *testing.T) {
	_, err := NewTool(Config{}, testLogger())
	assert.ErrorIs(t, err, ErrTokenRequired)
}

func TestInvokeSendsMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botsecret-token/sendMessage", r.URL.Path)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		assert.Equal(t, "BTC is at 105.2 now", r.PostForm.Get("text"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "result": {"message_id": 7}}`))
	}))
	defer server.Close()

	tool, err := NewTool(Config{Token: "secret-token", BaseURL: server.URL}, testLogger())
	require.NoError(t, err)

	result, err := tool.Invoke(context.Background(), map[string]any{
		"chat_id": float64(42),
		"message": "BTC is at 105.2 now",
	})
	require.NoError(t, err)

	payload := result.(map[string]any)
	assert.Equal(t, true, payload["sent"])
	assert.Equal(t, "42", payload["chat_id"])

	sendResult := payload["result"].(map[string]any)
	assert.InDelta(t, 7, sendResult["message_id"], 0.001)
}

func TestInvokeMissingArguments(t *testing.T) {
	tool, err := NewTool(Config{Token: "secret-token"}, testLogger())
	require.NoError(t, err)

	_, err = tool.Invoke(context.Background(), map[string]any{"message": "hi"})
	assert.ErrorIs(t, err, ErrChatIDRequired)

	_, err = tool.Invoke(context.Background(), map[string]any{"chat_id": "42"})
	assert.ErrorIs(t, err, ErrMessageRequired)
}

func TestInvokeRejectedByAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
	}))
	defer server.Close()

	tool, err := NewTool(Config{Token: "secret-token", BaseURL: server.URL}, testLogger())
	require.NoError(t, err)

	_, err = tool.Invoke(context.Background(), map[string]any{
		"chat_id": "42",
		"message": "hi",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}
