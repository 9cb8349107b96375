package chat

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deepgram/taskboard/internal/config"
	"github.com/deepgram/taskboard/internal/infrastructure/orchestrate"
	"github.com/deepgram/taskboard/internal/services/chat"
	"github.com/deepgram/taskboard/internal/services/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAgent starts a fake agent API and returns a chat service bound to it.
// Every request body the agent receives is sent on the returned channel.
func newAgent(t *testing.T, status int, body string) (chat.Service, <-chan orchestrate.CompletionRequest) {
	t.Helper()
	received := make(chan orchestrate.CompletionRequest, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req orchestrate.CompletionRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		received <- req

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := orchestrate.NewClient(config.OrchestrateConfig{
		APIURL:  server.URL,
		AgentID: "agent-1",
		Timeout: 5 * time.Second,
	})
	return chat.NewService(client), received
}

func serve(svc chat.Service, token *session.Token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/orchestrate/chat", strings.NewReader(body))
	if token != nil {
		req = req.WithContext(session.NewContext(req.Context(), token))
	}
	rec := httptest.NewRecorder()
	HandleChat(svc, rec, req)
	return rec
}

func validToken() *session.Token {
	return &session.Token{
		ID:          "s1",
		AccessToken: "access-1",
		User:        session.User{ID: "u1", Name: "Ada", Email: "ada@example.com"},
	}
}

func TestHandleChat(t *testing.T) {
	agentBody := `{"choices":[{"message":{"content":"hello"}}],"thread_id":"t1"}`
	svc, received := newAgent(t, http.StatusOK, agentBody)

	rec := serve(svc, validToken(), `{"messages":[{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Message      string          `json:"message"`
		ThreadID     string          `json:"threadId"`
		FullResponse json.RawMessage `json:"fullResponse"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hello", resp.Message)
	assert.Equal(t, "t1", resp.ThreadID)
	assert.JSONEq(t, agentBody, string(resp.FullResponse))

	sent := <-received
	assert.Equal(t, "hi", sent.Messages[0].Content)
	assert.Equal(t, "access-1", sent.Context.SSOToken)
	assert.Equal(t, "Ada", sent.Context.WxoUsername)
	assert.Equal(t, "ada@example.com", sent.Context.WxoEmail)
	assert.False(t, sent.Stream)
}

func TestHandleChatStructuredContent(t *testing.T) {
	svc, received := newAgent(t, http.StatusOK, `{"choices":[]}`)

	rec := serve(svc, validToken(), `{"messages":[{"role":"user","content":{"type":"card","items":[1,2]}}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), chat.NoResponse)

	sent := <-received
	require.Len(t, sent.Messages, 1)
	assert.JSONEq(t, `{"type":"card","items":[1,2]}`, sent.Messages[0].Content)
}

func TestHandleChatDownstreamError(t *testing.T) {
	svc, _ := newAgent(t, http.StatusServiceUnavailable, "unavailable")

	rec := serve(svc, validToken(), `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to communicate with Orchestrate","details":"unavailable"}`, rec.Body.String())
}

func TestHandleChatRejects(t *testing.T) {
	svc, _ := newAgent(t, http.StatusOK, `{}`)

	tests := []struct {
		name       string
		token      *session.Token
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "malformed json", token: validToken(), body: `{"messages":`, wantStatus: http.StatusBadRequest, wantError: "Invalid request format"},
		{name: "empty messages", token: validToken(), body: `{"messages":[]}`, wantStatus: http.StatusBadRequest, wantError: "Invalid request format"},
		{name: "missing role", token: validToken(), body: `{"messages":[{"content":"hi"}]}`, wantStatus: http.StatusBadRequest, wantError: "Invalid request format"},
		{name: "no session", body: `{"messages":[{"role":"user","content":"hi"}]}`, wantStatus: http.StatusUnauthorized, wantError: "Unauthorized"},
		{
			name:       "refresh failed session",
			token:      &session.Token{AccessToken: "stale", Error: session.ErrorRefreshFailed},
			body:       `{"messages":[{"role":"user","content":"hi"}]}`,
			wantStatus: http.StatusUnauthorized,
			wantError:  "Unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(svc, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestHandleChatAgentUnreachable(t *testing.T) {
	client := orchestrate.NewClient(config.OrchestrateConfig{APIURL: "http://127.0.0.1:1", AgentID: "a", Timeout: time.Second})

	rec := serve(chat.NewService(client), validToken(), `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotEmpty(t, body["details"])
}
