package orchestrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/deepgram/taskboard/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// ThreadHeader carries the conversation thread id to the agent.
const ThreadHeader = "X-IBM-THREAD-ID"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserContext identifies the signed-in user to the agent.
type UserContext struct {
	SSOToken    string `json:"sso_token"`
	WxoUsername string `json:"wxo_username"`
	WxoEmail    string `json:"wxo_email"`
}

type CompletionRequest struct {
	Messages []Message   `json:"messages"`
	Context  UserContext `json:"context"`
	Stream   bool        `json:"stream"`
}

// CompletionResponse holds only the parts of the agent's OpenAI-compatible
// completion the proxy reads. Everything else is left undecoded.
type CompletionResponse struct {
	Choices  []Choice        `json:"choices"`
	ThreadID json.RawMessage `json:"thread_id"`
}

type Choice struct {
	Message json.RawMessage `json:"message"`
}

// Reply returns the text of the first choice. Multi-part content is joined
// from its text parts. It returns "" when there is nothing to show.
func (c *CompletionResponse) Reply() string {
	if len(c.Choices) == 0 || len(c.Choices[0].Message) == 0 {
		return ""
	}

	var msg openai.ChatCompletionMessage
	if err := json.Unmarshal(c.Choices[0].Message, &msg); err != nil {
		return ""
	}
	if msg.Content != "" {
		return msg.Content
	}

	var parts []string
	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText && part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Thread returns thread_id whether the agent sent it as a string or a
// number.
func (c *CompletionResponse) Thread() string {
	if len(c.ThreadID) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(c.ThreadID, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(c.ThreadID, &n); err == nil {
		return n.String()
	}
	return ""
}

// DownstreamError is returned when the agent answers with a non-2xx status.
type DownstreamError struct {
	StatusCode int
	Body       string
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("orchestrate returned status %d", e.StatusCode)
}

type Client struct {
	client   *http.Client
	endpoint string
}

func NewClient(cfg config.OrchestrateConfig) *Client {
	log.Info().Str("endpoint", cfg.CompletionsURL()).Msg("Initialising Orchestrate client")

	return &Client{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: cfg.CompletionsURL(),
	}
}

// Complete posts a non-streaming completion request on behalf of the user
// holding bearer. It returns the raw response body so callers can echo it.
func (c *Client) Complete(ctx context.Context, bearer, threadID string, body *CompletionRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	if threadID != "" {
		req.Header.Set(ThreadHeader, threadID)
	}

	log.Debug().
		Int("messages", len(body.Messages)).
		Bool("has_thread", threadID != "").
		Msg("Sending completion request to Orchestrate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().
			Int("status", resp.StatusCode).
			Msg("Orchestrate returned an error status")
		return nil, &DownstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return raw, nil
}
