package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deepgram/taskboard/internal/infrastructure/orchestrate"
	"github.com/deepgram/taskboard/internal/services/chat/models"
	"github.com/deepgram/taskboard/internal/services/session"
	"github.com/rs/zerolog/log"
)

// NoResponse is returned as the message when the agent produced no text.
const NoResponse = "No response from agent"

// Agent is the downstream completions API.
type Agent interface {
	Complete(ctx context.Context, bearer, threadID string, body *orchestrate.CompletionRequest) ([]byte, error)
}

type Implementation struct {
	agent Agent
}

func NewService(agent Agent) *Implementation {
	return &Implementation{agent: agent}
}

// BuildRequest converts the caller's conversation into the agent's request
// shape. Message contents are flattened to strings.
func BuildRequest(token *session.Token, bearer string, req *models.ChatRequest) *orchestrate.CompletionRequest {
	messages := make([]orchestrate.Message, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = orchestrate.Message{
			Role:    msg.Role,
			Content: msg.Content.String(),
		}
	}

	return &orchestrate.CompletionRequest{
		Messages: messages,
		Context: orchestrate.UserContext{
			SSOToken:    bearer,
			WxoUsername: token.User.Name,
			WxoEmail:    token.User.Email,
		},
		Stream: false,
	}
}

func (s *Implementation) Proxy(ctx context.Context, token *session.Token, req *models.ChatRequest) (*models.ChatResponse, error) {
	bearer, err := token.Bearer()
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("messages", len(req.Messages)).
		Str("thread_id", req.ThreadID).
		Msg("Proxying chat request to agent")

	raw, err := s.agent.Complete(ctx, bearer, req.ThreadID, BuildRequest(token, bearer, req))
	if err != nil {
		return nil, err
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("decoding agent response: invalid JSON (%d bytes)", len(raw))
	}

	var completion orchestrate.CompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		log.Warn().Err(err).Msg("Agent response has an unexpected shape")
	}

	message := completion.Reply()
	if message == "" {
		message = NoResponse
	}

	return &models.ChatResponse{
		Message:      message,
		ThreadID:     completion.Thread(),
		FullResponse: json.RawMessage(raw),
	}, nil
}
