package chat

import (
	"context"

	"github.com/deepgram/taskboard/internal/services/chat/models"
	"github.com/deepgram/taskboard/internal/services/session"
)

// Service defines the interface for chat operations
type Service interface {
	// Proxy forwards a conversation to the agent on behalf of the session's
	// user and returns the normalized answer.
	Proxy(ctx context.Context, token *session.Token, req *models.ChatRequest) (*models.ChatResponse, error)
}
