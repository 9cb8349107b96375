package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/deepgram/taskboard/internal/api/v1/middleware"
	"github.com/deepgram/taskboard/internal/infrastructure/orchestrate"
	"github.com/deepgram/taskboard/internal/services/chat"
	"github.com/deepgram/taskboard/internal/services/chat/models"
	"github.com/deepgram/taskboard/internal/services/session"
	"github.com/deepgram/taskboard/pkg/httpext"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

// HandleChat proxies a conversation to the agent. It expects RequireSession
// to have resolved the caller's session.
func HandleChat(chatService chat.Service, w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		httpext.JsonErrorWithDetails(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:   "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("Request validation failed")
		httpext.JsonErrorWithDetails(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:   "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	resp, err := chatService.Proxy(r.Context(), middleware.GetSession(r), &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	httpext.JSON(w, http.StatusOK, resp)
}

// WriteError maps chat proxy and session failures onto the endpoint's error
// envelope.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var downstream *orchestrate.DownstreamError

	switch {
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrRefreshFailed):
		httpext.JsonError(w, "Unauthorized", http.StatusUnauthorized)
	case errors.As(err, &downstream):
		log.Error().
			Int("status", downstream.StatusCode).
			Str("body", downstream.Body).
			Msg("Orchestrate API error")
		httpext.JsonErrorWithDetails(w, downstream.StatusCode, httpext.ErrorResponse{
			Error:   "Failed to communicate with Orchestrate",
			Details: downstream.Body,
		})
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Chat proxy failed")
		httpext.JsonErrorWithDetails(w, http.StatusInternalServerError, httpext.ErrorResponse{
			Error:   "Internal server error",
			Details: err.Error(),
		})
	}
}
