package handlers

import (
	"net/http"
	"time"

	v1auth "github.com/deepgram/taskboard/internal/api/v1/handlers/auth"
	v1chat "github.com/deepgram/taskboard/internal/api/v1/handlers/chat"
	v1oauth "github.com/deepgram/taskboard/internal/api/v1/handlers/oauth"
	v1mware "github.com/deepgram/taskboard/internal/api/v1/middleware"
	"github.com/deepgram/taskboard/internal/config"
	"github.com/deepgram/taskboard/internal/services"
	"github.com/gorilla/mux"
)

// RegisterRoutes mounts every endpoint of the service on router.
func RegisterRoutes(router *mux.Router, cfg *config.Config, services *services.Services) {
	router.Use(v1mware.Recover, v1mware.Logging)

	// Public routes (no session required)
	router.HandleFunc("/healthz", HandleHealth).Methods("GET")

	sessions := services.GetSessionService()
	flows := services.GetAuthFlowService()
	idp := services.GetKeycloakClient()

	// Sign-in flow
	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authLimit := v1mware.RateLimit(cfg.RateLimit, config.RateLimitAuth)
	authRouter.Handle("/signin", authLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1auth.HandleSignIn(flows, idp, w, r)
	}))).Methods("GET")
	authRouter.Handle("/callback/keycloak", authLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1auth.HandleCallback(flows, idp, sessions, w, r)
	}))).Methods("GET")
	authRouter.HandleFunc("/signout", func(w http.ResponseWriter, r *http.Request) {
		v1auth.HandleSignOut(sessions, w, r)
	}).Methods("POST")
	authRouter.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		v1auth.HandleSession(sessions, w, r)
	}).Methods("GET")

	// Token exchange for the embedded agent
	router.HandleFunc("/api/token-exchange", v1mware.Preflight(cfg.CORS)).Methods("OPTIONS")
	router.Handle("/api/token-exchange", v1mware.RateLimit(cfg.RateLimit, config.RateLimitTokenExchange)(
		v1mware.RequireSession(sessions, v1oauth.WriteError)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v1oauth.HandleTokenExchange(time.Now, w, r)
		})),
	)).Methods("POST")

	// Chat proxy
	chatService := services.GetChatService()
	router.Handle("/api/orchestrate/chat", v1mware.RateLimit(cfg.RateLimit, config.RateLimitChat)(
		v1mware.RequireSession(sessions, v1chat.WriteError)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v1chat.HandleChat(chatService, w, r)
		})),
	)).Methods("POST")
}
