package services

import (
	"fmt"
	"sync"

	"github.com/deepgram/taskboard/internal/config"
	"github.com/deepgram/taskboard/internal/infrastructure/keycloak"
	"github.com/deepgram/taskboard/internal/infrastructure/orchestrate"
	"github.com/deepgram/taskboard/internal/infrastructure/redis"
	"github.com/deepgram/taskboard/internal/services/authflow"
	"github.com/deepgram/taskboard/internal/services/chat"
	"github.com/deepgram/taskboard/internal/services/session"
	"github.com/rs/zerolog/log"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

type Services struct {
	redisService    *redis.Service
	keycloakClient  *keycloak.Client
	sessionService  *session.Service
	authFlowService *authflow.Service
	chatService     chat.Service
}

// InitializeServices initializes all required services
func InitializeServices(cfg *config.Config) (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	// Redis is optional; stores fall back to memory without it
	redisService := redis.NewService(cfg.Redis)

	keycloakClient := keycloak.NewClient(cfg.Keycloak, cfg.Server.CallbackURL())
	orchestrateClient := orchestrate.NewClient(cfg.Orchestrate)

	sessionService, err := session.NewService(cfg.Session, keycloakClient, session.NewRevocationStore(redisService))
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize session service")
		return nil, fmt.Errorf("failed to initialize session service: %w", err)
	}

	authFlowService := authflow.NewService(redisService)
	chatService := chat.NewService(orchestrateClient)

	log.Info().Msg("All services initialized successfully")

	return New(redisService, keycloakClient, sessionService, authFlowService, chatService), nil
}

// New assembles a container from already built services.
func New(redisService *redis.Service, keycloakClient *keycloak.Client, sessionService *session.Service, authFlowService *authflow.Service, chatService chat.Service) *Services {
	return &Services{
		redisService:    redisService,
		keycloakClient:  keycloakClient,
		sessionService:  sessionService,
		authFlowService: authFlowService,
		chatService:     chatService,
	}
}

// GetKeycloakClient returns the identity provider client
func (s *Services) GetKeycloakClient() *keycloak.Client {
	return s.keycloakClient
}

// GetSessionService returns the session service
func (s *Services) GetSessionService() *session.Service {
	return s.sessionService
}

// GetAuthFlowService returns the sign-in flow service
func (s *Services) GetAuthFlowService() *authflow.Service {
	return s.authFlowService
}

// GetChatService returns the chat service
func (s *Services) GetChatService() chat.Service {
	return s.chatService
}

// Close releases connections held by the services.
func (s *Services) Close() error {
	if s.redisService != nil {
		return s.redisService.Close()
	}
	return nil
}
