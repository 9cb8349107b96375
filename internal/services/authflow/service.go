package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/deepgram/taskboard/internal/infrastructure/redis"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	FlowLifetime = 10 * time.Minute

	keyPrefix = "signin_state:"
)

// ErrUnknownState is returned for a state that was never issued, has expired
// or was already consumed.
var ErrUnknownState = errors.New("authflow: unknown or expired state")

// Flow is what the callback needs to finish a sign-in.
type Flow struct {
	Verifier    string    `json:"verifier"`
	CallbackURL string    `json:"callback_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type FlowStore interface {
	Set(ctx context.Context, state string, flow *Flow) error
	// Take returns and removes the flow. A missing state yields (nil, nil).
	Take(ctx context.Context, state string) (*Flow, error)
}

type RedisStore struct {
	redisService *redis.Service
}

type MemoryStore struct {
	mu        sync.Mutex
	flows     map[string]*Flow
	now       func() time.Time
	lastSweep time.Time
}

type Service struct {
	store FlowStore
	now   func() time.Time
}

func NewService(redisService *redis.Service) *Service {
	log.Info().Msg("Initialising sign-in flow service")

	var store FlowStore
	if redisService != nil {
		if err := redisService.Ping(context.Background()); err != nil {
			log.Error().Err(err).Msg("Redis connection failed")
			log.Warn().Msg("Falling back to in-memory sign-in state storage")
			store = newMemoryStore(nil)
		} else {
			log.Info().Msg("Using Redis for sign-in state storage")
			store = &RedisStore{redisService: redisService}
		}
	} else {
		log.Info().Msg("Using in-memory sign-in state storage")
		store = newMemoryStore(nil)
	}

	return &Service{store: store, now: time.Now}
}

// NewServiceWithStore is used by tests to control storage and time.
func NewServiceWithStore(store FlowStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

func newMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{flows: make(map[string]*Flow), now: now}
}

// Redis Store implementation
func (rs *RedisStore) Set(ctx context.Context, state string, flow *Flow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return err
	}
	return rs.redisService.Set(ctx, keyPrefix+state, string(data), FlowLifetime)
}

func (rs *RedisStore) Take(ctx context.Context, state string) (*Flow, error) {
	data, err := rs.redisService.GetDel(ctx, keyPrefix+state)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var flow Flow
	if err := json.Unmarshal([]byte(data), &flow); err != nil {
		return nil, err
	}
	return &flow, nil
}

// Memory Store implementation
func (ms *MemoryStore) Set(ctx context.Context, state string, flow *Flow) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sweep(ms.now())
	ms.flows[state] = flow
	return nil
}

func (ms *MemoryStore) Take(ctx context.Context, state string) (*Flow, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	flow, exists := ms.flows[state]
	if !exists {
		return nil, nil
	}
	delete(ms.flows, state)
	return flow, nil
}

// sweep drops abandoned flows, at most once per FlowLifetime. A flow that
// never reaches the callback is gone within two lifetimes.
func (ms *MemoryStore) sweep(now time.Time) {
	if now.Sub(ms.lastSweep) < FlowLifetime {
		return
	}
	ms.lastSweep = now
	for state, flow := range ms.flows {
		if now.After(flow.ExpiresAt) {
			delete(ms.flows, state)
		}
	}
}

// Begin records a new sign-in attempt and returns its state and PKCE
// verifier.
func (s *Service) Begin(ctx context.Context, callbackURL string) (state, verifier string, err error) {
	state = uuid.New().String()
	verifier = oauth2.GenerateVerifier()

	flow := &Flow{
		Verifier:    verifier,
		CallbackURL: SafeCallbackURL(callbackURL),
		ExpiresAt:   s.now().Add(FlowLifetime),
	}
	if err := s.store.Set(ctx, state, flow); err != nil {
		return "", "", fmt.Errorf("storing sign-in state: %w", err)
	}
	return state, verifier, nil
}

// Complete consumes state. Each state can be completed at most once.
func (s *Service) Complete(ctx context.Context, state string) (*Flow, error) {
	if state == "" {
		return nil, ErrUnknownState
	}

	flow, err := s.store.Take(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("loading sign-in state: %w", err)
	}
	if flow == nil || s.now().After(flow.ExpiresAt) {
		return nil, ErrUnknownState
	}
	return flow, nil
}

// SafeCallbackURL keeps post sign-in redirects on this site. Anything other
// than an absolute local path becomes "/".
func SafeCallbackURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return raw
}
