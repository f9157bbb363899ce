package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"weaver/internal/assistant"
	"weaver/internal/batch"
	"weaver/internal/infra"
)

// Store hands out sessions by ID and evicts idle ones after a TTL.
type Store struct {
	cache   *cache.Cache
	ttl     time.Duration
	logger  infra.Logger
	gen     batch.Generator
	chat    assistant.Streamer
	timeout time.Duration
}

// NewStore wires the store to the shared remote clients. Each session gets
// its own coordinators; the clients are safe for concurrent use.
func NewStore(gen batch.Generator, chat assistant.Streamer, logger infra.Logger, ttl, generateTimeout time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{
		cache:   cache.New(ttl, 10*time.Minute),
		ttl:     ttl,
		logger:  logger,
		gen:     gen,
		chat:    chat,
		timeout: generateTimeout,
	}
}

// Create registers a fresh session.
func (s *Store) Create() *Session {
	id := uuid.NewString()
	coordinator := batch.NewCoordinator(s.gen, s.logger, s.timeout)
	sess := newSession(id, coordinator, func() *assistant.Conversation {
		return assistant.NewConversation(s.chat, s.logger)
	})
	s.cache.Set(id, sess, cache.DefaultExpiration)
	s.logger.Debug().Str("session_id", id).Msg("session: created")
	return sess
}

// Get fetches a live session and slides its expiration forward.
func (s *Store) Get(id string) (*Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*Session)
	if !ok {
		return nil, false
	}
	s.cache.Set(id, sess, cache.DefaultExpiration)
	return sess, true
}

// Delete drops a session immediately.
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}
