package service

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/InNinoWeTrust/covalent/internal/app/port"
	"github.com/InNinoWeTrust/covalent/internal/config"
	"github.com/InNinoWeTrust/covalent/internal/domain/entity"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// sessionServiceImpl implements port.SessionManager. Sessions are held in
// an expiring cache so that abandoned connections are evicted without an
// explicit disconnect.
type sessionServiceImpl struct {
	sessions   *cache.Cache
	ttl        time.Duration
	generation uint64
	logger     *zap.Logger
}

// NewSessionService creates a new instance of sessionServiceImpl.
func NewSessionService(cfg *config.Config, logger *zap.Logger) port.SessionManager {
	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	cleanup := time.Duration(cfg.Session.CleanupIntervalMinutes) * time.Minute
	return &sessionServiceImpl{
		sessions: cache.New(ttl, cleanup),
		ttl:      ttl,
		logger:   logger.Named("SessionService"),
	}
}

func sessionKey(address string) string {
	return strings.ToLower(address)
}

// Connect creates or replaces the session for the address. Each connect
// produces a fresh generation, which invalidates in-flight rendering
// passes started under the previous one.
func (s *sessionServiceImpl) Connect(address string) entity.Session {
	gen := atomic.AddUint64(&s.generation, 1)
	sess := entity.Session{
		Address:     address,
		Generation:  gen,
		State:       entity.SessionLoading,
		ConnectedAt: time.Now().UTC(),
	}
	s.sessions.Set(sessionKey(address), sess, s.ttl)
	s.logger.Info("Wallet session connected", zap.String("address", address), zap.Uint64("generation", gen))
	return sess
}

// Disconnect removes the session. Returns false when none was connected.
func (s *sessionServiceImpl) Disconnect(address string) bool {
	key := sessionKey(address)
	if _, found := s.sessions.Get(key); !found {
		return false
	}
	s.sessions.Delete(key)
	s.logger.Info("Wallet session disconnected", zap.String("address", address))
	return true
}

// Get returns the current session for the address, if any.
func (s *sessionServiceImpl) Get(address string) (entity.Session, bool) {
	v, found := s.sessions.Get(sessionKey(address))
	if !found {
		return entity.Session{}, false
	}
	sess, ok := v.(entity.Session)
	return sess, ok
}

// SetState updates the session state, extending its TTL. A no-op when the
// session expired or was disconnected in the meantime.
func (s *sessionServiceImpl) SetState(address string, state entity.SessionState) {
	sess, found := s.Get(address)
	if !found {
		return
	}
	sess.State = state
	s.sessions.Set(sessionKey(address), sess, s.ttl)
}

// CurrentGeneration implements the port.SessionManager interface.
func (s *sessionServiceImpl) CurrentGeneration(address string) (uint64, bool) {
	sess, found := s.Get(address)
	if !found {
		return 0, false
	}
	return sess.Generation, true
}
