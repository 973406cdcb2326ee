package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"quiz-engine/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions own a goroutine and a timer, so the live objects stay in a local map.
//   - Redis holds a liveness marker per open session (value: quiz id) so operators
//     can see which sessions an instance is serving.
//   - The marker lives for the quiz budget plus ttl and is refreshed every ttl/2 until
//     the session is closed or removed, so long quizzes and retries keep it alive.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	log      *zap.Logger
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration, log *zap.Logger) *SessionStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		log:      log,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Add(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(session.ID()), session.QuizID(), s.markerTTL(session)).Err(); err != nil {
		s.log.Warn("mark session live failed", zap.String("session_id", session.ID()), zap.Error(err))
	}
	if s.ttl > 0 {
		go s.keepAlive(session)
	}
}

// markerTTL covers the whole countdown with ttl as grace. Zero ttl means no expiry.
func (s *SessionStore) markerTTL(session *app.Session) time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	return session.TimeLimit() + s.ttl
}

func (s *SessionStore) keepAlive(session *app.Session) {
	interval := s.ttl / 2
	if interval <= 0 {
		interval = s.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-session.Done():
			return
		case <-ticker.C:
			if current, ok := s.Get(session.ID()); !ok || current != session {
				return
			}
			if err := s.client.PExpire(context.Background(), s.key(session.ID()), s.markerTTL(session)).Err(); err != nil {
				s.log.Debug("refresh session marker failed", zap.String("session_id", session.ID()), zap.Error(err))
			}
		}
	}
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Remove(sessionID string) bool {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return false
	}

	if err := s.client.Del(context.Background(), s.key(sessionID)).Err(); err != nil {
		s.log.Warn("clear session marker failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return true
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
