package services

import (
	"sync"
	"time"

	"registration-assistant/internal/domain"
)

// SessionService keeps the per-chat conversation state. Keys are chat ids
// and independent of each other; writes replace the whole entry, so no
// cross-key locking is needed. The platform delivers updates for one chat
// serially, concurrent access only happens across chats.
type SessionService struct {
	sessions map[int64]*domain.Session
	mu       sync.RWMutex
}

// NewSessionService creates a new session service instance
func NewSessionService() *SessionService {
	return &SessionService{
		sessions: make(map[int64]*domain.Session),
	}
}

// GetSession retrieves a session by chat ID, nil if none exists
func (s *SessionService) GetSession(chatID int64) *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessions[chatID]
}

// GetOrCreateSession retrieves an existing session or creates an empty one
func (s *SessionService) GetOrCreateSession(userID, chatID int64) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, exists := s.sessions[chatID]; exists {
		return session
	}

	session := &domain.Session{
		UserID:    userID,
		ChatID:    chatID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.sessions[chatID] = session
	return session
}

// UpdateSession updates session timestamp and saves changes
func (s *SessionService) UpdateSession(session *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.UpdatedAt = time.Now()
	s.sessions[session.ChatID] = session
}

// StartRegistration installs a fresh wizard, overwriting any in-progress
// one wholesale. Last selection wins, no warning.
func (s *SessionService) StartRegistration(userID, chatID int64, reg *domain.RegistrationSession) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[chatID]
	if !exists {
		session = &domain.Session{
			UserID:    userID,
			ChatID:    chatID,
			CreatedAt: time.Now(),
		}
		s.sessions[chatID] = session
	}

	session.Registration = reg
	session.UpdatedAt = time.Now()
	return session
}

// ClearRegistration drops the wizard arm, keeping any cart state
func (s *SessionService) ClearRegistration(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, exists := s.sessions[chatID]; exists {
		session.Registration = nil
		session.UpdatedAt = time.Now()
	}
}

// ClearCart drops the cart arm, keeping any wizard state
func (s *SessionService) ClearCart(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, exists := s.sessions[chatID]; exists {
		session.Cart = nil
		session.UpdatedAt = time.Now()
	}
}

// DeleteSession removes a session from memory
func (s *SessionService) DeleteSession(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
}
