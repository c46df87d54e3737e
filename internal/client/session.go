package client

import "sync"

// Session holds the bearer token of the signed-in user. It is safe for
// concurrent use; the zero value is a signed-out session.
type Session struct {
	mu    sync.RWMutex
	token string
	role  string
}

func NewSession() *Session {
	return &Session{}
}

// Start replaces any previous credentials.
func (s *Session) Start(token, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.role = role
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.role = ""
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) Active() bool {
	return s.Token() != ""
}
