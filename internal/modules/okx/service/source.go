package service

import (
	"context"
	"sync"
)

// SessionSource — кэш единственной сессии на процесс. Резолвит лениво,
// отдаёт закэшированную всем желающим; Invalidate зовётся только после
// CONNECTIVITY-отказа, следующий Get пере-резолвит.
type SessionSource struct {
	creds Credentials
	modes []Mode

	mu      sync.Mutex
	session *Session
}

func NewSessionSource(creds Credentials, modes []Mode) *SessionSource {
	return &SessionSource{creds: creds, modes: modes}
}

func (s *SessionSource) Get(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return s.session, nil
	}
	sess, err := Resolve(ctx, s.creds, s.modes)
	if err != nil {
		return nil, err
	}
	s.session = sess
	return sess, nil
}

func (s *SessionSource) Invalidate() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
}

// Current — текущая сессия без резолва (для health).
func (s *SessionSource) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}
