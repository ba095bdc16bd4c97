package transport

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
)

// Session is the per-run state shared by every request: the server-issued
// sessid and the cookies set alongside it. It never outlives the run.
type Session struct {
	mu  sync.RWMutex
	id  string
	jar http.CookieJar
}

func newSession() (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Session{jar: jar}, nil
}

// ID returns the sessid, empty until authentication succeeded
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) setID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	s.jar = nil
}
