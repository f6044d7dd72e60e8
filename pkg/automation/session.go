package automation

import (
	"sync"
)

// Session is a live connection to an automation server.
type Session struct {
	// App is the server's root application object.
	App *Proxy

	close func() error
	once  sync.Once
	err   error
}

// NewSession returns a session around an already-connected root object.
// The closer may be nil.
func NewSession(app *Proxy, closer func() error) *Session {
	return &Session{App: app, close: closer}
}

// Close releases the connection. It must be called from the goroutine that
// dialed. Calling Close more than once is a no-op.
func (s *Session) Close() error {
	s.once.Do(func() {
		if s.close != nil {
			s.err = s.close()
		}
	})

	return s.err
}

// Dial attaches to a running automation server registered as progID, or
// starts a new one, and makes it visible when requested. The calling
// goroutine must make every call against the session and must call
// [Session.Close] when done.
func Dial(progID string, visible bool, opts ...Option) (*Session, error) {
	return dial(progID, visible, opts)
}
