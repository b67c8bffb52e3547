package session

import (
	"time"

	"github.com/illarion/pwvault/internal/logging"
)

const (
	DefaultAutoLock  = 30 * time.Minute
	DefaultWhatSaved = "pwvault"
)

// Option configures a Session
type Option func(*Session)

// WithAutoLock sets the idle timeout; 0 disables auto-lock
func WithAutoLock(d time.Duration) Option {
	return func(s *Session) {
		s.autoLock = d
	}
}

// WithIterations sets the key-stretch count for new vaults and
// passphrase changes
func WithIterations(n uint32) Option {
	return func(s *Session) {
		s.iterations = n
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWhatSaved sets the application name written to the header on save
func WithWhatSaved(name string) Option {
	return func(s *Session) {
		s.whatSaved = name
	}
}
