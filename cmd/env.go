package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/config"
	"github.com/illarion/pwvault/internal/logging"
	"github.com/illarion/pwvault/internal/session"
	"github.com/illarion/pwvault/internal/storage"
)

// Env carries the settings shared by all commands
type Env struct {
	Config *config.Config
	Log    logging.Logger
}

// Setup loads the config file and builds the logger, exiting on error
func Setup() *Env {
	path, err := config.DefaultPath()
	if err != nil {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s\n", err)
	}
	return &Env{Config: cfg, Log: logging.New(os.Stderr, level)}
}

var (
	sessionsMu sync.Mutex
	sessions   []*session.Session
)

// NewSession returns a locked session for path configured from e. The
// session is closed by HandleError if the command exits early.
func (e *Env) NewSession(path string) *session.Session {
	s := session.New(path,
		session.WithAutoLock(e.Config.AutoLock.Duration),
		session.WithIterations(e.Config.Iterations),
		session.WithLogger(e.Log),
	)
	sessionsMu.Lock()
	sessions = append(sessions, s)
	sessionsMu.Unlock()
	return s
}

// closeSessions locks every session handed out by NewSession
func closeSessions() {
	sessionsMu.Lock()
	open := sessions
	sessions = nil
	sessionsMu.Unlock()

	for _, s := range open {
		_ = s.Close()
	}
}

// openIndex returns nil when the index is disabled or cannot be opened;
// the index is a convenience and never blocks a command
func (e *Env) openIndex() *storage.Storage {
	if e.Config.IndexPath == "" {
		return nil
	}
	idx, err := storage.OpenInitialized(e.Config.IndexPath)
	if err != nil {
		e.Log.Warn(context.Background(), "index unavailable", "error", err)
		return nil
	}
	return idx
}

// lookupIndex returns the index entry for path, or nil
func (e *Env) lookupIndex(path string) *storage.VaultEntry {
	idx := e.openIndex()
	if idx == nil {
		return nil
	}
	defer idx.Close()

	entry, err := idx.GetVault(absPath(path))
	if err != nil {
		e.Log.Warn(context.Background(), "index lookup failed", "error", err)
		return nil
	}
	return entry
}

// recordVault writes the session's public metadata to the index
func (e *Env) recordVault(s *session.Session) {
	idx := e.openIndex()
	if idx == nil {
		return
	}
	defer idx.Close()

	info := s.Info()
	path := absPath(info.Path)
	entry := storage.VaultEntry{
		Path:       path,
		Name:       info.Name,
		Iterations: info.Iterations,
		Records:    info.Records,
		LastSave:   info.LastSave,
		LastOpened: time.Now(),
	}
	if info.VaultID != uuid.Nil {
		entry.VaultID = info.VaultID.String()
	}
	if st, err := os.Stat(path); err == nil {
		entry.Size = st.Size()
	}
	if err := idx.PutVault(entry); err != nil {
		e.Log.Warn(context.Background(), "index update failed", "error", err)
	}
}

// touchVault marks an indexed vault as just opened
func (e *Env) touchVault(path string) {
	idx := e.openIndex()
	if idx == nil {
		return
	}
	defer idx.Close()

	if err := idx.TouchVault(absPath(path), time.Now()); err != nil {
		e.Log.Warn(context.Background(), "index update failed", "error", err)
	}
}

// forgetVault drops path from the index and compacts it
func (e *Env) forgetVault(path string) bool {
	idx := e.openIndex()
	if idx == nil {
		return false
	}
	defer idx.Close()

	if err := idx.RemoveVault(absPath(path)); err != nil {
		e.Log.Warn(context.Background(), "index update failed", "error", err)
		return false
	}
	if err := idx.Compact(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}
	return true
}

// keyringAccount names the keyring entry of a vault: its header uuid when
// known, from the session or the index, and its absolute path otherwise
func (e *Env) keyringAccount(path string, id uuid.UUID) string {
	if e.Config.IndexPath == "" {
		return absPath(path)
	}
	if id != uuid.Nil {
		return id.String()
	}
	if entry := e.lookupIndex(path); entry != nil && entry.VaultID != "" {
		return entry.VaultID
	}
	return absPath(path)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
