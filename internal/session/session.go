package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/logging"
	"github.com/illarion/pwvault/internal/pws3"
	"github.com/illarion/pwvault/internal/security"
	"github.com/illarion/pwvault/internal/vault"
)

const FilePermSecure = 0600

// Session manages one vault file. Methods are safe for concurrent use;
// Unlock and Save release the internal lock while they run and reject
// overlapping calls with ErrBusy.
type Session struct {
	path       string
	autoLock   time.Duration
	iterations uint32
	whatSaved  string
	log        logging.Logger
	now        func() time.Time

	mu            sync.Mutex
	state         State
	lockRequested bool // Lock() arrived while Unlocking or Saving
	vault         *vault.Vault
	keys          *pws3.Keys
	dirty         bool
	lastActivity  time.Time
}

// New creates a locked session for the vault file at path
func New(path string, opts ...Option) *Session {
	s := &Session{
		path:       path,
		autoLock:   DefaultAutoLock,
		iterations: pws3.DefaultIterations,
		whatSaved:  DefaultWhatSaved,
		log:        logging.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("vault", filepath.Base(path))
	return s
}

// Path returns the vault file path
func (s *Session) Path() string {
	return s.path
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	return s.state
}

// Unlock reads and decrypts the vault file. On any failure the session
// stays Locked and no key material is retained.
func (s *Session) Unlock(ctx context.Context, passphrase []byte) error {
	if err := s.begin(Unlocking); err != nil {
		return err
	}

	v, keys, repaired, err := readVault(s.path, passphrase)
	if err == nil {
		v.SetClock(s.now)
	}
	return s.finishOpen(ctx, v, keys, repaired > 0, err, "unlocked", "repaired", repaired)
}

// Create starts a new, empty vault for a path that does not exist yet.
// Nothing is written until Save.
func (s *Session) Create(ctx context.Context, passphrase []byte) error {
	if err := s.begin(Unlocking); err != nil {
		return err
	}

	v, keys, err := s.create(passphrase)
	return s.finishOpen(ctx, v, keys, true, err, "created")
}

func (s *Session) create(passphrase []byte) (*vault.Vault, *pws3.Keys, error) {
	pv, name, err := security.ForFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer pv.Close()

	exists, err := pv.ExistsInRoot(name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if exists {
		return nil, nil, fmt.Errorf("%w: %s", ErrExists, s.path)
	}

	keys, err := pws3.NewKeys(passphrase, s.iterations)
	if err != nil {
		return nil, nil, err
	}
	v := vault.New()
	v.SetClock(s.now)
	return v, keys, nil
}

// begin moves a Locked session into the given transitional state
func (s *Session) begin(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()

	switch s.state {
	case Unlocking, Saving:
		return ErrBusy
	case Unlocked:
		return ErrNotLocked
	}
	s.state = to
	s.lockRequested = false
	return nil
}

// finishOpen completes Unlock or Create under the lock
func (s *Session) finishOpen(ctx context.Context, v *vault.Vault, keys *pws3.Keys, dirty bool, err error, msg string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = Locked
		s.lockRequested = false
		s.log.Warn(ctx, "open failed", "error", err)
		return err
	}
	if s.lockRequested {
		keys.Destroy()
		v.Wipe()
		s.state = Locked
		s.lockRequested = false
		s.log.Info(ctx, "lock requested while opening")
		return ErrLocked
	}

	s.vault = v
	s.keys = keys
	s.dirty = dirty
	s.state = Unlocked
	s.lastActivity = s.now()
	s.log.Info(ctx, msg, append([]any{"records", v.Len(), "iterations", keys.Iterations}, args...)...)
	return nil
}

// Lock discards the decrypted vault and zeroes all key material. Unsaved
// changes are lost. During Unlock or Save the lock is applied as soon as
// that operation finishes.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Unlocking, Saving:
		s.lockRequested = true
	case Unlocked:
		s.lockLocked("explicit")
	}
}

// Close locks the session; call it on shutdown
func (s *Session) Close() error {
	s.Lock()
	return nil
}

// lockLocked performs the transition into Locked; s.mu must be held
func (s *Session) lockLocked(reason string) {
	if s.vault != nil {
		s.vault.Wipe()
		s.vault = nil
	}
	if s.keys != nil {
		s.keys.Destroy()
		s.keys = nil
	}
	lost := s.dirty
	s.dirty = false
	s.lockRequested = false
	s.state = Locked
	s.log.Info(context.Background(), "locked", "reason", reason, "unsaved_lost", lost)
}

// expireLocked locks an idle session; s.mu must be held
func (s *Session) expireLocked() bool {
	if s.state != Unlocked || s.autoLock <= 0 {
		return false
	}
	if s.now().Sub(s.lastActivity) < s.autoLock {
		return false
	}
	s.lockLocked("idle")
	return true
}

// CheckIdle locks the session if it has been idle for the auto-lock
// timeout and reports whether it did
func (s *Session) CheckIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLocked()
}

// DefaultCheckInterval is used by RunAutoLock for a non-positive interval
const DefaultCheckInterval = time.Second

// RunAutoLock checks for idleness every interval until ctx is done. An
// interval of zero or less means DefaultCheckInterval.
func (s *Session) RunAutoLock(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckIdle()
		}
	}
}

// ActivityPing resets the auto-lock timer. It returns ErrLocked if the
// session is locked, including when the timeout already ran out.
func (s *Session) ActivityPing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	switch s.state {
	case Locked:
		return ErrLocked
	case Unlocking:
		return ErrBusy
	}
	s.lastActivity = s.now()
	return nil
}

// Save encrypts the vault and atomically replaces the file. The written
// file is decoded again with the current key before it replaces the old
// one. On failure the session stays Unlocked and dirty.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	s.expireLocked()
	switch s.state {
	case Locked:
		s.mu.Unlock()
		return ErrLocked
	case Unlocking, Saving:
		s.mu.Unlock()
		return ErrBusy
	}

	prevHeader := s.vault.Header
	s.vault.Header.LastSave = s.now()
	s.vault.Header.WhatSaved = s.whatSaved
	if s.vault.Header.Version == 0 {
		s.vault.Header.Version = pws3.FormatVersion
	}

	data, stretched, err := s.encodeLocked()
	if err != nil {
		s.vault.Header = prevHeader
		s.mu.Unlock()
		return err
	}
	s.state = Saving
	s.mu.Unlock()

	err = writeVault(s.path, data, stretched)
	crypto.ClearBytes(stretched)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Unlocked
	if err != nil {
		s.vault.Header = prevHeader
		s.log.Error(ctx, "save failed", "error", err)
	} else {
		s.dirty = false
		s.lastActivity = s.now()
		s.log.Info(ctx, "saved", "records", s.vault.Len(), "bytes", len(data))
	}
	if s.lockRequested {
		s.lockLocked("requested during save")
	}
	return err
}

// encodeLocked serializes the vault with a fresh IV; s.mu must be held
func (s *Session) encodeLocked() ([]byte, []byte, error) {
	if err := s.keys.RefreshIV(); err != nil {
		return nil, nil, err
	}
	f := s.vault.ToFile()
	defer f.Wipe()

	data, err := pws3.Encode(f, s.keys)
	if err != nil {
		return nil, nil, fmt.Errorf("encode vault: %w", err)
	}
	return data, s.keys.Stretched(), nil
}

// ChangePassphrase verifies oldPass and re-wraps the vault keys under
// newPass with a fresh salt and the configured iteration count. The change
// is persisted by the next Save.
func (s *Session) ChangePassphrase(oldPass, newPass []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWrite(); err != nil {
		return err
	}

	if !s.keys.Verify(oldPass) {
		return ErrWrongPassphrase
	}
	keys, err := s.keys.Rekey(newPass, s.iterations)
	if err != nil {
		return err
	}
	s.keys.Destroy()
	s.keys = keys
	s.markDirty()
	s.log.Info(context.Background(), "passphrase changed", "iterations", keys.Iterations)
	return nil
}

// checkRead reports whether records may be read; s.mu must be held
func (s *Session) checkRead() error {
	s.expireLocked()
	switch s.state {
	case Unlocked, Saving:
		return nil
	case Unlocking:
		return ErrBusy
	default:
		return ErrLocked
	}
}

// checkWrite reports whether the vault may be modified; s.mu must be held
func (s *Session) checkWrite() error {
	s.expireLocked()
	switch s.state {
	case Unlocked:
		return nil
	case Unlocking, Saving:
		return ErrBusy
	default:
		return ErrLocked
	}
}

func (s *Session) markDirty() {
	s.dirty = true
	s.lastActivity = s.now()
}
