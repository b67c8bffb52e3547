package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/config"
	"github.com/illarion/pwvault/internal/keyring"
	"github.com/illarion/pwvault/internal/logging"
	"github.com/illarion/pwvault/internal/pws3"
	"github.com/illarion/pwvault/internal/session"
	"github.com/illarion/pwvault/internal/vault"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func testEnv(t *testing.T) *Env {
	t.Helper()
	cfg := config.Default()
	cfg.Iterations = pws3.MinIterations
	cfg.IndexPath = filepath.Join(t.TempDir(), "index.db")
	return &Env{Config: cfg, Log: logging.Nop()}
}

// stubPrompt replaces the terminal prompt with a fixed list of answers
func stubPrompt(t *testing.T, answers ...string) *int {
	t.Helper()
	calls := 0
	oldRead, oldInterval := readPassword, retryInterval
	readPassword = func(string) ([]byte, error) {
		if calls >= len(answers) {
			return nil, errors.New("no more answers")
		}
		calls++
		return []byte(answers[calls-1]), nil
	}
	retryInterval = time.Millisecond
	t.Cleanup(func() { readPassword, retryInterval = oldRead, oldInterval })
	return &calls
}

func acceptOnly(want string) func([]byte) error {
	return func(p []byte) error {
		if string(p) != want {
			return session.ErrWrongPassphrase
		}
		return nil
	}
}

func TestGetPasswordWithRetry_Env(t *testing.T) {
	t.Setenv(EnvPassword, "from-env")
	calls := stubPrompt(t)

	pw, source, err := GetPasswordWithRetry(context.Background(), testEnv(t), "", "acct", acceptOnly("from-env"))
	require.NoError(t, err)
	require.Equal(t, SourceEnv, source)
	require.Equal(t, "from-env", string(pw))
	require.Zero(t, *calls)
}

func TestGetPasswordWithRetry_EnvWrongDoesNotPrompt(t *testing.T) {
	t.Setenv(EnvPassword, "bad")
	calls := stubPrompt(t, "good")

	_, _, err := GetPasswordWithRetry(context.Background(), testEnv(t), "", "acct", acceptOnly("good"))
	require.ErrorIs(t, err, session.ErrWrongPassphrase)
	require.Zero(t, *calls)
}

func TestGetPasswordWithRetry_Keyring(t *testing.T) {
	t.Setenv(EnvPassword, "")
	gokeyring.MockInit()
	require.NoError(t, keyring.SavePassword("acct", "stored"))
	stubPrompt(t)

	pw, source, err := GetPasswordWithRetry(context.Background(), testEnv(t), "", "acct", acceptOnly("stored"))
	require.NoError(t, err)
	require.Equal(t, SourceKeyring, source)
	require.Equal(t, "stored", string(pw))
}

func TestGetPasswordWithRetry_StaleKeyringRemoved(t *testing.T) {
	t.Setenv(EnvPassword, "")
	gokeyring.MockInit()
	require.NoError(t, keyring.SavePassword("acct", "old"))
	calls := stubPrompt(t, "new")

	pw, source, err := GetPasswordWithRetry(context.Background(), testEnv(t), "", "acct", acceptOnly("new"))
	require.NoError(t, err)
	require.Equal(t, SourcePrompt, source)
	require.Equal(t, "new", string(pw))
	require.Equal(t, 1, *calls)
	require.False(t, keyring.HasPassword("acct"))
}

func TestGetPasswordWithRetry_KeyringDisabled(t *testing.T) {
	t.Setenv(EnvPassword, "")
	gokeyring.MockInit()
	require.NoError(t, keyring.SavePassword("acct", "stored"))
	stubPrompt(t, "typed")

	env := testEnv(t)
	env.Config.Keyring = false
	_, source, err := GetPasswordWithRetry(context.Background(), env, "", "acct", acceptOnly("typed"))
	require.NoError(t, err)
	require.Equal(t, SourcePrompt, source)
}

func TestGetPasswordWithRetry_GivesUpAfterThreeAttempts(t *testing.T) {
	t.Setenv(EnvPassword, "")
	gokeyring.MockInit()
	calls := stubPrompt(t, "a", "b", "c", "right")

	_, _, err := GetPasswordWithRetry(context.Background(), testEnv(t), "", "acct", acceptOnly("right"))
	require.ErrorIs(t, err, session.ErrWrongPassphrase)
	require.Equal(t, maxAttempts, *calls)
}

func TestGetPasswordWithRetry_OtherErrorStops(t *testing.T) {
	t.Setenv(EnvPassword, "")
	gokeyring.MockInit()
	calls := stubPrompt(t, "a", "b")

	_, _, err := GetPasswordWithRetry(context.Background(), testEnv(t), "", "acct", func([]byte) error {
		return session.ErrIntegrity
	})
	require.ErrorIs(t, err, session.ErrIntegrity)
	require.Equal(t, 1, *calls)
}

func TestReadPasswordConfirm(t *testing.T) {
	stubPrompt(t, "same", "same")
	pw, err := ReadPasswordConfirm("")
	require.NoError(t, err)
	require.Equal(t, "same", string(pw))

	stubPrompt(t, "one", "two")
	_, err = ReadPasswordConfirm("")
	require.Error(t, err)
}

func TestPasswordStrength(t *testing.T) {
	weak, _ := passwordStrength([]byte("password"))
	require.True(t, weak)

	weak, _ = passwordStrength([]byte("quartz-Wombat-lantern-91-Fjord-mosaic"))
	require.False(t, weak)
}

func TestFindRecord(t *testing.T) {
	ctx := context.Background()
	env := testEnv(t)
	s := env.NewSession(filepath.Join(t.TempDir(), "find.psafe3"))
	require.NoError(t, s.Create(ctx, []byte("pass")))
	defer s.Close()

	bank, err := s.AddRecord(vault.Record{Group: "Finance", Title: "Bank", Username: "alice"})
	require.NoError(t, err)
	_, err = s.AddRecord(vault.Record{Group: "Mail", Title: "Login"})
	require.NoError(t, err)
	_, err = s.AddRecord(vault.Record{Group: "Work", Title: "Login"})
	require.NoError(t, err)

	r, err := FindRecord(s, bank.UUID.String())
	require.NoError(t, err)
	require.Equal(t, "alice", r.Username)

	r, err = FindRecord(s, "Finance.Bank")
	require.NoError(t, err)
	require.Equal(t, bank.UUID, r.UUID)

	r, err = FindRecord(s, "Bank")
	require.NoError(t, err)
	require.Equal(t, bank.UUID, r.UUID)

	r, err = FindRecord(s, "Work.Login")
	require.NoError(t, err)
	require.Equal(t, "Work", r.Group)

	_, err = FindRecord(s, "Login")
	require.ErrorIs(t, err, ErrAmbiguous)

	_, err = FindRecord(s, "Nothing")
	require.ErrorIs(t, err, session.ErrNotFound)

	s.Lock()
	_, err = FindRecord(s, "Bank")
	require.ErrorIs(t, err, session.ErrLocked)
}

func TestRecordFlags_ApplyOnlyGiven(t *testing.T) {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	flags := NewRecordFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--title", "Bank",
		"--notes", "",
		"--totp", "gezd gnbv gy3t qojq gezd gnbv gy3t qojq",
	}))

	r := vault.Record{Title: "Old", Username: "alice", Notes: "some notes", Password: "kept"}
	require.NoError(t, flags.Apply(&r))
	require.Equal(t, "Bank", r.Title)
	require.Equal(t, "alice", r.Username)
	require.Empty(t, r.Notes)
	require.Equal(t, "kept", r.Password)
	require.Equal(t, []byte("12345678901234567890"), r.TOTPKey)
}

func TestRecordFlags_Generate(t *testing.T) {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	flags := NewRecordFlags(fs)
	require.NoError(t, fs.Parse([]string{"--generate"}))

	var r vault.Record
	require.NoError(t, flags.Apply(&r))
	require.Len(t, r.Password, 26)
}

func TestRecordFlags_Conflicts(t *testing.T) {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	flags := NewRecordFlags(fs)
	require.NoError(t, fs.Parse([]string{"--generate", "--ask-password"}))

	var r vault.Record
	require.Error(t, flags.Apply(&r))
}

func TestDecodeTOTPSecret(t *testing.T) {
	key, err := decodeTOTPSecret("")
	require.NoError(t, err)
	require.Nil(t, key)

	key, err = decodeTOTPSecret("MZXW6===")
	require.NoError(t, err)
	require.Equal(t, []byte("foo"), key)

	_, err = decodeTOTPSecret("not base32!")
	require.Error(t, err)
}

func TestInGroup(t *testing.T) {
	require.True(t, inGroup("Finance", "Finance"))
	require.True(t, inGroup("Finance.Cards", "Finance"))
	require.False(t, inGroup("FinanceOld", "Finance"))
	require.False(t, inGroup("", "Finance"))
}

func TestIndexAndKeyringAccount(t *testing.T) {
	ctx := context.Background()
	env := testEnv(t)
	path := filepath.Join(t.TempDir(), "idx.psafe3")

	require.Equal(t, absPath(path), env.keyringAccount(path, uuid.Nil))

	s := env.NewSession(path)
	require.NoError(t, s.Create(ctx, []byte("pass")))
	_, err := s.AddRecord(vault.Record{Title: "Bank"})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))
	env.recordVault(s)
	id := s.Info().VaultID
	s.Close()

	entry := env.lookupIndex(path)
	require.NotNil(t, entry)
	require.Equal(t, id.String(), entry.VaultID)
	require.Equal(t, 1, entry.Records)
	require.Equal(t, uint32(pws3.MinIterations), entry.Iterations)
	require.Positive(t, entry.Size)
	require.Equal(t, id.String(), env.keyringAccount(path, uuid.Nil))

	require.True(t, env.forgetVault(path))
	require.Nil(t, env.lookupIndex(path))

	env.Config.IndexPath = ""
	require.Equal(t, absPath(path), env.keyringAccount(path, id))
}

func TestNewSession_LogsVaultOnce(t *testing.T) {
	var buf bytes.Buffer
	env := testEnv(t)
	env.Log = logging.New(&buf, slog.LevelDebug)

	s := env.NewSession(filepath.Join(t.TempDir(), "once.psafe3"))
	require.NoError(t, s.Create(context.Background(), []byte("pass")))
	s.Lock()
	s.Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		require.Equal(t, 1, strings.Count(line, "vault=once.psafe3"), line)
	}
}

func TestCloseSessionsLocksOpenVaults(t *testing.T) {
	ctx := context.Background()
	env := testEnv(t)
	dir := t.TempDir()

	a := env.NewSession(filepath.Join(dir, "a.psafe3"))
	require.NoError(t, a.Create(ctx, []byte("pass")))
	b := env.NewSession(filepath.Join(dir, "b.psafe3"))
	require.NoError(t, b.Create(ctx, []byte("pass")))

	closeSessions()
	require.Equal(t, session.Locked, a.State())
	require.Equal(t, session.Locked, b.State())

	_, err := a.ListRecords(vault.SortSpec{})
	require.ErrorIs(t, err, session.ErrLocked)
}
