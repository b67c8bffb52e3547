package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/illarion/pwvault/internal/pws3"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAutoLock, EnvIterations, EnvIndex, EnvLogLevel, EnvNoKeyring} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, DefaultAutoLock, cfg.AutoLock.Duration)
	require.Equal(t, uint32(pws3.DefaultIterations), cfg.Iterations)
	require.True(t, cfg.Keyring)
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
auto_lock = "5m"
iterations = 4096
keyring = false
log_level = "debug"
default_sort = "-modified"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.AutoLock.Duration)
	require.Equal(t, uint32(4096), cfg.Iterations)
	require.False(t, cfg.Keyring)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "-modified", cfg.DefaultSort)
	// untouched keys keep defaults
	require.Equal(t, Default().IndexPath, cfg.IndexPath)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`iterations = 10`+"\n"+`log_level = "loud"`), 0600))

	_, err := Load(path)
	require.Error(t, err)
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, err.Error(), "iterations")
	require.Contains(t, err.Error(), "log_level")

	require.NoError(t, os.WriteFile(path, []byte(`auto_lock = "soon"`), 0600))
	_, err = Load(path)
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvAutoLock:   "0s",
		EnvIterations: "2048",
		EnvIndex:      "",
		EnvLogLevel:   "error",
		EnvNoKeyring:  "1",
	}))
	require.NoError(t, err)
	require.Zero(t, cfg.AutoLock.Duration)
	require.Equal(t, uint32(2048), cfg.Iterations)
	require.Empty(t, cfg.IndexPath)
	require.Equal(t, "error", cfg.LogLevel)
	require.False(t, cfg.Keyring)
	require.NoError(t, cfg.Validate())

	cfg = Default()
	require.NoError(t, cfg.ApplyEnv(noEnv))
	require.Equal(t, Default(), cfg)

	require.Error(t, Default().ApplyEnv(envMap(map[string]string{EnvIterations: "many"})))
	require.Error(t, Default().ApplyEnv(envMap(map[string]string{EnvAutoLock: "later"})))
}

func TestValidate_NegativeAutoLock(t *testing.T) {
	cfg := Default()
	cfg.AutoLock = Duration{-time.Second}
	require.ErrorContains(t, cfg.Validate(), "auto_lock")
}
