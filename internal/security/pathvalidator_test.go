package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestPathValidator_ValidateAndNormalize(t *testing.T) {
	tmpDir := t.TempDir()

	validator, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	tests := []struct {
		name      string
		input     string
		shouldErr bool
		errType   error
	}{
		// Valid paths
		{"simple file", "vault.psafe3", false, nil},
		{"hidden file", ".vault.psafe3", false, nil},
		{"file in subdirectory", "backup/vault.psafe3", false, nil},

		// Path traversal attempts
		{"parent directory", "../vault.psafe3", true, ErrPathEscapes},
		{"nested parent", "a/../../vault.psafe3", true, ErrPathEscapes},
		{"absolute path unix", "/etc/passwd", true, ErrAbsolutePath},

		{"empty path", "", true, ErrEmptyPath},

		// Clean should normalize these
		{"dot slash", "./vault.psafe3", false, nil},
		{"dot segments", "a/./b/../vault.psafe3", false, nil},
	}

	if runtime.GOOS == "windows" {
		tests = append(tests, struct {
			name      string
			input     string
			shouldErr bool
			errType   error
		}{"absolute path windows", "C:\\Windows\\System32\\config", true, ErrAbsolutePath})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.ValidateAndNormalize(tt.input)

			if tt.shouldErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got none", tt.input)
					return
				}
				if tt.errType != nil && !errors.Is(err, tt.errType) {
					t.Errorf("Expected error type %v, got %v", tt.errType, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for input %q: %v", tt.input, err)
				return
			}
			if strings.Contains(result, "\\") {
				t.Errorf("Result should use forward slashes, got %q", result)
			}
			if strings.HasPrefix(result, "..") || filepath.IsAbs(result) {
				t.Errorf("Result should be local, got %q", result)
			}
		})
	}
}

func TestPathValidator_ForFile(t *testing.T) {
	tmpDir := t.TempDir()

	validator, name, err := ForFile(filepath.Join(tmpDir, "vault.psafe3"))
	if err != nil {
		t.Fatalf("ForFile failed: %v", err)
	}
	defer validator.Close()

	if name != "vault.psafe3" {
		t.Errorf("name = %q, want vault.psafe3", name)
	}
	want, _ := filepath.Abs(tmpDir)
	if validator.Dir() != want {
		t.Errorf("Dir() = %q, want %q", validator.Dir(), want)
	}
}

func TestPathValidator_ReadAndStat(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "vault.psafe3"), []byte("data"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	validator, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	tests := []struct {
		name      string
		path      string
		shouldErr bool
	}{
		{"valid file", "vault.psafe3", false},
		{"nonexistent file", "missing.psafe3", true},
		{"path traversal", "../outside.psafe3", true},
		{"absolute path", "/etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := validator.ReadFileInRoot(tt.path)
			_, statErr := validator.StatInRoot(tt.path)

			if tt.shouldErr {
				if err == nil || statErr == nil {
					t.Errorf("Expected errors for %q, got read=%v stat=%v", tt.path, err, statErr)
				}
				return
			}
			if err != nil || statErr != nil {
				t.Fatalf("Unexpected errors for %q: read=%v stat=%v", tt.path, err, statErr)
			}
			if string(data) != "data" {
				t.Errorf("Content mismatch: got %q", data)
			}
		})
	}

	exists, err := validator.ExistsInRoot("vault.psafe3")
	if err != nil || !exists {
		t.Errorf("ExistsInRoot(vault.psafe3) = %v, %v", exists, err)
	}
	exists, err = validator.ExistsInRoot("missing.psafe3")
	if err != nil || exists {
		t.Errorf("ExistsInRoot(missing.psafe3) = %v, %v", exists, err)
	}
}

func TestPathValidator_WriteFileAtomic(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "vault.psafe3")
	if err := os.WriteFile(target, []byte("old"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	validator, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	var verified []byte
	err = validator.WriteFileAtomic("vault.psafe3", []byte("new"), 0600, func(data []byte) error {
		verified = data
		return nil
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if string(verified) != "new" {
		t.Errorf("verify saw %q, want %q", verified, "new")
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read target: %v", err)
	}
	if string(content) != "new" {
		t.Errorf("Content = %q, want %q", content, "new")
	}
	assertNoTempFiles(t, tmpDir)
}

func TestPathValidator_WriteFileAtomic_VerifyFailure(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "vault.psafe3")
	if err := os.WriteFile(target, []byte("old"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	validator, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	errBad := errors.New("bad content")
	err = validator.WriteFileAtomic("vault.psafe3", []byte("corrupt"), 0600, func([]byte) error {
		return errBad
	})
	if !errors.Is(err, ErrVerifyFailed) || !errors.Is(err, errBad) {
		t.Fatalf("Expected ErrVerifyFailed wrapping errBad, got %v", err)
	}

	content, _ := os.ReadFile(target)
	if string(content) != "old" {
		t.Errorf("Target was modified: %q", content)
	}
	assertNoTempFiles(t, tmpDir)
}

// os.Root must refuse writes outside the directory
func TestPathValidator_ActualEscapePrevention(t *testing.T) {
	tmpDir := t.TempDir()
	targetFile := filepath.Join(filepath.Dir(tmpDir), "should_not_be_written.psafe3")
	defer os.Remove(targetFile)

	validator, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	err = validator.WriteFileAtomic("../should_not_be_written.psafe3", []byte("pwned"), 0600, nil)
	if err == nil {
		t.Error("Expected error when trying to write outside root, got none")
	}
	if _, statErr := os.Stat(targetFile); statErr == nil {
		t.Error("File was created outside the directory")
	}
}

func TestPathValidator_CleanupTemp(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{tempPrefix + "a", tempPrefix + "b", "vault.psafe3"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), nil, 0600); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}

	validator, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	removed, err := validator.CleanupTemp(0)
	if err != nil {
		t.Fatalf("CleanupTemp failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	assertNoTempFiles(t, tmpDir)
	if _, err := os.Stat(filepath.Join(tmpDir, "vault.psafe3")); err != nil {
		t.Errorf("vault file should remain: %v", err)
	}
}

func TestPathValidator_CleanupTempKeepsFresh(t *testing.T) {
	tmpDir := t.TempDir()
	fresh := filepath.Join(tmpDir, tempPrefix+"fresh")
	if err := os.WriteFile(fresh, nil, 0600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	validator, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	removed, err := validator.CleanupTemp(time.Hour)
	if err != nil {
		t.Fatalf("CleanupTemp failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh temp file should remain: %v", err)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			t.Errorf("Leftover temp file %s", e.Name())
		}
	}
}
