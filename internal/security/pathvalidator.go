package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var (
	ErrPathEscapes  = errors.New("path escapes vault directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrVerifyFailed = errors.New("written file failed verification")
)

// tempPrefix marks in-progress writes next to the target file
const tempPrefix = ".pwvault-tmp-"

// PathValidator confines file operations to one directory using the
// os.Root API. Vault files are read and replaced through it, so a crafted
// name can never reach outside the directory the vault lives in.
type PathValidator struct {
	root    *os.Root
	dirPath string
}

// New opens a PathValidator for the directory at the given path.
func New(dirPath string) (*PathValidator, error) {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory root: %w", err)
	}

	return &PathValidator{
		root:    root,
		dirPath: absPath,
	}, nil
}

// ForFile opens a PathValidator for the directory holding path and returns
// the file's name relative to it.
func ForFile(path string) (*PathValidator, string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	pv, err := New(filepath.Dir(absPath))
	if err != nil {
		return nil, "", err
	}
	return pv, filepath.Base(absPath), nil
}

// Close releases resources held by the PathValidator.
func (pv *PathValidator) Close() error {
	if pv.root != nil {
		return pv.root.Close()
	}
	return nil
}

// Dir returns the absolute directory the validator is confined to
func (pv *PathValidator) Dir() string {
	return pv.dirPath
}

// ValidateAndNormalize validates a user-provided path and returns a
// normalized relative path. It rejects:
// - Empty paths
// - Absolute paths
// - Paths that escape the directory (using ..)
// - Paths that are not local (using filepath.IsLocal)
func (pv *PathValidator) ValidateAndNormalize(userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}

	if !filepath.IsLocal(userPath) {
		if filepath.IsAbs(userPath) {
			return "", fmt.Errorf("%w: %s", ErrAbsolutePath, userPath)
		}
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	cleanPath := filepath.Clean(userPath)

	relPath, err := filepath.Rel(pv.dirPath, filepath.Join(pv.dirPath, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	return filepath.ToSlash(relPath), nil
}

// ReadFileInRoot reads a file within the directory using os.Root.
func (pv *PathValidator) ReadFileInRoot(path string) ([]byte, error) {
	platformPath := filepath.FromSlash(path)
	if _, err := pv.ValidateAndNormalize(platformPath); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return pv.root.ReadFile(platformPath)
}

// StatInRoot stats a file within the directory using os.Root.
func (pv *PathValidator) StatInRoot(path string) (os.FileInfo, error) {
	platformPath := filepath.FromSlash(path)
	if _, err := pv.ValidateAndNormalize(platformPath); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return pv.root.Stat(platformPath)
}

// ExistsInRoot reports whether path names an existing file
func (pv *PathValidator) ExistsInRoot(path string) (bool, error) {
	_, err := pv.StatInRoot(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// WriteFileAtomic replaces path with data without ever exposing a partial
// file: data goes to a temp file in the same directory which is synced,
// read back and passed to verify (when non-nil), then renamed over path.
// The directory is synced after the rename. On any failure the temp file
// is removed and path is left untouched.
func (pv *PathValidator) WriteFileAtomic(path string, data []byte, perm os.FileMode, verify func([]byte) error) (err error) {
	platformPath := filepath.FromSlash(path)
	if _, err := pv.ValidateAndNormalize(platformPath); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	tmpPath := filepath.Join(filepath.Dir(platformPath), tempPrefix+rand.Text())
	f, err := pv.root.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = pv.root.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if verify != nil {
		written, err := pv.root.ReadFile(tmpPath)
		if err != nil {
			return fmt.Errorf("failed to read back temp file: %w", err)
		}
		if err := verify(written); err != nil {
			return fmt.Errorf("%w: %w", ErrVerifyFailed, err)
		}
	}

	if err := pv.root.Rename(tmpPath, platformPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	pv.syncDir(filepath.Dir(platformPath))
	return nil
}

// syncDir flushes the directory entry after a rename. Not supported on
// Windows, and a failure here does not undo a completed rename.
func (pv *PathValidator) syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	d, err := pv.root.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// CleanupTemp removes temp files left by interrupted writes that are at
// least olderThan old
func (pv *PathValidator) CleanupTemp(olderThan time.Duration) (int, error) {
	matches, err := fs.Glob(pv.root.FS(), tempPrefix+"*")
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, name := range matches {
		info, err := pv.root.Stat(name)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := pv.root.Remove(name); err == nil {
			removed++
		}
	}
	return removed, nil
}
