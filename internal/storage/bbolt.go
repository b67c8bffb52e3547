package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket = []byte("config") // Index format version, creation time
	VaultsBucket = []byte("vaults") // Public vault metadata keyed by path
)

// Config keys
var (
	ConfigVersion = []byte("version")
	ConfigCreated = []byte("created")
)

const (
	indexVersion = "1"
	openTimeout  = time.Second
)

var ErrNotInitialized = errors.New("index not initialized")

// Storage provides the BBolt-backed vault index
type Storage struct {
	db *bolt.DB
}

// Open opens or creates an index database, creating its directory.
// It gives up after a second if another process holds the file lock.
func Open(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// OpenInitialized opens the index and makes sure its buckets exist
func OpenInitialized(path string) (*Storage, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Initialize creates the bucket structure. It is a no-op on an index that
// is already initialized.
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, VaultsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte(indexVersion)); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		return config.Put(ConfigCreated, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// Created returns when the index was initialized
func (s *Storage) Created() (time.Time, error) {
	var created time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigCreated)
		if data == nil {
			return fmt.Errorf("created time not found")
		}
		return created.UnmarshalBinary(data)
	})
	return created, err
}

// VaultEntry is the public metadata kept for one vault file
type VaultEntry struct {
	Path       string    `json:"path"`
	VaultID    string    `json:"vaultId"`
	Name       string    `json:"name,omitempty"`
	Iterations uint32    `json:"iterations"`
	Records    int       `json:"records"`
	Size       int64     `json:"size"`
	LastSave   time.Time `json:"lastSave"`
	LastOpened time.Time `json:"lastOpened"`
}

// PutVault stores or replaces the entry for entry.Path
func (s *Storage) PutVault(entry VaultEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		vaults := tx.Bucket(VaultsBucket)
		if vaults == nil {
			return ErrNotInitialized
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return vaults.Put([]byte(entry.Path), data)
	})
}

// TouchVault updates LastOpened of an existing entry. Unknown paths are
// ignored.
func (s *Storage) TouchVault(path string, at time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		vaults := tx.Bucket(VaultsBucket)
		if vaults == nil {
			return ErrNotInitialized
		}
		data := vaults.Get([]byte(path))
		if data == nil {
			return nil
		}
		var entry VaultEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return err
		}
		entry.LastOpened = at
		updated, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return vaults.Put([]byte(path), updated)
	})
}

// GetVault returns the entry for path, or nil if the path is not indexed
func (s *Storage) GetVault(path string) (*VaultEntry, error) {
	var entry *VaultEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		vaults := tx.Bucket(VaultsBucket)
		if vaults == nil {
			return ErrNotInitialized
		}
		data := vaults.Get([]byte(path))
		if data == nil {
			return nil
		}
		entry = &VaultEntry{}
		return json.Unmarshal(data, entry)
	})
	return entry, err
}

// RemoveVault removes the entry for path
func (s *Storage) RemoveVault(path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		vaults := tx.Bucket(VaultsBucket)
		if vaults == nil {
			return ErrNotInitialized
		}
		return vaults.Delete([]byte(path))
	})
}

// ListVaults returns all entries, most recently opened first
func (s *Storage) ListVaults() ([]VaultEntry, error) {
	var entries []VaultEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		vaults := tx.Bucket(VaultsBucket)
		if vaults == nil {
			return nil
		}
		return vaults.ForEach(func(k, v []byte) error {
			var entry VaultEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("corrupt entry %s: %w", k, err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	slices.SortStableFunc(entries, func(a, b VaultEntry) int {
		return b.LastOpened.Compare(a.LastOpened)
	})
	return entries, err
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after removing entries to reclaim disk space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Remove(tmpPath)
		s.db, _ = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: openTimeout})
		return fmt.Errorf("failed to replace database: %w", err)
	}

	s.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
