package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mmcdole/playloop/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// DBFileName is the database file created inside the data directory
const DBFileName = "playloop.db"

// Bucket names
var (
	bucketPlaylists   = []byte("playlists")
	bucketHistory     = []byte("history")
	bucketCredentials = []byte("credentials")
)

var allBuckets = [][]byte{bucketPlaylists, bucketHistory, bucketCredentials}

// Store implements domain.Store using BoltDB.
type Store struct {
	db     *bolt.DB
	logger *slog.Logger
	mu     sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

var _ domain.Store = (*Store)(nil)

// Open opens (creating if needed) the database in dataDir.
// An empty dataDir selects memory-only mode with no persistence.
func Open(dataDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dataDir == "" {
		return &Store{logger: logger, cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger, cache: make(map[string][]byte)}, nil
}

// Path returns the database file path, or "" in memory-only mode
func (s *Store) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *Store) get(bucket []byte, key string, dest any) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	data, cached := s.cache[cacheKey]
	s.mu.RUnlock()

	if !cached {
		if s.db == nil {
			return false
		}

		err := s.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucket)
			if b == nil {
				return nil
			}
			if v := b.Get([]byte(key)); v != nil {
				data = make([]byte, len(v))
				copy(data, v)
			}
			return nil
		})
		if err != nil {
			s.logger.Warn("failed to read store", "bucket", string(bucket), "key", key, "error", err)
			return false
		}
		if data == nil {
			return false
		}
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("failed to decode stored value", "bucket", string(bucket), "key", key, "error", err)
		return false
	}

	if !cached {
		// Promote to memory cache
		s.mu.Lock()
		s.cache[cacheKey] = data
		s.mu.Unlock()
	}
	return true
}

func (s *Store) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Put([]byte(key), data)
		})
		if err != nil {
			return fmt.Errorf("failed to write %s/%s: %w", bucket, key, err)
		}
	}

	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) delete(bucket []byte, key string) error {
	s.mu.Lock()
	delete(s.cache, string(bucket)+":"+key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

// === Playlists ===

func (s *Store) GetPlaylists() ([]domain.Playlist, bool) {
	var playlists []domain.Playlist
	ok := s.get(bucketPlaylists, "list", &playlists)
	return playlists, ok
}

func (s *Store) SavePlaylists(playlists []domain.Playlist) error {
	return s.set(bucketPlaylists, "list", playlists)
}

// === History ===

func (s *Store) GetHistory() ([]domain.HistoryEntry, bool) {
	var entries []domain.HistoryEntry
	ok := s.get(bucketHistory, "entries", &entries)
	return entries, ok
}

func (s *Store) SaveHistory(entries []domain.HistoryEntry) error {
	return s.set(bucketHistory, "entries", entries)
}

// === Credentials ===

func (s *Store) GetAPIKey() (string, bool) {
	var key string
	if !s.get(bucketCredentials, "api_key", &key) || key == "" {
		return "", false
	}
	return key, true
}

func (s *Store) SaveAPIKey(key string) error {
	return s.set(bucketCredentials, "api_key", key)
}

// DeleteAPIKey forgets the stored credential
func (s *Store) DeleteAPIKey() error {
	return s.delete(bucketCredentials, "api_key")
}
