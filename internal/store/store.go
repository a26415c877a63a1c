// Package store persists user preferences in a bbolt database. Values are
// JSON encoded under a single prefs bucket.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"typehide/internal/typespan"
)

var (
	bucketPrefs    = []byte("prefs")
	keyHidden      = []byte("hidden")
	keyIgnoreKinds = []byte("ignore_kinds")
)

var ErrClosed = errors.New("store is closed")

type Store struct {
	mu sync.RWMutex
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPrefs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create prefs bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// LoadHidden returns the persisted mode. ok is false when nothing was saved.
func (s *Store) LoadHidden() (hidden bool, ok bool, err error) {
	ok, err = s.get(keyHidden, &hidden)
	return hidden, ok, err
}

func (s *Store) SaveHidden(hidden bool) error {
	return s.put(keyHidden, hidden)
}

// LoadIgnored returns the persisted ignored kinds, nil when none were saved.
func (s *Store) LoadIgnored() ([]typespan.Kind, error) {
	var kinds []typespan.Kind
	if _, err := s.get(keyIgnoreKinds, &kinds); err != nil {
		return nil, err
	}
	return kinds, nil
}

func (s *Store) SaveIgnored(kinds []typespan.Kind) error {
	if kinds == nil {
		kinds = []typespan.Kind{}
	}
	return s.put(keyIgnoreKinds, kinds)
}

func (s *Store) get(key []byte, v any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return false, ErrClosed
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPrefs)
		if b == nil {
			return nil
		}
		if raw := b.Get(key); raw != nil {
			data = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) put(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketPrefs)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}
