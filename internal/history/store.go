package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const (
	bucketEntries = "entries" // timestamp key -> JSON entry
	bucketIDs     = "ids"     // entry ID -> timestamp key

	// keyLayout is fixed width so keys sort in time order.
	keyLayout = "2006-01-02T15:04:05.000000000Z"
)

var (
	// ErrEntryNotFound is returned when no entry matches an ID.
	ErrEntryNotFound = errors.New("history entry not found")

	// ErrAmbiguousID is returned when a short ID matches several entries.
	ErrAmbiguousID = errors.New("ambiguous history ID")
)

// Store keeps install attempts in a bbolt database, oldest first.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketEntries, bucketIDs} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record saves entry under its timestamp and indexes its ID.
func (s *Store) Record(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	key := entryKey(entry.Timestamp)

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(bucketEntries)).Put(key, data); err != nil {
			return fmt.Errorf("failed to save entry: %w", err)
		}
		return tx.Bucket([]byte(bucketIDs)).Put([]byte(entry.ID), key)
	})
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketEntries)).Cursor()
		for k, v := c.Last(); k != nil && (limit <= 0 || len(entries) < limit); k, v = c.Prev() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue // skip malformed entries
			}
			entries = append(entries, entry)
		}
		return nil
	})

	return entries, err
}

// Get returns the entry whose ID is id or starts with id.
func (s *Store) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, ErrEntryNotFound
	}

	var entry *Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		key, err := lookupKey(tx.Bucket([]byte(bucketIDs)), id)
		if err != nil {
			return err
		}

		v := tx.Bucket([]byte(bucketEntries)).Get(key)
		if v == nil {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
		}

		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("failed to decode entry %s: %w", id, err)
		}
		entry = &e
		return nil
	})

	return entry, err
}

func entryKey(t time.Time) []byte {
	return []byte(t.UTC().Format(keyLayout))
}

// lookupKey resolves a full or short ID to the entry's timestamp key.
func lookupKey(ids *bbolt.Bucket, id string) ([]byte, error) {
	if key := ids.Get([]byte(id)); key != nil {
		return key, nil
	}

	prefix := []byte(id)
	c := ids.Cursor()
	k, key := c.Seek(prefix)
	if k == nil || !bytes.HasPrefix(k, prefix) {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if next, _ := c.Next(); next != nil && bytes.HasPrefix(next, prefix) {
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
	return key, nil
}

// Last returns the most recent entry, or nil when the store is empty.
func (s *Store) Last() (*Entry, error) {
	entries, err := s.List(1)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// Count returns the total number of entries.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(bucketEntries)).Stats().KeyN
		return nil
	})
	return count, err
}

// Clear removes all entries.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketEntries, bucketIDs} {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, berrors.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Prune removes entries recorded more than maxAge ago and returns how
// many were dropped. Keys sort by time, so the scan stops at the cutoff.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	cutoff := entryKey(time.Now().Add(-maxAge))
	deleted := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		entries := tx.Bucket([]byte(bucketEntries))
		ids := tx.Bucket([]byte(bucketIDs))

		var stale [][]byte
		var staleIDs []string
		c := entries.Cursor()
		for k, v := c.First(); k != nil && bytes.Compare(k, cutoff) < 0; k, v = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
			var e Entry
			if json.Unmarshal(v, &e) == nil {
				staleIDs = append(staleIDs, e.ID)
			}
		}

		for _, k := range stale {
			if err := entries.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		for _, id := range staleIDs {
			if err := ids.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})

	return deleted, err
}
