// Package cache persists analysis results keyed by content fingerprint.
//
// The store is layered: an in-memory map serves all lookups, while an
// optional bbolt file keeps results across process restarts. Corrupt
// persisted entries are skipped on load rather than failing the run.
package cache

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/codescribe/codescribe-go/internal/errors"
	"github.com/codescribe/codescribe-go/internal/model"
)

var resultsBucket = []byte("analysis_results")

// Store holds analysis results by fingerprint with an owner index so
// all results produced for a given file path can be invalidated
// together.
type Store struct {
	mu      sync.RWMutex
	entries map[model.Fingerprint]*model.AnalysisResult
	owners  map[string][]model.Fingerprint

	db     *bolt.DB
	logger *slog.Logger
}

// NewStore returns an in-memory store with no persistence.
func NewStore() *Store {
	return &Store{
		entries: make(map[model.Fingerprint]*model.AnalysisResult),
		owners:  make(map[string][]model.Fingerprint),
		logger:  slog.Default().With("component", "cache"),
	}
}

// Open returns a store backed by a bbolt file at path. Existing
// results are loaded into memory; records that fail to decode are
// dropped with a warning. If the database file itself cannot be
// opened or read, the store starts empty and stays memory-only.
func Open(path string) (*Store, error) {
	s := NewStore()

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		s.logger.Warn("cache database unavailable, continuing in memory",
			"path", path, "error", err)
		return s, nil
	}

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(resultsBucket)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var r model.AnalysisResult
			if err := json.Unmarshal(v, &r); err != nil {
				s.logger.Warn("dropping corrupt cache record",
					"fingerprint", string(k), "error", err)
				return nil
			}
			s.put(&r)
			return nil
		})
	})
	if err != nil {
		db.Close()
		s.logger.Warn("cache database unreadable, continuing in memory",
			"path", path, "error", err)
		return s, nil
	}

	s.db = db
	s.logger.Info("cache loaded", "path", path, "entries", len(s.entries))
	return s, nil
}

// put records r in the in-memory maps. Caller holds the write lock
// (or is still single-threaded during load). Files with identical
// content share a fingerprint, so one entry can have several owning
// paths; each owner is registered once.
func (s *Store) put(r *model.AnalysisResult) {
	owned := false
	for _, fp := range s.owners[r.FilePath] {
		if fp == r.Fingerprint {
			owned = true
			break
		}
	}
	if !owned {
		s.owners[r.FilePath] = append(s.owners[r.FilePath], r.Fingerprint)
	}
	s.entries[r.Fingerprint] = r
}

// Lookup returns the cached result for fp, or nil when absent.
func (s *Store) Lookup(fp model.Fingerprint) *model.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[fp]
}

// Store saves a successful analysis result. Results carrying an error
// kind are rejected so transient failures never shadow a future
// successful analysis of the same content.
func (s *Store) Store(r *model.AnalysisResult) error {
	if r == nil || r.Fingerprint == "" {
		return errors.New(errors.TypeCache, "cannot cache result without fingerprint")
	}
	if r.ErrorKind != model.ErrorNone {
		return errors.New(errors.TypeCache, "refusing to cache failed result").
			WithContext("path", r.FilePath).
			WithContext("error_kind", string(r.ErrorKind))
	}

	s.mu.Lock()
	s.put(r)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return errors.CacheError(err, "encode analysis result")
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(resultsBucket).Put([]byte(r.Fingerprint), data)
	})
	if err != nil {
		return errors.CacheError(err, "persist analysis result").
			WithContext("path", r.FilePath)
	}
	return nil
}

// Invalidate removes every cached result produced for filePath and
// returns how many entries were dropped.
func (s *Store) Invalidate(filePath string) int {
	s.mu.Lock()
	fps := s.owners[filePath]
	delete(s.owners, filePath)
	for _, fp := range fps {
		delete(s.entries, fp)
	}
	s.mu.Unlock()

	if s.db != nil && len(fps) > 0 {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(resultsBucket)
			for _, fp := range fps {
				if err := b.Delete([]byte(fp)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Warn("cache invalidation not persisted",
				"path", filePath, "error", err)
		}
	}
	return len(fps)
}

// Len reports the number of cached results.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every cached result, in memory and on disk.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.entries = make(map[model.Fingerprint]*model.AnalysisResult)
	s.owners = make(map[string][]model.Fingerprint)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(resultsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(resultsBucket)
		return err
	})
	if err != nil {
		return errors.CacheError(err, "clear cache database")
	}
	return nil
}

// Path returns the backing database file path, or "" for memory-only
// stores.
func (s *Store) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

// Close releases the backing database, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil && !os.IsNotExist(err) {
		return errors.CacheError(err, "close cache database")
	}
	return nil
}
