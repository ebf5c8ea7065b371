package storage

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/ashm-dev/first-erdos-problem/internal/sidon"
)

// Key prefixes
const (
	keyResultPrefix  = "result:"
	keyOptimalPrefix = "optimal:"
)

// Store wraps BadgerDB for persisting solved search results, keyed by N.
// Badger serialises writes, so one Store may be shared by all workers.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenDefault opens the database in the platform data directory.
func OpenDefault() (*Store, error) {
	dir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func resultKey(n int) []byte {
	return []byte(fmt.Sprintf("%s%d", keyResultPrefix, n))
}

func optimalKey(n int) []byte {
	return []byte(fmt.Sprintf("%s%d", keyOptimalPrefix, n))
}

// SaveResult stores the result record for its N, replacing any previous one.
func (s *Store) SaveResult(r *sidon.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(resultKey(r.N), data)
	})
}

// LoadResult returns the stored result for n, or nil if none exists.
func (s *Store) LoadResult(n int) (*sidon.Result, error) {
	var res *sidon.Result

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resultKey(n))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			res = &sidon.Result{}
			return json.Unmarshal(val, res)
		})
	})
	return res, err
}

// HasOptimal reports whether n has already been solved to optimality.
func (s *Store) HasOptimal(n int) (bool, error) {
	res, err := s.LoadResult(n)
	if err != nil {
		return false, err
	}
	return res != nil && res.Status == sidon.StatusOptimal, nil
}

// BestBound returns the best known maximum for n from a previous run, to
// seed the search's initial bound when it beats the default.
func (s *Store) BestBound(n int) (uint64, bool, error) {
	res, err := s.LoadResult(n)
	if err != nil || res == nil || res.MaxValue == 0 {
		return 0, false, err
	}
	return res.MaxValue, true, nil
}

// SaveOptimalSets stores every optimal set found for n in enumerate-all
// mode.
func (s *Store) SaveOptimalSets(n int, sets [][]uint64) error {
	data, err := json.Marshal(sets)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(optimalKey(n), data)
	})
}

// LoadOptimalSets returns the stored optimal sets for n, or nil if none.
func (s *Store) LoadOptimalSets(n int) ([][]uint64, error) {
	var sets [][]uint64

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(optimalKey(n))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sets)
		})
	})
	return sets, err
}

// Results returns every stored result, ordered by key.
func (s *Store) Results() ([]sidon.Result, error) {
	var results []sidon.Result

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyResultPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var r sidon.Result
				if err := json.Unmarshal(val, &r); err != nil {
					return err
				}
				results = append(results, r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return results, err
}
