package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwell-labs/storyplan/domain/trace"
)

// TraceStore is a BadgerDB-backed implementation of trace.Store. Entries
// are keyed by run ID and big-endian sequence number so iteration yields
// them in append order.
type TraceStore struct {
	db        *badger.DB
	keyPrefix string
}

// NewTraceStore opens a BadgerDB trace store with the given configuration.
func NewTraceStore(cfg Config, opts ...Option) (*TraceStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return &TraceStore{db: db, keyPrefix: cfg.KeyPrefix}, nil
}

// NewTraceStoreFromDB creates a trace store from an existing database.
func NewTraceStoreFromDB(db *badger.DB, keyPrefix string) *TraceStore {
	return &TraceStore{db: db, keyPrefix: keyPrefix}
}

// Key format: prefix:trace:runID:sequence (8 bytes, big-endian).
func (s *TraceStore) entryKey(runID string, seq uint64) []byte {
	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, seq)
	return append([]byte(s.keyPrefix+"trace:"+runID+":"), seqBytes...)
}

// Key format: prefix:runs:runID, marking a run's existence.
func (s *TraceStore) runKey(runID string) []byte {
	return []byte(s.keyPrefix + "runs:" + runID)
}

// Append persists trace entries atomically.
func (s *TraceStore) Append(ctx context.Context, entries ...trace.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		seen := make(map[string]bool)
		for _, e := range entries {
			if e.RunID == "" {
				return trace.ErrInvalidRunID
			}

			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshaling trace entry: %w", err)
			}
			if err := txn.Set(s.entryKey(e.RunID, e.Sequence), data); err != nil {
				return err
			}

			if !seen[e.RunID] {
				if err := txn.Set(s.runKey(e.RunID), nil); err != nil {
					return err
				}
				seen[e.RunID] = true
			}
		}
		return nil
	})
}

// Get retrieves all entries for a run in sequence order.
func (s *TraceStore) Get(ctx context.Context, runID string) ([]trace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "trace:" + runID + ":")
	var entries []trace.Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e trace.Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				continue // skip malformed entries
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", trace.ErrRunNotFound, runID)
	}
	return entries, nil
}

// Runs returns all run IDs with entries in the store.
func (s *TraceStore) Runs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "runs:")
	prefixLen := len(prefix)
	var runs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			runs = append(runs, string(key[prefixLen:]))
		}
		return nil
	})
	return runs, err
}

// DeleteRun removes all entries for a run.
func (s *TraceStore) DeleteRun(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.DropPrefix([]byte(s.keyPrefix + "trace:" + runID + ":")); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.runKey(runID))
	})
}

// Close closes the underlying database.
func (s *TraceStore) Close() error {
	return s.db.Close()
}

var _ trace.Store = (*TraceStore)(nil)
