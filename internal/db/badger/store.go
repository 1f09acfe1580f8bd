// Package badger implements db.Store on an embedded BadgerDB, for single-node
// deployments that run without Redis.
package badger

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/db"
)

var _ db.Store = (*Store)(nil)

const conflictRetries = 5

// Config holds BadgerDB settings.
type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Logger   *zap.Logger
}

// Store keeps hashes as JSON objects and plain values as raw bytes in one keyspace.
type Store struct {
	db     *badger.DB
	logger *zap.Logger

	// serializes read-modify-write transactions so local writers never conflict
	wmu sync.Mutex
}

// NewStore opens (or creates) the database.
func NewStore(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required unless in_memory is set")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(cfg.Path).WithLogger(newLogger(logger))
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(newLogger(logger))
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb, logger: logger}, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// WaitForReady returns at once: an embedded database is ready when open.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close flushes and closes the database.
func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close badger", zap.Error(err))
	}
}

// update runs fn in a read-write transaction. Conflicts can still come from
// readers holding old snapshots, so they are retried.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	var err error
	for range conflictRetries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// HSet merges fields into the JSON hash at key.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	err := s.update(ctx, func(txn *badger.Txn) error {
		h, err := readHash(txn, key)
		if err != nil {
			return err
		}
		for k, v := range fields {
			h[k] = v
		}
		return writeHash(txn, key, h)
	})
	if err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns the hash at key. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	var h map[string]string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		h, err = readHash(txn, key)
		return err
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return h, nil
}

// HGetAllMulti reads several hashes from one snapshot.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	out := make([]map[string]string, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := readHash(txn, key)
			if err != nil {
				return fmt.Errorf("key %s: %w", key, err)
			}
			out[i] = h
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return out, nil
}

// HDel removes fields from the hash at key.
func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	err := s.update(ctx, func(txn *badger.Txn) error {
		h, err := readHash(txn, key)
		if err != nil {
			return err
		}
		for _, f := range fields {
			delete(h, f)
		}
		if len(h) == 0 {
			return ignoreMissing(txn.Delete([]byte(key)))
		}
		return writeHash(txn, key, h)
	})
	if err != nil {
		return &db.Error{Op: db.OpHDel, Err: err}
	}
	return nil
}

// Del deletes a key of any type.
func (s *Store) Del(ctx context.Context, key string) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		return ignoreMissing(txn.Delete([]byte(key)))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return found, nil
}

// Scan iterates keys under the literal prefix of pattern and filters them by
// the glob. Keys come back in lexical order.
func (s *Store) Scan(ctx context.Context, pattern string, limit int) ([]string, error) {
	prefix := literalPrefix(pattern)
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(it.Item().Key())
			ok, err := matchKey(pattern, prefix, key)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			keys = append(keys, key)
			if limit > 0 && len(keys) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}

// Get reads a raw value. A missing key returns db.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// IncrBy adds val to a decimal counter, creating it at zero. An existing TTL is kept.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		var (
			cur       int64
			expiresAt uint64
		)
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			expiresAt = item.ExpiresAt()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if cur, err = strconv.ParseInt(string(raw), 10, 64); err != nil {
				return fmt.Errorf("value is not an integer: %w", err)
			}
		}

		e := badger.NewEntry([]byte(key), []byte(strconv.FormatInt(cur+val, 10)))
		if expiresAt > 0 {
			e.ExpiresAt = expiresAt
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return nil
}

// Expire rewrites key with a TTL. With nx, keys that already expire are left alone.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if nx && item.ExpiresAt() > 0 {
			return nil
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry([]byte(key), raw).WithTTL(ttl))
	})
	if err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

func readHash(txn *badger.Txn, key string) (map[string]string, error) {
	h := make(map[string]string)
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return h, nil
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &h)
	})
	if err != nil {
		return nil, fmt.Errorf("decode hash: %w", err)
	}
	return h, nil
}

func writeHash(txn *badger.Txn, key string, h map[string]string) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode hash: %w", err)
	}
	return txn.Set([]byte(key), data)
}

func ignoreMissing(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// literalPrefix returns the part of a glob before its first metacharacter.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// matchKey applies the glob. A pattern that is only "<prefix>*" matches any
// key with the prefix, slashes included, the way SCAN MATCH does.
func matchKey(pattern, prefix, key string) (bool, error) {
	if pattern == prefix+"*" {
		return true, nil
	}
	ok, err := path.Match(pattern, key)
	if err != nil {
		return false, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	return ok, nil
}
