package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

// ErrNotFound is returned when no snapshot exists for an id.
var ErrNotFound = errors.New("snapshot not found")

// keyPrefix namespaces snapshot keys inside the pebble keyspace.
var keyPrefix = []byte("snap/")

// Options configures DefaultStorage.
type Options struct {
	CacheSize int  // Number of snapshots kept in the read cache, 0 disables it
	Sync      bool // fsync every write
}

// DefaultStorage stores encoded snapshots in pebble, keyed by KSUID. It is
// safe for concurrent use.
type DefaultStorage struct {
	// mu orders cache fills against writes: a reader fills the cache under
	// the read lock, writers invalidate under the write lock after the write
	// has landed, so a value read before a write cannot be cached after it.
	mu        sync.RWMutex
	db        *pebble.DB
	cache     *lru.Cache[ksuid.KSUID, []byte]
	writeOpts *pebble.WriteOptions
}

func NewDefaultStorage(path string, opts Options) (*DefaultStorage, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}

	s := &DefaultStorage{db: db, writeOpts: pebble.NoSync}
	if opts.Sync {
		s.writeOpts = pebble.Sync
	}
	if opts.CacheSize > 0 {
		if s.cache, err = lru.New[ksuid.KSUID, []byte](opts.CacheSize); err != nil {
			db.Close()
			return nil, fmt.Errorf("create cache: %w", err)
		}
	}
	return s, nil
}

func key(id ksuid.KSUID) []byte {
	k := make([]byte, 0, len(keyPrefix)+len(ksuid.Nil))
	k = append(k, keyPrefix...)
	return append(k, id.Bytes()...)
}

// Create stores data under a new time-ordered id.
func (s *DefaultStorage) Create(data []byte) (*ksuid.KSUID, error) {
	id := ksuid.New()
	if err := s.db.Set(key(id), data, s.writeOpts); err != nil {
		return nil, err
	}

	return &id, nil
}

// Read returns a copy of the snapshot stored under id.
func (s *DefaultStorage) Read(id *ksuid.KSUID) ([]byte, error) {
	if s.cache != nil {
		if data, ok := s.cache.Get(*id); ok {
			log.Debug().Str("id", id.String()).Msg("snapshot cache hit")
			return clone(data), nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, closer, err := s.db.Get(key(*id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer closer.Close()

	// The slice returned by Get is only valid until closer is closed.
	out := clone(data)
	if s.cache != nil {
		s.cache.Add(*id, clone(out))
	}
	return out, nil
}

// Update replaces the snapshot stored under id.
func (s *DefaultStorage) Update(id *ksuid.KSUID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.exists(id); err != nil {
		return err
	}
	defer s.invalidate(id)
	return s.db.Set(key(*id), data, s.writeOpts)
}

// Delete removes the snapshot stored under id.
func (s *DefaultStorage) Delete(id *ksuid.KSUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.exists(id); err != nil {
		return err
	}
	defer s.invalidate(id)
	return s.db.Delete(key(*id), s.writeOpts)
}

func (s *DefaultStorage) invalidate(id *ksuid.KSUID) {
	if s.cache != nil {
		s.cache.Remove(*id)
	}
}

// List returns every stored id in creation order.
func (s *DefaultStorage) List() ([]ksuid.KSUID, error) {
	upper := append([]byte(nil), keyPrefix...)
	upper[len(upper)-1]++

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: keyPrefix, UpperBound: upper})
	if err != nil {
		return nil, err
	}

	ids := []ksuid.KSUID{}
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key()[len(keyPrefix):])
		if err != nil {
			iter.Close()
			return nil, fmt.Errorf("malformed key %x: %w", iter.Key(), err)
		}
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *DefaultStorage) exists(id *ksuid.KSUID) error {
	_, closer, err := s.db.Get(key(*id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	return closer.Close()
}

func (s *DefaultStorage) Close() error {
	if s.cache != nil {
		s.cache.Purge()
	}
	return s.db.Close()
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
