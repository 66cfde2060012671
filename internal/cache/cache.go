package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/config"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
	"go.uber.org/fx"
	"golang.org/x/sync/singleflight"
)

// Key identifies one cached server read. Keys are ordered tuples rendered
// as "feed:42", "post:17" and so on, which also gives prefix invalidation.
type Key string

func NewKey(parts ...any) Key {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprint(p)
	}
	return Key(strings.Join(strs, ":"))
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is the client's query cache: each key holds the latest known value
// of one server read. Mutations never write it in place; they invalidate
// keys so the next read refetches. Concurrent readers of the same key share
// a single in-flight fetch.
type Store struct {
	clock  clockwork.Clock
	ttl    time.Duration
	logger logger.Logger
	group  singleflight.Group

	mu      sync.RWMutex
	entries map[Key]entry
	// gens tracks invalidations per key: a fetch started before an
	// invalidation must not overwrite the fresher state, so its result is
	// returned to the caller but not stored.
	gens map[Key]uint64
}

type Opts struct {
	fx.In

	Clock  clockwork.Clock
	Config *config.Config
	Logger logger.Logger
}

func New(opts Opts) *Store {
	return &Store{
		clock:   opts.Clock,
		ttl:     opts.Config.Cache.TTL,
		logger:  opts.Logger.WithComponent("QueryCache"),
		entries: make(map[Key]entry),
		gens:    make(map[Key]uint64),
	}
}

// GetOrFetch returns the cached value for key, or runs fetch and caches the
// result. At most one fetch per key is in flight; late arrivals share it.
func (s *Store) GetOrFetch(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok && s.clock.Now().Before(e.expiresAt) {
		return e.value, nil
	}

	value, err, _ := s.group.Do(string(key), func() (any, error) {
		s.mu.RLock()
		startGen := s.gens[key]
		s.mu.RUnlock()

		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.gens[key] == startGen {
			s.entries[key] = entry{value: val, expiresAt: s.clock.Now().Add(s.ttl)}
		}
		s.mu.Unlock()
		return val, nil
	})
	return value, err
}

// Invalidate marks the given keys stale so the next read refetches.
func (s *Store) Invalidate(keys ...Key) {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.entries, key)
		s.gens[key]++
	}
	s.mu.Unlock()
	s.logger.Debug("Cache invalidated", "keys", keys)
}

// InvalidatePrefix marks every key sharing the prefix tuple stale.
func (s *Store) InvalidatePrefix(parts ...any) {
	prefix := string(NewKey(parts...))

	s.mu.Lock()
	for key := range s.entries {
		k := string(key)
		if k == prefix || strings.HasPrefix(k, prefix+":") {
			delete(s.entries, key)
			s.gens[key]++
		}
	}
	s.mu.Unlock()
	s.logger.Debug("Cache prefix invalidated", "prefix", prefix)
}

// Sweep evicts expired entries. Run periodically by the janitor job.
func (s *Store) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()
	return removed
}

// Fetch is the typed front of Store.GetOrFetch.
func Fetch[T any](ctx context.Context, s *Store, key Key, fetch func(context.Context) (T, error)) (T, error) {
	value, err := s.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q holds %T", key, value)
	}
	return typed, nil
}
