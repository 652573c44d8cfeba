package results

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonathan/tailorhire/internal/types"
)

// Default store bounds.
const (
	DefaultStoreSize = 256
	DefaultStoreTTL  = 30 * time.Minute
)

// Store keeps recent results in memory so that the result page, the download
// and the comparison can be served after the optimize request. Entries expire
// after the TTL and are never persisted.
type Store struct {
	cache *expirable.LRU[string, *types.OptimizationResult]
}

// NewStore creates a store holding at most size results for ttl each.
func NewStore(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = DefaultStoreSize
	}
	if ttl <= 0 {
		ttl = DefaultStoreTTL
	}
	return &Store{cache: expirable.NewLRU[string, *types.OptimizationResult](size, nil, ttl)}
}

// Put stores a result and returns its ID.
func (s *Store) Put(result *types.OptimizationResult) string {
	id := uuid.NewString()
	s.cache.Add(id, result)
	return id
}

// Get returns the result for id, if it has not expired.
func (s *Store) Get(id string) (*types.OptimizationResult, bool) {
	return s.cache.Get(id)
}

// Delete drops a result.
func (s *Store) Delete(id string) {
	s.cache.Remove(id)
}

// Len returns the number of live results.
func (s *Store) Len() int {
	return s.cache.Len()
}
