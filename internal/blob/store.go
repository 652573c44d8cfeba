// Package blob keeps short-lived binary resources, such as uploaded resume
// previews, addressable by URL until they are released.
//
// Every Create must be paired with a Release once the resource is replaced or
// no longer shown. Entries that are never released expire after the TTL.
package blob

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// URLPrefix is the path under which blobs are served.
const URLPrefix = "/blobs/"

// Default store bounds.
const (
	DefaultSize = 128
	DefaultTTL  = 15 * time.Minute
)

// Blob is a binary resource held in memory.
type Blob struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// URL returns the path serving the blob.
func (b *Blob) URL() string {
	return URLPrefix + b.ID
}

// Size returns the blob length in bytes.
func (b *Blob) Size() int64 {
	return int64(len(b.Data))
}

// Store holds blobs until they are released or expire.
type Store struct {
	cache *expirable.LRU[string, *Blob]
}

// NewStore creates a store holding at most size blobs for ttl each.
func NewStore(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	onEvict := func(id string, b *Blob) {
		log.Debug().Str("blob_id", id).Str("filename", b.Filename).Msg("blob released")
	}
	return &Store{cache: expirable.NewLRU[string, *Blob](size, onEvict, ttl)}
}

// Create registers data and returns the new blob.
func (s *Store) Create(data []byte, filename, contentType string) *Blob {
	b := &Blob{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		CreatedAt:   time.Now(),
	}
	s.cache.Add(b.ID, b)
	return b
}

// Replace releases previousID, if any, before creating the new blob.
func (s *Store) Replace(previousID string, data []byte, filename, contentType string) *Blob {
	if previousID != "" {
		s.Release(previousID)
	}
	return s.Create(data, filename, contentType)
}

// Get returns a live blob.
func (s *Store) Get(id string) (*Blob, bool) {
	if id == "" {
		return nil, false
	}
	return s.cache.Get(id)
}

// Release drops the blob. It reports whether the blob was still live.
func (s *Store) Release(id string) bool {
	if id == "" {
		return false
	}
	return s.cache.Remove(id)
}

// Len returns the number of live blobs.
func (s *Store) Len() int {
	return s.cache.Len()
}
