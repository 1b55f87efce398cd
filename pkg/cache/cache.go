// Package cache provides pluggable byte caches for pipeline artifacts.
//
// The geometry pipeline is deterministic, so every artifact is fully
// described by a hash of its inputs: identical requests can be served
// from cache byte-for-byte. The CLI uses [FileCache], multi-instance
// deployments share a [RedisCache], and [NullCache] disables caching.
package cache

import (
	"context"
	"time"
)

// Cache stores serialized pipeline artifacts.
type Cache interface {
	// Get retrieves a value. The second return value reports a hit;
	// a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// SpecKeyOpts distinguishes geometry specs derived from the same input
// hash.
type SpecKeyOpts struct {
	PlateType string
	Strict    bool
}

// MeshKeyOpts distinguishes meshes assembled from the same spec.
type MeshKeyOpts struct {
	Segments int
	Epsilon  float64
}

// Keyer derives cache keys for the pipeline stages. Implementations
// must be deterministic: equal inputs yield equal keys.
type Keyer interface {
	// SpecKey keys a serialized geometry spec by the hash of the
	// canonical request inputs.
	SpecKey(inputHash string, opts SpecKeyOpts) string

	// MeshKey keys an assembled mesh by the spec document hash.
	MeshKey(specHash string, opts MeshKeyOpts) string
}

// DefaultKeyer hashes inputs into namespaced keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SpecKey generates a key for geometry spec caching.
func (k *DefaultKeyer) SpecKey(inputHash string, opts SpecKeyOpts) string {
	return hashKey("spec", inputHash, opts)
}

// MeshKey generates a key for assembled mesh caching.
func (k *DefaultKeyer) MeshKey(specHash string, opts MeshKeyOpts) string {
	return hashKey("mesh", specHash, opts)
}
