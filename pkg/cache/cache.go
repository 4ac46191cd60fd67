// Package cache stores rendered diagram artifacts.
//
// Layout and rendering are cheap and deterministic, so caching is never
// required for correctness; it saves rasterization work when the same
// configuration is exported repeatedly (the CLI's batch runs and the preview
// server's export endpoint).
//
// Implementations:
//   - [NullCache]: stores nothing (caching disabled)
//   - [FileCache]: JSON entries under a local directory, for the CLI
//   - [RedisCache]: shared entries in Redis, for server deployments
//
// Keys are built by a [Keyer] from the SHA-256 of the canonical configuration
// and the artifact options, so any change to either produces a new key.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values. Artifacts are pure functions of their key,
// so they only expire to bound storage.
const (
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// ArtifactKeyOpts holds the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Prolog bool    `json:"prolog,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey returns the key of one rendered format of a configuration.
	ArtifactKey(configHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds unprefixed keys of the form "artifact:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key builder.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey generates a key for artifact caching.
func (DefaultKeyer) ArtifactKey(configHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", configHash, opts)
}
