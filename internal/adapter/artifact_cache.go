package adapter

import (
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/vmihailenco/msgpack/v5"
	"reshape.dev/pkg/reshape/internal/domain/recipes"
)

// ArtifactMetadata is what the cache remembers about one artifact: the
// versions seen so far and when they were fetched.
type ArtifactMetadata struct {
	Coordinate string    `msgpack:"coordinate"`
	Versions   []string  `msgpack:"versions"`
	FetchedAt  time.Time `msgpack:"fetchedAt"`
}

// PebbleArtifactCache is a local key-value cache of artifact metadata. It
// implements recipes.VersionSource, so version-upgrading recipes resolve
// against it without any network access during a run.
type PebbleArtifactCache struct {
	db *pebble.DB
}

// OpenArtifactCache opens (or creates) the cache at dir.
func OpenArtifactCache(dir string) (*PebbleArtifactCache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open artifact cache: %w", err)
	}

	return &PebbleArtifactCache{db: db}, nil
}

// Put stores metadata under its coordinate, replacing any previous entry.
func (c *PebbleArtifactCache) Put(meta ArtifactMetadata) error {
	if meta.Coordinate == "" {
		return errors.New("artifact coordinate must not be empty")
	}

	blob, err := msgpack.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode %s: %w", meta.Coordinate, err)
	}

	if err := c.db.Set([]byte(meta.Coordinate), blob, pebble.NoSync); err != nil {
		return fmt.Errorf("cache %s: %w", meta.Coordinate, err)
	}

	return nil
}

// Get returns the metadata stored under coordinate, reporting a miss without
// error.
func (c *PebbleArtifactCache) Get(coordinate string) (ArtifactMetadata, bool, error) {
	value, closer, err := c.db.Get([]byte(coordinate))
	if errors.Is(err, pebble.ErrNotFound) {
		return ArtifactMetadata{}, false, nil
	}

	if err != nil {
		return ArtifactMetadata{}, false, fmt.Errorf("read %s: %w", coordinate, err)
	}

	blob := make([]byte, len(value))
	copy(blob, value)

	if err := closer.Close(); err != nil {
		return ArtifactMetadata{}, false, fmt.Errorf("read %s: %w", coordinate, err)
	}

	var meta ArtifactMetadata
	if err := msgpack.Unmarshal(blob, &meta); err != nil {
		return ArtifactMetadata{}, false, fmt.Errorf("decode %s: %w", coordinate, err)
	}

	return meta, true, nil
}

// LatestVersion implements recipes.VersionSource: the newest cached version
// of the artifact, or a miss when the artifact is unknown.
func (c *PebbleArtifactCache) LatestVersion(artifact string) (string, bool, error) {
	meta, found, err := c.Get(artifact)
	if err != nil || !found || len(meta.Versions) == 0 {
		return "", false, err
	}

	latest := meta.Versions[0]
	for _, v := range meta.Versions[1:] {
		if recipes.CompareVersions(v, latest) > 0 {
			latest = v
		}
	}

	return latest, true, nil
}

// Close releases the underlying store.
func (c *PebbleArtifactCache) Close() error {
	return c.db.Close()
}
