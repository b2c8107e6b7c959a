package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *PebbleArtifactCache {
	t.Helper()

	cache, err := OpenArtifactCache(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, cache.Close()) })

	return cache
}

func TestArtifactCache_PutGetRoundTrip(t *testing.T) {
	cache := openTestCache(t)

	meta := ArtifactMetadata{
		Coordinate: "left-pad",
		Versions:   []string{"1.0.0", "1.3.0"},
		FetchedAt:  time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, cache.Put(meta))

	got, found, err := cache.Get("left-pad")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, meta.Coordinate, got.Coordinate)
	require.Equal(t, meta.Versions, got.Versions)
	require.True(t, meta.FetchedAt.Equal(got.FetchedAt))
}

func TestArtifactCache_MissIsNotAnError(t *testing.T) {
	cache := openTestCache(t)

	_, found, err := cache.Get("unknown")
	require.NoError(t, err)
	require.False(t, found)
}

func TestArtifactCache_PutRequiresCoordinate(t *testing.T) {
	cache := openTestCache(t)

	require.Error(t, cache.Put(ArtifactMetadata{}))
}

func TestArtifactCache_LatestVersionPicksNewest(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Put(ArtifactMetadata{
		Coordinate: "left-pad",
		Versions:   []string{"1.9.0", "1.10.0", "1.2.3"},
	}))

	latest, found, err := cache.LatestVersion("left-pad")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "1.10.0", latest)

	_, found, err = cache.LatestVersion("missing")
	require.NoError(t, err)
	require.False(t, found)
}
