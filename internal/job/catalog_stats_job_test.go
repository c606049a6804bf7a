package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mycontent/internal/service"
)

type fakeStats struct {
	stats service.Stats
}

func (f *fakeStats) Stats() service.Stats {
	return f.stats
}

func TestCatalogStatsJobTracksDeltas(t *testing.T) {
	src := &fakeStats{stats: service.Stats{Users: 3, CacheHits: 4, CacheMisses: 1}}
	j := NewCatalogStatsJob(src)
	require.Equal(t, "catalog_stats", j.Name())

	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, int64(4), j.last.CacheHits)

	src.stats.CacheHits = 10
	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, int64(10), j.last.CacheHits)
}

func TestCatalogStatsJobNilSource(t *testing.T) {
	require.NoError(t, NewCatalogStatsJob(nil).Run(context.Background()))
}
