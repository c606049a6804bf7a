package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mycontent/internal/service"
)

type statsSource interface {
	Stats() service.Stats
}

// CatalogStatsJob periodically logs catalog size and result cache efficiency.
type CatalogStatsJob struct {
	source statsSource
	last   service.Stats
}

func NewCatalogStatsJob(source statsSource) *CatalogStatsJob {
	return &CatalogStatsJob{source: source}
}

func (j *CatalogStatsJob) Name() string {
	return "catalog_stats"
}

func (j *CatalogStatsJob) Run(ctx context.Context) error {
	if j.source == nil {
		return nil
	}
	st := j.source.Stats()
	hits := st.CacheHits - j.last.CacheHits
	misses := st.CacheMisses - j.last.CacheMisses
	j.last = st
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}
	logutil.GetLogger(ctx).Info("catalog stats",
		zap.Int("users", st.Users),
		zap.Int("clicks", st.Clicks),
		zap.Int("articles", st.Articles),
		zap.Int("embeddings", st.Embeddings),
		zap.Int("dim", st.Dim),
		zap.Int("cache_len", st.CacheLen),
		zap.Int64("cache_hits", hits),
		zap.Int64("cache_misses", misses),
		zap.Float64("cache_hit_rate", hitRate),
	)
	return nil
}
