package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mycontent/internal/dataset"
	"github.com/xxxsen/mycontent/internal/model"
	appErr "github.com/xxxsen/mycontent/internal/pkg/errors"
	"github.com/xxxsen/mycontent/internal/recommend"
)

const (
	OrderRecent = "recent"
	OrderScore  = "score"

	createdAtLayout = "2006-01-02 15:04:05"
)

type RecommendOptions struct {
	DefaultTopK int
	MaxTopK     int
	CacheSize   int
	CacheTTL    time.Duration
}

type Stats struct {
	Users       int   `json:"users"`
	Clicks      int   `json:"clicks"`
	Articles    int   `json:"articles"`
	Embeddings  int   `json:"embeddings"`
	Dim         int   `json:"dim"`
	CacheLen    int   `json:"cache_len"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

// RecommendService turns engine output into presentable results: article
// metadata, presentation order, CSV export. Engine results are cached per
// (user, top_k) since the backing data never changes.
type RecommendService struct {
	engine      *recommend.Engine
	articles    map[int64]model.Article
	cache       *expirable.LRU[string, []recommend.ScoredItem]
	defaultTopK int
	maxTopK     int
	hits        atomic.Int64
	misses      atomic.Int64
}

// BuildEngine freezes a loaded dataset into the index and embedding table.
func BuildEngine(ds *dataset.Dataset, dedup bool) (*recommend.Engine, error) {
	table, err := recommend.NewEmbeddingTable(ds.EmbeddingIDs, ds.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("build embedding table: %w", err)
	}
	index := recommend.NewInteractionIndex(ds.Clicks, recommend.WithDedup(dedup))
	return recommend.NewEngine(index, table), nil
}

func NewRecommendService(engine *recommend.Engine, articles []model.Article, opts RecommendOptions) *RecommendService {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = recommend.DefaultTopK
	}
	if opts.MaxTopK < opts.DefaultTopK {
		opts.MaxTopK = opts.DefaultTopK
	}
	s := &RecommendService{
		engine:      engine,
		articles:    make(map[int64]model.Article, len(articles)),
		defaultTopK: opts.DefaultTopK,
		maxTopK:     opts.MaxTopK,
	}
	for _, a := range articles {
		s.articles[a.ArticleID] = a
	}
	if opts.CacheSize > 0 && opts.CacheTTL > 0 {
		s.cache = expirable.NewLRU[string, []recommend.ScoredItem](opts.CacheSize, nil, opts.CacheTTL)
	}
	return s
}

// ResolveTopK applies the default for 0 and clamps to the configured maximum.
func (s *RecommendService) ResolveTopK(topK int) (int, error) {
	switch {
	case topK == 0:
		return s.defaultTopK, nil
	case topK < 0:
		return 0, fmt.Errorf("top_k must be positive: %w", appErr.ErrInvalid)
	case topK > s.maxTopK:
		return s.maxTopK, nil
	}
	return topK, nil
}

func (s *RecommendService) Recommend(ctx context.Context, userID int64, topK int, order string) (*model.RecommendationResult, error) {
	if order == "" {
		order = OrderRecent
	}
	if order != OrderRecent && order != OrderScore {
		return nil, fmt.Errorf("unknown order %q: %w", order, appErr.ErrInvalid)
	}
	k, err := s.ResolveTopK(topK)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.Int64("user_id", userID), zap.Int("top_k", k))
	scored := s.scored(ctx, userID, k)
	if len(scored) == 0 {
		logger.Info("no recommendation for user", zap.Bool("known_user", s.engine.Index().Has(userID)))
		return nil, appErr.ErrNotFound
	}
	items := make([]model.RecommendedArticle, 0, len(scored))
	for i, item := range scored {
		rec := model.RecommendedArticle{ArticleID: item.ArticleID, Rank: i + 1, Score: item.Score}
		if a, ok := s.articles[item.ArticleID]; ok {
			rec.CategoryID = a.CategoryID
			rec.PublisherID = a.PublisherID
			rec.WordsCount = a.WordsCount
			rec.CreatedAt = a.CreatedAt().Format(createdAtLayout)
			rec.HasMetadata = true
		}
		items = append(items, rec)
	}
	if order == OrderRecent {
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			if a.HasMetadata != b.HasMetadata {
				return a.HasMetadata
			}
			return s.articles[a.ArticleID].CreatedAtTs > s.articles[b.ArticleID].CreatedAtTs
		})
	}
	logger.Info("recommendation served", zap.Int("count", len(items)), zap.String("order", order))
	return &model.RecommendationResult{UserID: userID, TopK: k, Order: order, Articles: items}, nil
}

func (s *RecommendService) scored(ctx context.Context, userID int64, topK int) []recommend.ScoredItem {
	if s.cache == nil {
		return s.engine.RecommendScored(userID, topK)
	}
	key := strconv.FormatInt(userID, 10) + ":" + strconv.Itoa(topK)
	if cached, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		logutil.GetLogger(ctx).Debug("recommendation cache hit", zap.Int64("user_id", userID))
		return cached
	}
	s.misses.Add(1)
	res := s.engine.RecommendScored(userID, topK)
	s.cache.Add(key, res)
	return res
}

// ExportCSV writes the recommendation in the tabular download format.
func (s *RecommendService) ExportCSV(ctx context.Context, userID int64, topK int, w io.Writer) error {
	res, err := s.Recommend(ctx, userID, topK, OrderRecent)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"article_id", "category_id", "words_count", "created_at"}); err != nil {
		return err
	}
	for _, item := range res.Articles {
		if err := cw.Write([]string{
			strconv.FormatInt(item.ArticleID, 10),
			strconv.FormatInt(item.CategoryID, 10),
			strconv.FormatInt(item.WordsCount, 10),
			item.CreatedAt,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ListUsers pages through the users that have click history.
func (s *RecommendService) ListUsers(ctx context.Context, offset, limit int) ([]int64, int) {
	_ = ctx
	users := s.engine.Index().Users()
	total := len(users)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return users[offset:end], total
}

func (s *RecommendService) GetArticle(ctx context.Context, articleID int64) (*model.Article, error) {
	_ = ctx
	a, ok := s.articles[articleID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &a, nil
}

func (s *RecommendService) Stats() Stats {
	st := Stats{
		Users:       s.engine.Index().Len(),
		Clicks:      s.engine.Index().Clicks(),
		Articles:    len(s.articles),
		Embeddings:  s.engine.Table().Len(),
		Dim:         s.engine.Table().Dim(),
		CacheHits:   s.hits.Load(),
		CacheMisses: s.misses.Load(),
	}
	if s.cache != nil {
		st.CacheLen = s.cache.Len()
	}
	return st
}
