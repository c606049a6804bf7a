package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mycontent/internal/config"
	"github.com/xxxsen/mycontent/internal/model"
	"github.com/xxxsen/mycontent/internal/repo"
)

type postgresLoader struct {
	db         *sql.DB
	clicks     *repo.ClickRepo
	articles   *repo.ArticleRepo
	embeddings *repo.EmbeddingRepo
}

func init() {
	Register("postgres", createPostgresLoader)
}

func createPostgresLoader(args interface{}) (Loader, error) {
	cfg := &config.DatabaseConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" && cfg.Host == "" {
		return nil, fmt.Errorf("postgres dataset requires dsn or host")
	}
	db, err := repo.Open(*cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresLoader(db), nil
}

func NewPostgresLoader(db *sql.DB) Loader {
	return &postgresLoader{
		db:         db,
		clicks:     repo.NewClickRepo(db),
		articles:   repo.NewArticleRepo(db),
		embeddings: repo.NewEmbeddingRepo(db),
	}
}

func (l *postgresLoader) Type() string {
	return "postgres"
}

// Load reads the whole dataset and closes the connection: nothing is queried
// after the cold load.
func (l *postgresLoader) Load(ctx context.Context) (*Dataset, error) {
	defer func() { _ = l.db.Close() }()
	start := time.Now()
	clicks, err := l.clicks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clicks: %w", err)
	}
	articles, err := l.articles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	items, err := l.embeddings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	ds := &Dataset{Clicks: clicks, Articles: articles}
	ds.EmbeddingIDs, ds.Embeddings = splitEmbeddings(items)
	logutil.GetLogger(ctx).Info("dataset loaded",
		zap.String("source", "postgres"),
		zap.Int("clicks", len(ds.Clicks)),
		zap.Int("articles", len(ds.Articles)),
		zap.Int("embeddings", len(ds.Embeddings)),
		zap.Duration("duration", time.Since(start)),
	)
	return ds, nil
}

func splitEmbeddings(items []model.ArticleEmbedding) ([]int64, [][]float32) {
	ids := make([]int64, 0, len(items))
	vectors := make([][]float32, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ArticleID)
		vectors = append(vectors, item.Embedding)
	}
	return ids, vectors
}

// Import replaces the tables behind db with ds. The replacement is atomic: on
// any error the previous contents are kept.
func Import(ctx context.Context, db *sql.DB, ds *Dataset) error {
	items := make([]model.ArticleEmbedding, 0, len(ds.Embeddings))
	for i, id := range ds.EmbeddingIDs {
		items = append(items, model.ArticleEmbedding{ArticleID: id, Position: i, Embedding: ds.Embeddings[i]})
	}
	err := repo.WithTx(ctx, db, func(tx repo.Execer) error {
		clicks := repo.NewClickRepo(tx)
		articles := repo.NewArticleRepo(tx)
		embeddings := repo.NewEmbeddingRepo(tx)
		if err := clicks.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear clicks: %w", err)
		}
		if err := articles.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear articles: %w", err)
		}
		if err := embeddings.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear embeddings: %w", err)
		}
		if err := clicks.InsertBatch(ctx, ds.Clicks); err != nil {
			return fmt.Errorf("insert clicks: %w", err)
		}
		if err := articles.InsertBatch(ctx, ds.Articles); err != nil {
			return fmt.Errorf("insert articles: %w", err)
		}
		if err := embeddings.InsertBatch(ctx, items); err != nil {
			return fmt.Errorf("insert embeddings: %w", err)
		}
		return nil
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("dataset import rolled back", zap.Error(err))
		return err
	}
	logutil.GetLogger(ctx).Info("dataset imported",
		zap.Int("clicks", len(ds.Clicks)),
		zap.Int("articles", len(ds.Articles)),
		zap.Int("embeddings", len(items)),
	)
	return nil
}
