package dataset

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type openFunc func(ctx context.Context, name string) (io.ReadCloser, error)

// fileLoader reads the three CSV files through open, which hides whether they
// live on disk or in a bucket.
type fileLoader struct {
	typ   string
	files Files
	open  openFunc
}

func (l *fileLoader) Type() string {
	return l.typ
}

func (l *fileLoader) Load(ctx context.Context) (*Dataset, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("source", l.typ))
	start := time.Now()
	ds := &Dataset{}

	if err := l.read(ctx, l.files.Clicks, func(r io.Reader) error {
		clicks, err := ParseClicks(r)
		ds.Clicks = clicks
		return err
	}); err != nil {
		return nil, err
	}
	if err := l.read(ctx, l.files.Articles, func(r io.Reader) error {
		articles, err := ParseArticles(r)
		ds.Articles = articles
		return err
	}); err != nil {
		return nil, err
	}
	if err := l.read(ctx, l.files.Embeddings, func(r io.Reader) error {
		ids, vectors, err := ParseEmbeddings(r, ds.Articles)
		ds.EmbeddingIDs, ds.Embeddings = ids, vectors
		return err
	}); err != nil {
		return nil, err
	}
	logger.Info("dataset loaded",
		zap.Int("clicks", len(ds.Clicks)),
		zap.Int("articles", len(ds.Articles)),
		zap.Int("embeddings", len(ds.Embeddings)),
		zap.Duration("duration", time.Since(start)),
	)
	return ds, nil
}

func (l *fileLoader) read(ctx context.Context, name string, parse func(io.Reader) error) error {
	rc, err := l.open(ctx, name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	if err := parse(rc); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}
