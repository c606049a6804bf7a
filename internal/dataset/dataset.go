// Package dataset loads the click log, article metadata and article
// embeddings from a pluggable source.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/mycontent/internal/config"
	"github.com/xxxsen/mycontent/internal/model"
)

const (
	defaultClicksFile     = "clicks_sample.csv"
	defaultArticlesFile   = "articles_metadata.csv"
	defaultEmbeddingsFile = "articles_embeddings.csv"
)

type Dataset struct {
	Clicks       []model.Click
	Articles     []model.Article
	EmbeddingIDs []int64
	Embeddings   [][]float32
}

type Loader interface {
	Type() string
	Load(ctx context.Context) (*Dataset, error)
}

type Factory func(args interface{}) (Loader, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.DatasetConfig) (Loader, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("dataset.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported dataset type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

// Files names the three dataset files inside a directory or bucket prefix.
type Files struct {
	Clicks     string `json:"clicks_file"`
	Articles   string `json:"articles_file"`
	Embeddings string `json:"embeddings_file"`
}

func (f *Files) applyDefaults() {
	if f.Clicks == "" {
		f.Clicks = defaultClicksFile
	}
	if f.Articles == "" {
		f.Articles = defaultArticlesFile
	}
	if f.Embeddings == "" {
		f.Embeddings = defaultEmbeddingsFile
	}
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("dataset config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode dataset config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode dataset config: %w", err)
	}
	return nil
}
