package repo

import (
	"context"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/mycontent/internal/model"
	"github.com/xxxsen/mycontent/internal/pkg/dbutil"
	appErr "github.com/xxxsen/mycontent/internal/pkg/errors"
)

type EmbeddingRepo struct {
	db Execer
}

func NewEmbeddingRepo(db Execer) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

func (r *EmbeddingRepo) InsertBatch(ctx context.Context, items []model.ArticleEmbedding) error {
	for _, win := range dbutil.Chunks(len(items)) {
		rows := make([]map[string]interface{}, 0, win[1]-win[0])
		for _, item := range items[win[0]:win[1]] {
			rows = append(rows, map[string]interface{}{
				"article_id": item.ArticleID,
				"position":   item.Position,
				"embedding":  pgvector.NewVector(item.Embedding),
			})
		}
		sqlStr, args, err := builder.BuildInsert("article_embeddings", rows)
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
			if dbutil.IsConflict(err) {
				return appErr.ErrConflict
			}
			return err
		}
	}
	return nil
}

// List returns embeddings in their original load order.
func (r *EmbeddingRepo) List(ctx context.Context) ([]model.ArticleEmbedding, error) {
	where := map[string]interface{}{"_orderby": "position asc"}
	sqlStr, args, err := builder.BuildSelect("article_embeddings", where, []string{"article_id", "position", "embedding"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.ArticleEmbedding, 0, 1024)
	for rows.Next() {
		var (
			item model.ArticleEmbedding
			vec  pgvector.Vector
		)
		if err := rows.Scan(&item.ArticleID, &item.Position, &vec); err != nil {
			return nil, err
		}
		item.Embedding = vec.Slice()
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *EmbeddingRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM article_embeddings")
	return err
}
