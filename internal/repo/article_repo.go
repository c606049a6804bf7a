package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/mycontent/internal/model"
	"github.com/xxxsen/mycontent/internal/pkg/dbutil"
	appErr "github.com/xxxsen/mycontent/internal/pkg/errors"
)

var articleFields = []string{"article_id", "category_id", "publisher_id", "words_count", "created_at_ts"}

type ArticleRepo struct {
	db Execer
}

func NewArticleRepo(db Execer) *ArticleRepo {
	return &ArticleRepo{db: db}
}

func (r *ArticleRepo) InsertBatch(ctx context.Context, articles []model.Article) error {
	for _, win := range dbutil.Chunks(len(articles)) {
		rows := make([]map[string]interface{}, 0, win[1]-win[0])
		for _, a := range articles[win[0]:win[1]] {
			rows = append(rows, map[string]interface{}{
				"article_id":    a.ArticleID,
				"category_id":   a.CategoryID,
				"publisher_id":  a.PublisherID,
				"words_count":   a.WordsCount,
				"created_at_ts": a.CreatedAtTs,
			})
		}
		sqlStr, args, err := builder.BuildInsert("articles", rows)
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

func (r *ArticleRepo) List(ctx context.Context) ([]model.Article, error) {
	where := map[string]interface{}{"_orderby": "article_id asc"}
	sqlStr, args, err := builder.BuildSelect("articles", where, articleFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	articles := make([]model.Article, 0, 1024)
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ArticleID, &a.CategoryID, &a.PublisherID, &a.WordsCount, &a.CreatedAtTs); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *ArticleRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM articles")
	return err
}
