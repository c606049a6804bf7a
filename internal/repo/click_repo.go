package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/mycontent/internal/model"
	"github.com/xxxsen/mycontent/internal/pkg/dbutil"
)

type ClickRepo struct {
	db Execer
}

func NewClickRepo(db Execer) *ClickRepo {
	return &ClickRepo{db: db}
}

// InsertBatch appends clicks; seq keeps them in log order.
func (r *ClickRepo) InsertBatch(ctx context.Context, clicks []model.Click) error {
	for _, win := range dbutil.Chunks(len(clicks)) {
		rows := make([]map[string]interface{}, 0, win[1]-win[0])
		for _, c := range clicks[win[0]:win[1]] {
			rows = append(rows, map[string]interface{}{
				"user_id":    c.UserID,
				"article_id": c.ArticleID,
			})
		}
		sqlStr, args, err := builder.BuildInsert("clicks", rows)
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *ClickRepo) List(ctx context.Context) ([]model.Click, error) {
	where := map[string]interface{}{"_orderby": "seq asc"}
	sqlStr, args, err := builder.BuildSelect("clicks", where, []string{"user_id", "article_id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	clicks := make([]model.Click, 0, 1024)
	for rows.Next() {
		var c model.Click
		if err := rows.Scan(&c.UserID, &c.ArticleID); err != nil {
			return nil, err
		}
		clicks = append(clicks, c)
	}
	return clicks, rows.Err()
}

func (r *ClickRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM clicks")
	return err
}
