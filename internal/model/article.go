package model

import "time"

type Article struct {
	ArticleID   int64 `json:"article_id"`
	CategoryID  int64 `json:"category_id"`
	PublisherID int64 `json:"publisher_id"`
	WordsCount  int64 `json:"words_count"`
	CreatedAtTs int64 `json:"created_at_ts"`
}

// CreatedAt converts the millisecond publish timestamp.
func (a Article) CreatedAt() time.Time {
	return time.UnixMilli(a.CreatedAtTs).UTC()
}

type ArticleEmbedding struct {
	ArticleID int64     `json:"article_id"`
	Position  int       `json:"position"`
	Embedding []float32 `json:"embedding"`
}
