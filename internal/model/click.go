package model

// Click is a single interaction record from the click log.
type Click struct {
	UserID    int64 `json:"user_id"`
	ArticleID int64 `json:"article_id"`
}
