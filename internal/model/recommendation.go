package model

type RecommendedArticle struct {
	ArticleID   int64   `json:"article_id"`
	CategoryID  int64   `json:"category_id"`
	PublisherID int64   `json:"publisher_id"`
	WordsCount  int64   `json:"words_count"`
	CreatedAt   string  `json:"created_at,omitempty"`
	Rank        int     `json:"rank"`
	Score       float64 `json:"score"`
	HasMetadata bool    `json:"has_metadata"`
}

type RecommendationResult struct {
	UserID   int64                `json:"user_id"`
	TopK     int                  `json:"top_k"`
	Order    string               `json:"order"`
	Articles []RecommendedArticle `json:"articles"`
}
