// Package recommend builds user profiles from article embeddings and ranks
// unseen articles by cosine similarity. It does no I/O and never logs; empty
// results stand for "nothing to recommend".
package recommend

import "sort"

const DefaultTopK = 5

type ScoredItem struct {
	ArticleID int64   `json:"article_id"`
	Score     float64 `json:"score"`
}

type Engine struct {
	index *InteractionIndex
	table *EmbeddingTable
}

func NewEngine(index *InteractionIndex, table *EmbeddingTable) *Engine {
	return &Engine{index: index, table: table}
}

func (e *Engine) Index() *InteractionIndex {
	return e.index
}

func (e *Engine) Table() *EmbeddingTable {
	return e.table
}

// Recommend returns at most topK article ids the user has not clicked, most
// similar first.
func (e *Engine) Recommend(userID int64, topK int) []int64 {
	scored := e.RecommendScored(userID, topK)
	ids := make([]int64, 0, len(scored))
	for _, item := range scored {
		ids = append(ids, item.ArticleID)
	}
	return ids
}

// Profile is the mean embedding of the user's clicked articles that have an
// embedding. Repeated clicks count once per occurrence in the index.
func (e *Engine) Profile(userID int64) ([]float64, bool) {
	profile, _ := e.profile(userID)
	return profile, profile != nil
}

func (e *Engine) RecommendScored(userID int64, topK int) []ScoredItem {
	if topK <= 0 {
		return []ScoredItem{}
	}
	profile, clicked := e.profile(userID)
	if profile == nil {
		return []ScoredItem{}
	}
	candidates := make([]ScoredItem, 0, e.table.Len())
	for i, id := range e.table.ids {
		if _, ok := clicked[id]; ok {
			continue
		}
		candidates = append(candidates, ScoredItem{
			ArticleID: id,
			Score:     CosineSimilarity(profile, e.table.vectors[i]),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if topK < len(candidates) {
		candidates = candidates[:topK]
	}
	return candidates
}

func (e *Engine) profile(userID int64) ([]float64, map[int64]struct{}) {
	items := e.index.clicks[userID]
	if len(items) == 0 {
		return nil, nil
	}
	clicked := make(map[int64]struct{}, len(items))
	vectors := make([][]float32, 0, len(items))
	for _, id := range items {
		clicked[id] = struct{}{}
		if vec, ok := e.table.Vector(id); ok {
			vectors = append(vectors, vec)
		}
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return meanVector(vectors, e.table.Dim()), clicked
}
