package recommend

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mycontent/internal/model"
)

func newTestEngine(t *testing.T, clicks []model.Click, ids []int64, vectors [][]float32, opts ...IndexOption) *Engine {
	t.Helper()
	table, err := NewEmbeddingTable(ids, vectors)
	require.NoError(t, err)
	return NewEngine(NewInteractionIndex(clicks, opts...), table)
}

func TestRecommendUnknownUser(t *testing.T) {
	e := newTestEngine(t,
		[]model.Click{{UserID: 1, ArticleID: 10}},
		[]int64{10, 11},
		[][]float32{{1, 0}, {0, 1}},
	)
	require.Empty(t, e.Recommend(42, 5))
	require.NotNil(t, e.Recommend(42, 5))
}

func TestRecommendUserWithoutEmbeddedClicks(t *testing.T) {
	e := newTestEngine(t,
		[]model.Click{{UserID: 1, ArticleID: 99}, {UserID: 1, ArticleID: 98}},
		[]int64{10, 11},
		[][]float32{{1, 0}, {0, 1}},
	)
	require.Empty(t, e.Recommend(1, 5))
	_, ok := e.Profile(1)
	require.False(t, ok)
}

func TestRecommendMissingEmbeddingIsIgnored(t *testing.T) {
	e := newTestEngine(t,
		[]model.Click{{UserID: 1, ArticleID: 1}, {UserID: 1, ArticleID: 404}},
		[]int64{1, 2, 3},
		[][]float32{{1, 0}, {0, 1}, {1, 0}},
	)
	profile, ok := e.Profile(1)
	require.True(t, ok)
	require.Equal(t, []float64{1, 0}, profile)
	require.Equal(t, []int64{3, 2}, e.Recommend(1, 5))
}

func TestRecommendSingleClickScenario(t *testing.T) {
	e := newTestEngine(t,
		[]model.Click{{UserID: 7, ArticleID: 1}},
		[]int64{1, 2, 3},
		[][]float32{{1, 0}, {0, 1}, {1, 0}},
	)
	profile, ok := e.Profile(7)
	require.True(t, ok)
	require.Equal(t, []float64{1, 0}, profile)

	require.Equal(t, []int64{3}, e.Recommend(7, 1))

	scored := e.RecommendScored(7, 5)
	require.Len(t, scored, 2)
	require.Equal(t, int64(3), scored[0].ArticleID)
	require.InDelta(t, 1.0, scored[0].Score, 1e-12)
	require.Equal(t, int64(2), scored[1].ArticleID)
	require.InDelta(t, 0.0, scored[1].Score, 1e-12)
}

func TestRecommendMeanProfileScenario(t *testing.T) {
	e := newTestEngine(t,
		[]model.Click{{UserID: 1, ArticleID: 1}, {UserID: 1, ArticleID: 2}},
		[]int64{1, 2, 3, 4},
		[][]float32{{1, 0}, {0, 1}, {1, 0}, {1, 1}},
	)
	profile, ok := e.Profile(1)
	require.True(t, ok)
	require.Equal(t, []float64{0.5, 0.5}, profile)

	scored := e.RecommendScored(1, 5)
	require.Len(t, scored, 2)
	require.Equal(t, int64(4), scored[0].ArticleID)
	require.InDelta(t, 1.0, scored[0].Score, 1e-9)
	require.Equal(t, int64(3), scored[1].ArticleID)
	require.InDelta(t, 1/math.Sqrt2, scored[1].Score, 1e-9)
}

func TestRecommendTopKLargerThanCandidates(t *testing.T) {
	e := newTestEngine(t,
		[]model.Click{{UserID: 1, ArticleID: 1}},
		[]int64{1, 2, 3},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
	)
	got := e.Recommend(1, 50)
	require.Len(t, got, 2)
	require.Equal(t, []int64{3, 2}, got)
}

func TestRecommendNonPositiveTopK(t *testing.T) {
	e := newTestEngine(t,
		[]model.Click{{UserID: 1, ArticleID: 1}},
		[]int64{1, 2},
		[][]float32{{1, 0}, {0, 1}},
	)
	require.Empty(t, e.Recommend(1, 0))
	require.Empty(t, e.Recommend(1, -3))
}

func TestRecommendStableTieBreak(t *testing.T) {
	e := newTestEngine(t,
		[]model.Click{{UserID: 1, ArticleID: 1}},
		[]int64{1, 50, 20, 30, 40},
		[][]float32{{1, 0}, {2, 0}, {0, 1}, {3, 0}, {0.5, 0}},
	)
	require.Equal(t, []int64{50, 30, 40, 20}, e.Recommend(1, 10))
}

func TestRecommendZeroVectorScoresZero(t *testing.T) {
	e := newTestEngine(t,
		[]model.Click{{UserID: 1, ArticleID: 1}},
		[]int64{1, 2, 3},
		[][]float32{{1, 0}, {0, 0}, {-1, 0}},
	)
	scored := e.RecommendScored(1, 5)
	require.Equal(t, []ScoredItem{{ArticleID: 2, Score: 0}, {ArticleID: 3, Score: -1}}, scored)
}

func TestRecommendRepeatedClicksWeighProfile(t *testing.T) {
	clicks := []model.Click{
		{UserID: 1, ArticleID: 1},
		{UserID: 1, ArticleID: 1},
		{UserID: 1, ArticleID: 1},
		{UserID: 1, ArticleID: 2},
	}
	ids := []int64{1, 2, 3}
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}

	weighted := newTestEngine(t, clicks, ids, vectors)
	profile, ok := weighted.Profile(1)
	require.True(t, ok)
	require.Equal(t, []float64{0.75, 0.25}, profile)

	deduped := newTestEngine(t, clicks, ids, vectors, WithDedup(true))
	profile, ok = deduped.Profile(1)
	require.True(t, ok)
	require.Equal(t, []float64{0.5, 0.5}, profile)

	require.Equal(t, []int64{3}, weighted.Recommend(1, 5))
	require.Equal(t, []int64{3}, deduped.Recommend(1, 5))
}

func TestRecommendProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const (
		items = 60
		users = 25
		dim   = 8
	)
	ids := make([]int64, items)
	vectors := make([][]float32, items)
	for i := range ids {
		ids[i] = int64(1000 + i)
		vec := make([]float32, dim)
		for d := range vec {
			vec[d] = float32(rng.NormFloat64())
		}
		vectors[i] = vec
	}
	var clicks []model.Click
	for u := 0; u < users; u++ {
		n := rng.Intn(6)
		for k := 0; k < n; k++ {
			// some clicks point outside the embedding table
			clicks = append(clicks, model.Click{UserID: int64(u), ArticleID: int64(995 + rng.Intn(items+10))})
		}
	}
	e := newTestEngine(t, clicks, ids, vectors)

	for u := int64(0); u < users+3; u++ {
		clicked := map[int64]struct{}{}
		for _, id := range e.Index().ItemsClickedBy(u) {
			clicked[id] = struct{}{}
		}
		eligible := 0
		for _, id := range ids {
			if _, ok := clicked[id]; !ok {
				eligible++
			}
		}
		profile, hasProfile := e.Profile(u)
		for _, topK := range []int{1, 3, 5, 100} {
			got := e.Recommend(u, topK)
			require.LessOrEqual(t, len(got), topK)
			require.LessOrEqual(t, len(got), eligible)
			if !hasProfile {
				require.Empty(t, got)
				continue
			}
			require.Len(t, got, min(topK, eligible))
			prev := math.Inf(1)
			for _, id := range got {
				_, seen := clicked[id]
				require.False(t, seen, "user %d got clicked article %d", u, id)
				vec, ok := e.Table().Vector(id)
				require.True(t, ok)
				score := CosineSimilarity(profile, vec)
				require.LessOrEqual(t, score, prev)
				prev = score
			}
			require.Equal(t, got, e.Recommend(u, topK))
		}
	}
}
