package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mycontent/internal/dataset"
	"github.com/xxxsen/mycontent/internal/handler"
	"github.com/xxxsen/mycontent/internal/model"
	"github.com/xxxsen/mycontent/internal/service"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ds := &dataset.Dataset{
		Clicks: []model.Click{
			{UserID: 1, ArticleID: 1},
			{UserID: 2, ArticleID: 77},
		},
		Articles: []model.Article{
			{ArticleID: 1, CategoryID: 10, WordsCount: 120, CreatedAtTs: 1500000000000},
			{ArticleID: 2, CategoryID: 20, WordsCount: 220, CreatedAtTs: 1600000000000},
			{ArticleID: 3, CategoryID: 30, WordsCount: 320, CreatedAtTs: 1400000000000},
		},
		EmbeddingIDs: []int64{1, 2, 3},
		Embeddings:   [][]float32{{1, 0}, {0, 1}, {1, 0}},
	}
	engine, err := service.BuildEngine(ds, false)
	require.NoError(t, err)
	svc := service.NewRecommendService(engine, ds.Articles, service.RecommendOptions{DefaultTopK: 5, MaxTopK: 10})

	engineRouter := gin.New()
	handler.RegisterRoutes(engineRouter.Group("/api/v1"), handler.RouterDeps{
		Recommend: handler.NewRecommendHandler(svc),
		Catalog:   handler.NewCatalogHandler(svc),
	})
	return engineRouter
}

type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	var parsed apiResponse
	if strings.HasPrefix(resp.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &parsed))
	}
	return resp, parsed
}

func articleIDs(t *testing.T, raw json.RawMessage) []int64 {
	t.Helper()
	var res model.RecommendationResult
	require.NoError(t, json.Unmarshal(raw, &res))
	ids := make([]int64, 0, len(res.Articles))
	for _, a := range res.Articles {
		ids = append(ids, a.ArticleID)
	}
	return ids
}

func TestRecommendGet(t *testing.T) {
	router := setupRouter(t)

	resp, body := do(t, router, http.MethodGet, "/api/v1/recommendations?user_id=1&top_k=1&order=score", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotEmpty(t, resp.Header().Get("X-Request-Id"))
	require.Equal(t, []int64{3}, articleIDs(t, body.Data))

	resp, body = do(t, router, http.MethodGet, "/api/v1/recommendations?user_id=1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, []int64{2, 3}, articleIDs(t, body.Data))
}

func TestRecommendPost(t *testing.T) {
	router := setupRouter(t)

	resp, body := do(t, router, http.MethodPost, "/api/v1/recommendations", `{"user_id":"1","top_k":1}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, []int64{3}, articleIDs(t, body.Data))

	resp, body = do(t, router, http.MethodPost, "/api/v1/recommendations", `{"user_id":1,"order":"score"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, []int64{3, 2}, articleIDs(t, body.Data))

	resp, _ = do(t, router, http.MethodPost, "/api/v1/recommendations?user_id=1", "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp, body = do(t, router, http.MethodPost, "/api/v1/recommendations", `{"top_k":1}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "invalid", body.Error.Code)

	resp, _ = do(t, router, http.MethodPost, "/api/v1/recommendations", `{not json`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRecommendErrors(t *testing.T) {
	router := setupRouter(t)
	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{name: "missing user", target: "/api/v1/recommendations", status: http.StatusBadRequest, code: "invalid"},
		{name: "non integer user", target: "/api/v1/recommendations?user_id=abc", status: http.StatusBadRequest, code: "invalid"},
		{name: "zero top_k", target: "/api/v1/recommendations?user_id=1&top_k=0", status: http.StatusBadRequest, code: "invalid"},
		{name: "bad top_k", target: "/api/v1/recommendations?user_id=1&top_k=x", status: http.StatusBadRequest, code: "invalid"},
		{name: "bad order", target: "/api/v1/recommendations?user_id=1&order=random", status: http.StatusBadRequest, code: "invalid"},
		{name: "unknown user", target: "/api/v1/recommendations?user_id=999", status: http.StatusNotFound, code: "not_found"},
		{name: "no embedded history", target: "/api/v1/recommendations?user_id=2", status: http.StatusNotFound, code: "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, router, http.MethodGet, tt.target, "")
			require.Equal(t, tt.status, resp.Code)
			require.NotNil(t, body.Error)
			require.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestRecommendExport(t *testing.T) {
	router := setupRouter(t)

	resp, _ := do(t, router, http.MethodGet, "/api/v1/recommendations/export?user_id=1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Header().Get("Content-Disposition"), "recommendations_user_1.csv")
	require.True(t, strings.HasPrefix(resp.Header().Get("Content-Type"), "text/csv"))
	lines := strings.Split(strings.TrimSpace(resp.Body.String()), "\n")
	require.Equal(t, "article_id,category_id,words_count,created_at", lines[0])
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "2,20,220,"))

	resp, _ = do(t, router, http.MethodGet, "/api/v1/recommendations/export?user_id=999", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	router := setupRouter(t)

	resp, body := do(t, router, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &health))
	require.Equal(t, "ok", health["status"])
	require.Equal(t, float64(2), health["users"])
	require.Equal(t, float64(3), health["articles"])

	resp, body = do(t, router, http.MethodGet, "/api/v1/users?limit=1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var users struct {
		Users []int64 `json:"users"`
		Total int     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &users))
	require.Equal(t, []int64{1}, users.Users)
	require.Equal(t, 2, users.Total)

	resp, _ = do(t, router, http.MethodGet, "/api/v1/articles/2", "")
	require.Equal(t, http.StatusOK, resp.Code)
	resp, _ = do(t, router, http.MethodGet, "/api/v1/articles/404", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
	resp, _ = do(t, router, http.MethodGet, "/api/v1/articles/x", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
