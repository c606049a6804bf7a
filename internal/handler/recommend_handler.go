package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErr "github.com/xxxsen/mycontent/internal/pkg/errors"
	"github.com/xxxsen/mycontent/internal/pkg/response"
	"github.com/xxxsen/mycontent/internal/service"
)

type RecommendHandler struct {
	recommender *service.RecommendService
}

func NewRecommendHandler(recommender *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{recommender: recommender}
}

// idValue accepts both 12 and "12" in JSON bodies.
type idValue string

func (v *idValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = idValue(s)
		return nil
	}
	*v = idValue(data)
	return nil
}

type recommendRequest struct {
	UserID idValue `json:"user_id"`
	TopK   idValue `json:"top_k"`
	Order  string  `json:"order"`
}

type recommendQuery struct {
	userID int64
	topK   int
	order  string
}

func parseTopK(raw string) (int, error) {
	topK, err := parseOptionalInt("top_k", raw)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(raw) != "" && topK <= 0 {
		return 0, fmt.Errorf("top_k must be positive: %w", appErr.ErrInvalid)
	}
	return topK, nil
}

func (h *RecommendHandler) parseQuery(c *gin.Context, body *recommendRequest) (*recommendQuery, error) {
	rawUser := c.Query("user_id")
	rawTopK := c.Query("top_k")
	order := c.Query("order")
	if body != nil {
		if rawUser == "" {
			rawUser = string(body.UserID)
		}
		if rawTopK == "" {
			rawTopK = string(body.TopK)
		}
		if order == "" {
			order = body.Order
		}
	}
	userID, err := parseID("user_id", rawUser)
	if err != nil {
		return nil, err
	}
	topK, err := parseTopK(rawTopK)
	if err != nil {
		return nil, err
	}
	return &recommendQuery{userID: userID, topK: topK, order: strings.ToLower(strings.TrimSpace(order))}, nil
}

func (h *RecommendHandler) Get(c *gin.Context) {
	q, err := h.parseQuery(c, nil)
	if err != nil {
		handleError(c, err)
		return
	}
	h.serve(c, q)
}

func (h *RecommendHandler) Post(c *gin.Context) {
	var req recommendRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && c.Query("user_id") == "" {
			response.Error(c, http.StatusBadRequest, "invalid", "invalid request body")
			return
		}
	}
	q, err := h.parseQuery(c, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	h.serve(c, q)
}

func (h *RecommendHandler) serve(c *gin.Context, q *recommendQuery) {
	res, err := h.recommender.Recommend(c.Request.Context(), q.userID, q.topK, q.order)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "not_found", "no recommendation found for user")
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *RecommendHandler) Export(c *gin.Context) {
	q, err := h.parseQuery(c, nil)
	if err != nil {
		handleError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.recommender.ExportCSV(c.Request.Context(), q.userID, q.topK, &buf); err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "not_found", "no recommendation found for user")
			return
		}
		handleError(c, err)
		return
	}
	response.CSV(c, fmt.Sprintf("recommendations_user_%d.csv", q.userID), buf.Bytes())
}
