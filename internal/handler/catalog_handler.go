package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mycontent/internal/pkg/response"
	"github.com/xxxsen/mycontent/internal/service"
)

type CatalogHandler struct {
	recommender *service.RecommendService
}

func NewCatalogHandler(recommender *service.RecommendService) *CatalogHandler {
	return &CatalogHandler{recommender: recommender}
}

func (h *CatalogHandler) Health(c *gin.Context) {
	st := h.recommender.Stats()
	response.Success(c, gin.H{
		"status":   "ok",
		"users":    st.Users,
		"articles": st.Embeddings,
		"dim":      st.Dim,
	})
}

func (h *CatalogHandler) Users(c *gin.Context) {
	offset, err := parseOptionalInt("offset", c.Query("offset"))
	if err != nil {
		handleError(c, err)
		return
	}
	limit, err := parseOptionalInt("limit", c.Query("limit"))
	if err != nil {
		handleError(c, err)
		return
	}
	users, total := h.recommender.ListUsers(c.Request.Context(), offset, limit)
	response.Success(c, gin.H{"users": users, "total": total})
}

func (h *CatalogHandler) Article(c *gin.Context) {
	id, err := parseID("id", c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	article, err := h.recommender.GetArticle(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"article":    article,
		"created_at": article.CreatedAt(),
	})
}
