package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mycontent/internal/middleware"
)

type RouterDeps struct {
	Recommend *RecommendHandler
	Catalog   *CatalogHandler
	RateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.Use(middleware.RequestID())
	api.GET("/health", deps.Catalog.Health)

	limited := api.Group("")
	limited.Use(middleware.RateLimit(deps.RateLimit))
	limited.GET("/recommendations", deps.Recommend.Get)
	limited.POST("/recommendations", deps.Recommend.Post)
	limited.GET("/recommendations/export", deps.Recommend.Export)

	api.GET("/users", deps.Catalog.Users)
	api.GET("/articles/:id", deps.Catalog.Article)
}
