package api

import (
	"github.com/Ammarkarimi/plagarism-detector/internal/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, analyses Analyses, rateLimiter *RateLimiter) *gin.Engine {
	router := gin.New()

	handler := NewHandler(analyses, cfg.MaxUploadBytes, cfg.AnalysisTimeout)

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(CORSMiddleware(cfg.CORSOrigins))
	router.Use(ErrorHandlerMiddleware())

	router.GET("/health", handler.Health)

	// the original unversioned contract
	router.POST("/check-plagiarism", RateLimitMiddleware(rateLimiter), handler.CheckPlagiarism)

	api := router.Group("/api/v1")
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/check-plagiarism", handler.CheckPlagiarism)
		api.GET("/analyses/:id", handler.GetAnalysis)
	}

	return router
}
