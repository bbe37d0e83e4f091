package routes

import (
	"pbm-portal/internal/di"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupLookupRoutes(router *gin.Engine) {
	lookupHandler, err := di.GetLookupHandler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get lookup handler")
	}

	api := router.Group("/api")
	{
		api.GET("/pharmacies", lookupHandler.Pharmacies)
		api.GET("/medications", lookupHandler.Medications)
	}
}

func SetupHistoryRoutes(router *gin.Engine) {
	historyHandler, err := di.GetHistoryHandler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get history handler")
	}

	history := router.Group("/api/history")
	history.Use(portalAuth())
	{
		history.GET("", historyHandler.List)
		history.POST("", historyHandler.Create)
		history.POST("/void", historyHandler.Void)
	}
}

func SetupHistoricalRoutes(router *gin.Engine) {
	historicalHandler, err := di.GetHistoricalHandler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get historical handler")
	}

	// Diagnostics stay reachable without a token.
	router.GET("/api/historical/ping", historicalHandler.Ping)
	router.GET("/api/historical/diagnose", historicalHandler.Diagnose)
	router.GET("/api/env-check", historicalHandler.EnvCheck)

	router.GET("/api/historical/query", portalAuth(), historicalHandler.Query)
}
