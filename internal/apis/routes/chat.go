package routes

import (
	"pbm-portal/internal/di"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupGatewayRoutes(router *gin.Engine) {
	gatewayHandler, err := di.GetGatewayHandler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get gateway handler")
	}

	router.POST("/query-gateway", portalAuth(), gatewayHandler.Ask)
	router.POST("/api/historical/chat", portalAuth(), gatewayHandler.Ask)
}

func SetupChatRoutes(router *gin.Engine) {
	chatHandler, err := di.GetChatHandler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get chat handler")
	}

	router.POST("/api/chat", portalAuth(), chatHandler.Chat)
}
