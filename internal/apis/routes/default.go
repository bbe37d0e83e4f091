package routes

import (
	"net/http"
	"pbm-portal/config"
	"pbm-portal/internal/apis/middlewares"
	"pbm-portal/internal/di"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupDefaultRoutes(router *gin.Engine) {
	// Health check route
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "PBM portal API",
		})
	})

	collector, err := di.GetMetricsCollector()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get metrics collector")
	}
	router.GET("/metrics", gin.WrapH(collector.Handler()))

	SetupAuthRoutes(router)
	SetupLookupRoutes(router)
	SetupHistoryRoutes(router)
	SetupHistoricalRoutes(router)
	SetupGatewayRoutes(router)
	SetupChatRoutes(router)
}

// authMiddleware enforces tokens when required is true and otherwise only
// checks the tokens that are sent.
func authMiddleware(required bool) gin.HandlerFunc {
	jwtService, tokenRepo, err := di.GetAuthDependencies()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get auth dependencies")
	}
	return middlewares.AuthMiddleware(jwtService, tokenRepo, required)
}

// portalAuth guards the data routes according to AUTH_REQUIRED.
func portalAuth() gin.HandlerFunc {
	return authMiddleware(config.Env.AuthRequired)
}
