package routes

import (
	"pbm-portal/internal/di"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupAuthRoutes(router *gin.Engine) {
	authHandler, err := di.GetAuthHandler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get auth handler")
	}

	// Auth routes
	auth := router.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	protected := router.Group("/api/auth")
	protected.Use(authMiddleware(true))
	{
		protected.GET("/me", authHandler.Me)
		protected.POST("/logout", authHandler.Logout)
	}
}
