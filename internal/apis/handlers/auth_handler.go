package handlers

import (
	"errors"
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/apis/middlewares"
	"pbm-portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	if authService == nil {
		log.Fatal().Msg("Auth service cannot be nil")
	}
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dtos.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.New("Email and password are required"))
		return
	}

	response, statusCode, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), response)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	statusCode, err := h.authService.Logout(c.Request.Context(), middlewares.ClaimsFrom(c))
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.SuccessResponse{Success: true})
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims := middlewares.ClaimsFrom(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, errors.New("Unauthorized"))
		return
	}

	response, statusCode, err := h.authService.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), response)
}
