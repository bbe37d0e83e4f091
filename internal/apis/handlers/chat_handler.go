package handlers

import (
	"errors"
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/services"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the FAQ assistant.
type ChatHandler struct {
	assistantService services.AssistantService
}

func NewChatHandler(assistantService services.AssistantService) *ChatHandler {
	return &ChatHandler{assistantService: assistantService}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req dtos.AssistantChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.New("Invalid request body"))
		return
	}

	response, statusCode, err := h.assistantService.Chat(c.Request.Context(), &req)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), response)
}
