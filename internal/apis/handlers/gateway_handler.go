package handlers

import (
	"errors"
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/services"

	"github.com/gin-gonic/gin"
)

type GatewayHandler struct {
	gatewayService services.GatewayService
}

func NewGatewayHandler(gatewayService services.GatewayService) *GatewayHandler {
	return &GatewayHandler{gatewayService: gatewayService}
}

// Ask answers POST /query-gateway. Every failure uses the {error} envelope.
func (h *GatewayHandler) Ask(c *gin.Context) {
	var req dtos.QueryGatewayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.New("Invalid request body"))
		return
	}

	response, statusCode, err := h.gatewayService.Ask(c.Request.Context(), &req)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), response)
}
