package handlers

import (
	"errors"
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/services"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	historyService services.HistoryService
}

func NewHistoryHandler(historyService services.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

func (h *HistoryHandler) List(c *gin.Context) {
	response, statusCode, err := h.historyService.List(c.Request.Context(), c.Query("pharmacyCode"))
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), response)
}

func (h *HistoryHandler) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, errors.New("Invalid data"))
		return
	}

	response, statusCode, err := h.historyService.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), response)
}

func (h *HistoryHandler) Void(c *gin.Context) {
	var req dtos.VoidHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.New("Missing id or reason"))
		return
	}

	response, statusCode, err := h.historyService.Void(c.Request.Context(), &req)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), response)
}
