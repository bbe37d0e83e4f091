package handlers

import (
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/services"

	"github.com/gin-gonic/gin"
)

type HistoricalHandler struct {
	historicalService  services.HistoricalService
	diagnosticsService services.DiagnosticsService
}

func NewHistoricalHandler(historicalService services.HistoricalService, diagnosticsService services.DiagnosticsService) *HistoricalHandler {
	return &HistoricalHandler{
		historicalService:  historicalService,
		diagnosticsService: diagnosticsService,
	}
}

func (h *HistoricalHandler) Query(c *gin.Context) {
	var params dtos.HistoricalQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	response, statusCode, err := h.historicalService.Query(c.Request.Context(), &params)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), response)
}

func (h *HistoricalHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, h.diagnosticsService.Ping())
}

// Diagnose reports the analytical store check. The body is returned on
// failure too so the caller sees which part failed.
func (h *HistoricalHandler) Diagnose(c *gin.Context) {
	response, statusCode, _ := h.diagnosticsService.Diagnose(c.Request.Context())
	c.JSON(int(statusCode), response)
}

func (h *HistoricalHandler) EnvCheck(c *gin.Context) {
	c.JSON(http.StatusOK, h.diagnosticsService.EnvCheck())
}
