package handlers

import (
	"pbm-portal/internal/services"

	"github.com/gin-gonic/gin"
)

type LookupHandler struct {
	lookupService services.LookupService
}

func NewLookupHandler(lookupService services.LookupService) *LookupHandler {
	return &LookupHandler{lookupService: lookupService}
}

func (h *LookupHandler) Pharmacies(c *gin.Context) {
	response, statusCode, err := h.lookupService.SearchPharmacies(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), response)
}

func (h *LookupHandler) Medications(c *gin.Context) {
	response, statusCode, err := h.lookupService.SearchMedications(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), response)
}
