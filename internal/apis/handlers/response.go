package handlers

import (
	"pbm-portal/internal/apis/dtos"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, statusCode uint32, err error) {
	c.JSON(int(statusCode), dtos.ErrorResponse{Error: err.Error()})
}
