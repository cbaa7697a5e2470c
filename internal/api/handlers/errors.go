// server/internal/api/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"freight-marketplace-api-server/internal/services"

	"github.com/gin-gonic/gin"
)

// respondServiceError map lỗi sentinel của tầng services sang HTTP status.
// Mọi handler dùng chung một chỗ để taxonomy lỗi nhất quán trên toàn API.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, services.ErrAlreadyAssigned):
		// Kẻ thua cuộc đua gán thầu: đơn đã thuộc về người khác.
		c.JSON(http.StatusForbidden, gin.H{"error": "Order has already been assigned to another transporter"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
	case errors.Is(err, services.ErrInvalidOperation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
	}
}
