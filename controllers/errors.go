package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hms-backend/domain"
)

// respondDomainError maps the coordinator's failure taxonomy onto HTTP. Every
// body carries a stable code plus the message with the offending entity id,
// so the frontend can render a specific banner.
func respondDomainError(c *gin.Context, err error) {
	var (
		notFound    *domain.NotFoundError
		invalidRng  *domain.InvalidRangeError
		overlap     *domain.OverlapConflictError
		invalidTr   *domain.InvalidTransitionError
		expired     *domain.ExpiredError
		outOfWindow *domain.OutOfWindowError
		unsettled   *domain.UnsettledUsageError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "error.notFound", "message": err.Error()}})
	case errors.As(err, &invalidRng):
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "error.invalidRange", "message": err.Error()}})
	case errors.As(err, &overlap):
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{"code": "error.overlapConflict", "message": err.Error(), "roomId": overlap.RoomID}})
	case errors.As(err, &invalidTr):
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{"code": "error.invalidTransition", "message": err.Error(), "status": invalidTr.From}})
	case errors.As(err, &expired):
		c.JSON(http.StatusGone, gin.H{"error": gin.H{"code": "error.holdExpired", "message": err.Error()}})
	case errors.As(err, &outOfWindow):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gin.H{"code": "error.outOfWindow", "message": err.Error()}})
	case errors.As(err, &unsettled):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gin.H{"code": "error.unsettledUsage", "message": err.Error(), "usageIds": unsettled.UsageIDs}})
	case strings.HasPrefix(err.Error(), "validation:"):
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "error.validation", "message": strings.TrimSpace(strings.TrimPrefix(err.Error(), "validation:"))}})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "error.internal", "message": "internal server error"}})
	}
}
