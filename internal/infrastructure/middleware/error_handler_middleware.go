package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stagecast/internal/core/domain"
	apperrors "stagecast/pkg/errors"
)

// ErrorHandlerMiddleware translates errors attached via c.Error into JSON
// responses. AppErrors carry their own status and code; known domain
// sentinels get mapped; anything else is a 500 with the detail logged, not
// leaked.
func ErrorHandlerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		if appErr := apperrors.GetAppError(err); appErr != nil {
			logger.Warn("request failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("code", string(appErr.Code)),
				zap.Error(err))
			c.JSON(appErr.HTTPStatus, gin.H{
				"error": appErr.Message,
				"code":  appErr.Code,
			})
			return
		}

		status, message := mapDomainError(err)
		if status != http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": message})
			return
		}

		logger.Error("unhandled error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound, "room not found"
	case errors.Is(err, domain.ErrGuestNotFound):
		return http.StatusNotFound, "guest not found"
	case errors.Is(err, domain.ErrWalletNotFound):
		return http.StatusNotFound, "wallet not found"
	case errors.Is(err, domain.ErrRoomNotLive):
		return http.StatusConflict, "stream is not live"
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient balance"
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid amount"
	default:
		return http.StatusInternalServerError, ""
	}
}

// RecoveryMiddleware converts panics into 500 responses.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
