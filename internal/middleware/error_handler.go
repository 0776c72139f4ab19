package middleware

import (
	apiError "canvas-editor/internal/errors"
	"canvas-editor/internal/logger"
	"errors"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler pushed with c.Error as
// {"success": false, "error": message}.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *apiError.APIError
		if !errors.As(err, &apiErr) {
			// raw error we didn't wrap
			apiErr = apiError.Internal(err)
		}

		if apiErr.Status >= 500 {
			logger.Log.Error().Err(apiErr.Internal).Str("path", c.FullPath()).Msg(apiErr.Message)
		} else {
			logger.Log.Info().Err(apiErr.Internal).Int("status", apiErr.Status).Str("path", c.FullPath()).Msg(apiErr.Message)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(apiErr.Status, apiErr)
	}
}
