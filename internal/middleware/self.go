package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/survey-api/pkg/errors"
	"github.com/noah-isme/survey-api/pkg/response"
)

// RequireSelf only lets a request through when the path parameter names the caller.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if target := c.Param(param); target == "" || target != claims.UserID {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
