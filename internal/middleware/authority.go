package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/internal/service"
)

const authorityModeContextKey = "authority_mode"

// AuthorityMode annotates responses with the dual-authority rollout header.
func AuthorityMode(authoritySvc *service.AuthorityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authoritySvc != nil {
			headers := authoritySvc.Headers()
			if headers.ModeHeader != "" && headers.Mode != "" {
				c.Writer.Header().Set(headers.ModeHeader, string(headers.Mode))
			}
			c.Set(authorityModeContextKey, headers.Mode)
		}
		c.Next()
	}
}

// AuthorityModeFromContext extracts the mode for downstream handlers/tests.
func AuthorityModeFromContext(c *gin.Context) models.AuthorityMode {
	if value, exists := c.Get(authorityModeContextKey); exists {
		if typed, ok := value.(models.AuthorityMode); ok {
			return typed
		}
	}
	return ""
}
