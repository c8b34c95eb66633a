package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

// ServiceCaller is the identity given to callers authenticated by the service key.
const ServiceCaller = "service"

// ServiceKeyAuth authenticates schedulers calling admin routes with the
// x-api-key header. A valid key grants the admin role and skips JWT auth,
// but only on routes under pathPrefix. An empty serviceKey disables it.
func ServiceKeyAuth(serviceKey, pathPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if serviceKey == "" || !strings.HasPrefix(c.FullPath(), pathPrefix) {
			c.Next()
			return
		}

		provided := c.GetHeader("x-api-key")
		if provided == "" {
			c.Next() // No api key provided, let JWT auth decide
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(serviceKey)) != 1 {
			GetLoggerFromCtx(c.Request.Context()).Warn("Invalid service key")
			c.Next()
			return
		}

		withIdentity(c, ServiceCaller, RoleAdmin)
		c.Set("authMethod", "service_key")
		c.Next()
	}
}
