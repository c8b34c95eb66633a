package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/supply_chain_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// summaryHeaders are the artifact response headers copied into download events.
var summaryHeaders = []string{
	"X-Total-Transactions",
	"X-Geojson-Merged-Transactions",
	"X-Geojson-Failed-Transactions",
	"X-Custom-Location-File-Transactions",
	"X-No-Location-File-Transactions",
}

// PosthogMiddleware tracks successful chain requests with PostHog. Event
// names derive from the route, e.g. "api_v1_transactions_:transactionID_chain_csv".
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if posthogClient == nil || !posthogClient.IsInitialized() {
			c.Next()
			return
		}

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		userID, exists := GetUserIDFromContext(c)
		if !exists {
			return
		}
		eventName := strings.ReplaceAll(strings.TrimPrefix(c.FullPath(), "/"), "/", "_")
		if eventName == "" {
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"status_code": c.Writer.Status(),
		}
		for _, param := range c.Params {
			props[param.Key] = param.Value
		}
		for _, h := range summaryHeaders {
			if v := c.Writer.Header().Get(h); v != "" {
				props[strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(h, "X-"), "-", "_"))] = v
			}
		}

		posthogClient.Enqueue(userID, eventName, props)
	}
}
