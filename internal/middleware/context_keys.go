package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey = contextKey("userID")
	roleKey   = contextKey("role")
)

// RoleAdmin is the role claim required by the admin routes.
const RoleAdmin = "admin"

// GetUserIDFromContext retrieves the authenticated party ID from the Gin context.
// It returns the ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, ok := c.Request.Context().Value(userIDKey).(string); ok && userID != "" {
		return userID, true
	}
	userID := c.GetString(string(userIDKey))
	return userID, userID != ""
}

// GetRoleFromContext retrieves the caller's role claim.
func GetRoleFromContext(c *gin.Context) string {
	if role, ok := c.Request.Context().Value(roleKey).(string); ok {
		return role
	}
	return c.GetString(string(roleKey))
}

// withIdentity stores the caller identity in the request context and
// enriches the request logger with it.
func withIdentity(c *gin.Context, userID, role string) {
	ctx := context.WithValue(c.Request.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, roleKey, role)
	logger := GetLoggerFromCtx(ctx).With("user_id", userID, "role", role)
	c.Request = c.Request.WithContext(WithLogger(ctx, logger))
}
