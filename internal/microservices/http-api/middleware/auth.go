package middleware

import (
	"errors"
	"net/http"
	"strings"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// Authenticate resolves a Bearer token to a user and stores it in the context.
// Requests without an Authorization header pass through as anonymous; a header
// that does not resolve is rejected with 401.
func Authenticate(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		// "Bearer <token>"
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, service.ErrAuthentication) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
			return
		}
		c.Next()
	}
}

// AuthOrReadOnly lets anyone read and requires a user for writes.
func AuthOrReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !permission.IsSafeMethod(c.Request.Method) && CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
			return
		}
		c.Next()
	}
}

// RequireAdmin only lets admins and superusers through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		gate(c, permission.IsAdmin(CurrentUser(c)))
	}
}

// AdminOrReadOnly lets anyone read and only admins write. It runs before any
// lookup, so a forbidden write answers 403 even for a missing object.
func AdminOrReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		gate(c, permission.IsAdminOrReadOnly(c.Request.Method, CurrentUser(c)))
	}
}

func gate(c *gin.Context, allowed bool) {
	if allowed {
		c.Next()
		return
	}
	if CurrentUser(c) == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you do not have permission to perform this action"})
}
