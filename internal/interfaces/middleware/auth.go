package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/schemaforge/backend/internal/application/services"
	"github.com/schemaforge/backend/pkg/auth"
	"github.com/schemaforge/backend/pkg/constants"
)

// RequireAuth is a middleware that validates JWT tokens
func RequireAuth(authSvc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				constants.ResponseError: "Unauthorized",
				constants.FieldMessage:  "No authorization token provided",
				"code":                  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		// Extract token (format: "Bearer <token>")
		if !strings.HasPrefix(authHeader, constants.BearerPrefix) {
			c.JSON(http.StatusUnauthorized, gin.H{
				constants.ResponseError: "Unauthorized",
				constants.FieldMessage:  "Invalid authorization header format",
				"code":                  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, constants.BearerPrefix)

		// Validate token and session via AuthService
		claims, err := authSvc.ValidateSession(c.Request.Context(), tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				constants.ResponseError: "Unauthorized",
				constants.FieldMessage:  err.Error(),
				"code":                  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		// Update last activity (fire and forget)
		authSvc.TouchSession(claims.RegisteredClaims.ID)

		c.Set(constants.ContextKeyUser, claims.User)
		c.Set(constants.ContextKeyToken, tokenString)

		c.Next()
	}
}

// RequireAdmin checks if the user is an administrator
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userInterface, exists := c.Get(constants.ContextKeyUser)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				constants.ResponseError: "Unauthorized",
				constants.FieldMessage:  "User not authenticated",
				"code":                  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		user := userInterface.(auth.UserSession)
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				constants.ResponseError: "Forbidden",
				constants.FieldMessage:  "Only administrators can access this resource",
				"code":                  "FORBIDDEN",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
