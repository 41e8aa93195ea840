package rest

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schemaforge/backend/pkg/auth"
	"github.com/schemaforge/backend/pkg/constants"
	"github.com/schemaforge/backend/pkg/errors"
)

// GetUserFromContext extracts the authenticated user from gin.Context
func GetUserFromContext(c *gin.Context) *auth.UserSession {
	userInterface, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil
	}

	user := userInterface.(auth.UserSession)
	return &user
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	errorCode := errors.GetErrorCode(err)
	message := err.Error()

	if code >= 500 {
		log.Printf("❌ ERROR [%d] %s %s: %s", code, c.Request.Method, c.Request.URL.Path, message)
	}

	c.JSON(code, gin.H{
		constants.ResponseError: message,
		constants.FieldMessage:  message,
		"code":                  errorCode,
	})
}

// RespondError sends a plain error response with an explicit status
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		constants.ResponseError: message,
		constants.FieldMessage:  message,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// RespondOK sends a 200 response with the given payload
func RespondOK(c *gin.Context, payload gin.H) {
	c.JSON(http.StatusOK, payload)
}
