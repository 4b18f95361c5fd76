package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yishak-cs/wardrobe/internal/apperr"
)

// APIError is the body of every error response
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: message, Code: code}})
}

// respondErr maps err to its status and code. Server-side failures get a generic message;
// the cause is logged by the request logger.
func respondErr(c *gin.Context, err error) {
	status := apperr.StatusOf(err)
	code := apperr.CodeOf(err)
	_ = c.Error(err)

	message := err.Error()
	switch code {
	case apperr.CodePersistence:
		message = "Storage is temporarily unavailable, please try again"
	case apperr.CodeExternalService:
		message = "The styling service could not answer, please try again"
	case "":
		code = "INTERNAL"
		if status == http.StatusInternalServerError {
			message = "Internal server error"
		}
	}
	respondError(c, status, code, message)
}
