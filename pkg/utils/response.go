package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// apiEnvelope is the JSON shape of every response from this backend.
type apiEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SuccessResponse sends data wrapped in the standard envelope.
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, apiEnvelope{Success: true, Data: data})
}

// CreatedResponse sends data with a 201 for newly created resources.
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, apiEnvelope{Success: true, Data: data})
}

// MessageResponse sends a success envelope carrying only a message.
func MessageResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, apiEnvelope{Success: true, Message: message})
}

// ErrorResponse sends a failure envelope with the given status code.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, apiEnvelope{Success: false, Error: message})
}
