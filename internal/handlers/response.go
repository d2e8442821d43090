// Package handlers exposes the engine over HTTP. Every response uses one
// JSON envelope; error kinds map to status codes through kgerr.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Timestamp string    `json:"timestamp"`
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func RespondOK(c *gin.Context, data any) {
	RespondStatus(c, http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data any) {
	RespondStatus(c, http.StatusCreated, data)
}

func RespondStatus(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data, Timestamp: timestamp()})
}

func RespondError(c *gin.Context, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(kgerr.HTTPStatus(err), Envelope{
		Success:   false,
		Error:     &APIError{Code: string(kgerr.KindOf(err)), Message: msg},
		Timestamp: timestamp(),
	})
}

// RespondBindError wraps a request decode failure as a validation error.
func RespondBindError(c *gin.Context, op string, err error) {
	RespondError(c, kgerr.Wrap(kgerr.KindValidation, op, "invalid request body", err))
}
