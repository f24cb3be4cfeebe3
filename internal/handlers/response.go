package handlers

import (
	"errors"
	"net/http"

	"icash/internal/domain"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps the core error taxonomy onto transport codes:
// validation errors are client errors, everything else is a server error
// reported without store internals.
func RespondServiceError(c *gin.Context, err error) {
	var vErr domain.ValidationError
	if errors.As(err, &vErr) {
		RespondError(c, http.StatusBadRequest, "validation_error", vErr)
		return
	}

	var sErr domain.StorageError
	if errors.As(err, &sErr) {
		RespondError(c, http.StatusInternalServerError, "storage_error", errors.New(sErr.Op+" failed"))
		return
	}

	RespondError(c, http.StatusInternalServerError, "internal_error", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
