package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope status values. Binary downloads (the results workbook) and the
// event stream bypass the envelope; every JSON response uses it.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// APIResponse describes the standard envelope returned by the API.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success sends a successful response using the shared envelope format.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	payload := APIResponse{
		Status:  statusSuccess,
		Message: message,
		Data:    data,
	}
	return c.JSON(status, payload)
}

// Error sends an error response using the shared envelope format.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	payload := APIResponse{
		Status:  statusError,
		Message: message,
	}
	return c.JSON(status, payload)
}
