package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Responses follow the jsend convention: success carries data, fail carries
// caller-fixable details, error is a server-side failure with a message only.

type jsendSuccess struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type jsendFail struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type jsendError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, jsendSuccess{
		Status: "success",
		Data:   data,
	})
}

func fail(c echo.Context, status int, message string, data any) error {
	if status < 400 || status >= 500 {
		status = http.StatusBadRequest
	}
	return c.JSON(status, jsendFail{
		Status:  "fail",
		Message: message,
		Data:    data,
	})
}

func failValidation(c echo.Context, fields map[string]string) error {
	return fail(c, http.StatusBadRequest, "Validation failed", map[string]any{
		"fields": fields,
	})
}

func failNotFound(c echo.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		message = "Not found"
	}
	return fail(c, http.StatusNotFound, message, nil)
}

func internalError(c echo.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		message = "Internal server error"
	}
	return c.JSON(http.StatusInternalServerError, jsendError{
		Status:  "error",
		Message: message,
	})
}

func decodeJSONBody(c echo.Context, target any) error {
	if c == nil || c.Request() == nil || c.Request().Body == nil {
		return fmt.Errorf("request body is required")
	}

	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("must be valid JSON: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("must contain a single JSON document")
	}
	return nil
}
