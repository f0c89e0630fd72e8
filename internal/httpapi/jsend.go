package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"horse.fit/telephone/internal/translation"
)

// jsendResponse is the envelope of every JSON route. Streaming routes only
// use it for failures raised before the stream opens.
type jsendResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, jsendResponse{
		Status: "success",
		Data:   data,
	})
}

func fail(c echo.Context, code int, message string, data any) error {
	resp := jsendResponse{
		Status:  "fail",
		Message: message,
	}
	if data != nil {
		resp.Data = data
	}
	return c.JSON(code, resp)
}

// failValidation reports field errors keyed by request field name.
func failValidation(c echo.Context, fieldErrors map[string]string) error {
	return fail(c, http.StatusBadRequest, "Validation failed", map[string]any{
		"validation_errors": fieldErrors,
	})
}

func failNotFound(c echo.Context, message string) error {
	return fail(c, http.StatusNotFound, message, nil)
}

// failUpstream reports a classified provider failure with its kind so clients
// can tell a bad key from a quota or rate limit.
func failUpstream(c echo.Context, kind translation.Kind, message string) error {
	return fail(c, statusForKind(kind), message, map[string]any{
		"kind": kind,
	})
}

func internalError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, jsendResponse{
		Status:  "error",
		Message: message,
		Code:    http.StatusInternalServerError,
	})
}
