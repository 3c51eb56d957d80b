package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanedge/user-management-api/internal/service"
)

// apiResponse is the envelope every successful endpoint returns.
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// pagedResponse wraps listing payloads with pagination metadata.
type pagedResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Data    any                `json:"data"`
	Meta    service.Pagination `json:"meta"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, apiResponse{Status: "success", Message: message, Data: data})
}

func respondPage(c echo.Context, message string, data any, meta service.Pagination) error {
	return c.JSON(200, pagedResponse{Status: "success", Message: message, Data: data, Meta: meta})
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{"status": "error", "error": message})
}
