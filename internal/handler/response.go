package handler

import (
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v3"

	"media-tracker/internal/middleware"
	"media-tracker/internal/service"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health returns service health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "media-tracker",
	})
}

// respondError maps service errors onto HTTP statuses. Anything that is not
// a known service error is logged and reported as a generic 500.
func respondError(c fiber.Ctx, err error, resource string) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: resource + " not found"})
	case errors.Is(err, service.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	default:
		return InternalError(c, fiber.StatusInternalServerError, err)
	}
}

// InternalError logs err, reports it to Sentry when a client is
// configured, and answers with a generic body so store details never leak.
func InternalError(c fiber.Ctx, status int, err error) error {
	slog.Error("request failed",
		"method", c.Method(), "path", c.Path(), "status", status,
		"user_id", middleware.UserID(c), "error", err)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("method", c.Method())
		scope.SetTag("route", c.Route().Path)
		if uid := middleware.UserID(c); uid != "" {
			scope.SetUser(sentry.User{ID: uid})
		}
		sentry.CaptureException(err)
	})
	return c.Status(status).JSON(ErrorResponse{Error: "internal error"})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}

func invalidBody(c fiber.Ctx) error {
	return badRequest(c, "invalid request body")
}
