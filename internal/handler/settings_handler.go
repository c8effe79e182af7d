package handler

import (
	"github.com/gofiber/fiber/v3"

	"media-tracker/internal/middleware"
	"media-tracker/internal/models"
	"media-tracker/internal/service"
)

type SettingsHandler struct {
	svc *service.SettingsService
}

func NewSettingsHandler(svc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// GetSettings returns the caller's settings, or the defaults.
func (h *SettingsHandler) GetSettings(c fiber.Ctx) error {
	settings, err := h.svc.Get(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "settings")
	}
	return c.JSON(settings)
}

// UpdateSettings replaces the caller's settings.
func (h *SettingsHandler) UpdateSettings(c fiber.Ctx) error {
	var req models.UpdateSettingsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}

	settings, err := h.svc.Update(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err, "settings")
	}
	return c.JSON(settings)
}
