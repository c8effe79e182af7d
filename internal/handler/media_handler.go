package handler

import (
	"github.com/gofiber/fiber/v3"

	"media-tracker/internal/middleware"
	"media-tracker/internal/models"
	"media-tracker/internal/service"
)

// MediaHandler handles HTTP requests for media items.
type MediaHandler struct {
	svc *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(svc *service.MediaService) *MediaHandler {
	return &MediaHandler{svc: svc}
}

// CreateItem submits a new media item to the caller's queue.
// @Summary Create media item
// @Tags media
// @Accept json
// @Produce json
// @Param body body models.CreateMediaItemRequest true "Media item"
// @Success 201 {object} models.MediaItem
// @Failure 400 {object} ErrorResponse
// @Router /mediaItems [post]
func (h *MediaHandler) CreateItem(c fiber.Ctx) error {
	var req models.CreateMediaItemRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}

	item, err := h.svc.Create(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err, "media item")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// ListItems returns the caller's items in queue order.
// @Summary List media items
// @Tags media
// @Produce json
// @Success 200 {object} map[string][]models.MediaItem
// @Router /mediaItems [get]
func (h *MediaHandler) ListItems(c fiber.Ctx) error {
	items, err := h.svc.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "media items")
	}
	return c.JSON(fiber.Map{"items": items})
}

// ListIncomplete returns the caller's unfinished items.
// @Summary List incomplete media items
// @Tags media
// @Produce json
// @Success 200 {object} map[string][]models.MediaItem
// @Router /mediaItems/incomplete [get]
func (h *MediaHandler) ListIncomplete(c fiber.Ctx) error {
	items, err := h.svc.Incomplete(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "media items")
	}
	return c.JSON(fiber.Map{"items": items})
}

// ListCategories returns the caller's distinct categories.
// @Summary List categories
// @Tags media
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /mediaItems/categories [get]
func (h *MediaHandler) ListCategories(c fiber.Ctx) error {
	categories, err := h.svc.Categories(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "categories")
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// NextQueueNumber reports the queue number the next item would get.
// @Summary Next queue number
// @Tags media
// @Produce json
// @Success 200 {object} map[string]int
// @Router /mediaItems/queue-number [get]
func (h *MediaHandler) NextQueueNumber(c fiber.Ctx) error {
	n, err := h.svc.NextQueueNumber(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "queue")
	}
	return c.JSON(fiber.Map{"nextQueueNumber": n})
}

// GetItem returns one of the caller's items.
// @Summary Get media item
// @Tags media
// @Produce json
// @Param id path string true "Media item ID"
// @Success 200 {object} models.MediaItem
// @Failure 404 {object} ErrorResponse
// @Router /mediaItems/{id} [get]
func (h *MediaHandler) GetItem(c fiber.Ctx) error {
	item, err := h.svc.Get(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "media item")
	}
	return c.JSON(item)
}

// DeleteItem removes one of the caller's items with its comments.
// @Summary Delete media item
// @Tags media
// @Param id path string true "Media item ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /mediaItems/{id} [delete]
func (h *MediaHandler) DeleteItem(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err, "media item")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateProgress records pages, minutes or episodes against an item.
// @Summary Update progress
// @Tags media
// @Accept json
// @Produce json
// @Param id path string true "Media item ID"
// @Param body body models.ProgressEntry true "Progress entry"
// @Success 200 {object} models.ProgressResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /mediaItems/{id}/progress [patch]
func (h *MediaHandler) UpdateProgress(c fiber.Ctx) error {
	var entry models.ProgressEntry
	if err := c.Bind().JSON(&entry); err != nil {
		return invalidBody(c)
	}

	res, err := h.svc.UpdateProgress(c.Context(), middleware.UserID(c), c.Params("id"), entry)
	if err != nil {
		return respondError(c, err, "media item")
	}
	return c.JSON(res)
}
