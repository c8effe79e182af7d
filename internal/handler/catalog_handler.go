package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"media-tracker/internal/models"
	"media-tracker/internal/service"
)

// CatalogHandler exposes TMDB lookups.
type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// Search finds catalog titles.
// @Summary Search catalog
// @Tags catalog
// @Produce json
// @Param type query string true "Media type" Enums(movie,tv)
// @Param query query string true "Title to search for"
// @Success 200 {object} map[string][]models.CatalogResult
// @Failure 400 {object} ErrorResponse
// @Router /catalog/search [get]
func (h *CatalogHandler) Search(c fiber.Ctx) error {
	mediaType, err := models.ParseMediaType(c.Query("type"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	results, err := h.svc.Search(c.Context(), mediaType, c.Query("query"))
	if err != nil {
		return respondError(c, err, "catalog title")
	}
	return c.JSON(fiber.Map{"results": results})
}

// Duration suggests an item duration for a catalog title.
// @Summary Catalog duration
// @Tags catalog
// @Produce json
// @Param type path string true "Media type" Enums(movie,tv)
// @Param id path int true "TMDB ID"
// @Success 200 {object} models.CatalogDuration
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /catalog/{type}/{id}/duration [get]
func (h *CatalogHandler) Duration(c fiber.Ctx) error {
	mediaType, err := models.ParseMediaType(c.Params("type"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid catalog ID")
	}

	d, err := h.svc.Duration(c.Context(), mediaType, id)
	if err != nil {
		return respondError(c, err, "catalog title")
	}
	return c.JSON(d)
}
