package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"media-tracker/internal/middleware"
	"media-tracker/internal/models"
	"media-tracker/internal/service"
)

// LockHandler serves goal locks.
type LockHandler struct {
	svc *service.LockService
}

func NewLockHandler(svc *service.LockService) *LockHandler {
	return &LockHandler{svc: svc}
}

// GetLock looks a goal up by itemId or keyParent. An unlocked key answers
// 200 with the unlocked default.
// @Summary Get locked item
// @Tags locks
// @Produce json
// @Param itemId query string false "Item the goal targets"
// @Param keyParent query string false "Goal key: item id, category or media type"
// @Success 200 {object} map[string]models.LockedItem
// @Failure 400 {object} ErrorResponse
// @Router /lockedItem [get]
func (h *LockHandler) GetLock(c fiber.Ctx) error {
	var (
		lookup models.LockLookup
		err    error
	)
	userID := middleware.UserID(c)
	if itemID := c.Query("itemId"); itemID != "" {
		lookup, err = h.svc.LookupItem(c.Context(), userID, itemID)
	} else {
		lookup, err = h.svc.Lookup(c.Context(), userID, c.Query("keyParent"))
	}
	if err != nil {
		return respondError(c, err, "locked item")
	}
	return c.JSON(fiber.Map{"lockedItem": lookup.View()})
}

func (h *LockHandler) ListLocks(c fiber.Ctx) error {
	locks, err := h.svc.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "locked items")
	}
	return c.JSON(fiber.Map{"lockedItems": locks})
}

// CreateLock sets a new goal.
// @Summary Create locked item
// @Tags locks
// @Accept json
// @Produce json
// @Param body body models.CreateLockRequest true "Goal"
// @Success 201 {object} map[string]models.LockedItem
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /createLockedItem [post]
func (h *LockHandler) CreateLock(c fiber.Ctx) error {
	var req models.CreateLockRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}

	lock, err := h.svc.Create(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err, "locked item")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lockedItem": lock})
}

// UpdateProgress adds to a goal's progress, or raises it when absolute is
// set. cleared is non-null when the update completed the goal.
// @Summary Update locked item progress
// @Tags locks
// @Accept json
// @Produce json
// @Param body body models.LockProgressRequest true "Progress"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /lockedItem/progress [post]
func (h *LockHandler) UpdateProgress(c fiber.Ctx) error {
	var req models.LockProgressRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(req.KeyParent) == "" {
		return badRequest(c, "keyParent is required")
	}
	p := req.LockProgress
	if p.Minutes < 0 || p.Pages < 0 || p.Episodes < 0 || p.PercentComplete < 0 {
		return badRequest(c, "progress values must not be negative")
	}

	var (
		res *service.LockResult
		err error
	)
	if req.Absolute {
		res, err = h.svc.SetProgress(c.Context(), middleware.UserID(c), req.KeyParent, p)
	} else {
		res, err = h.svc.Advance(c.Context(), middleware.UserID(c), req.KeyParent, p)
	}
	if err != nil {
		return respondError(c, err, "locked item")
	}
	return c.JSON(fiber.Map{"lockedItem": res.Lock, "cleared": res.Cleared})
}

// ClearLock moves a goal into the cleared log.
// @Summary Clear locked item
// @Tags locks
// @Accept json
// @Produce json
// @Param body body models.ClearLockRequest true "Goal key"
// @Success 200 {object} map[string]models.ClearedItem
// @Failure 404 {object} ErrorResponse
// @Router /lockedItem/clear [post]
func (h *LockHandler) ClearLock(c fiber.Ctx) error {
	var req models.ClearLockRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}

	cleared, err := h.svc.Clear(c.Context(), middleware.UserID(c), req.KeyParent)
	if err != nil {
		return respondError(c, err, "locked item")
	}
	return c.JSON(fiber.Map{"clearedItem": cleared})
}

// ListCleared returns the caller's cleared goals, newest first.
// @Summary List cleared items
// @Tags locks
// @Produce json
// @Success 200 {object} map[string][]models.ClearedItem
// @Router /clearedItems [get]
func (h *LockHandler) ListCleared(c fiber.Ctx) error {
	items, err := h.svc.History(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "cleared items")
	}
	return c.JSON(fiber.Map{"clearedItems": items})
}
