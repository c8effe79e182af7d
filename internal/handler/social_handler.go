package handler

import (
	"github.com/gofiber/fiber/v3"

	"media-tracker/internal/middleware"
	"media-tracker/internal/models"
	"media-tracker/internal/service"
)

type SocialHandler struct {
	svc *service.SocialService
}

func NewSocialHandler(svc *service.SocialService) *SocialHandler {
	return &SocialHandler{svc: svc}
}

// ListComments returns an item's comments, oldest first.
func (h *SocialHandler) ListComments(c fiber.Ctx) error {
	comments, err := h.svc.Comments(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "media item")
	}
	return c.JSON(fiber.Map{"comments": comments})
}

func (h *SocialHandler) CreateComment(c fiber.Ctx) error {
	var req models.CreateCommentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := h.svc.AddComment(c.Context(), middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err, "media item")
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment removes one of the caller's comments.
func (h *SocialHandler) DeleteComment(c fiber.Ctx) error {
	if err := h.svc.DeleteComment(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err, "comment")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SocialHandler) ListReplies(c fiber.Ctx) error {
	replies, err := h.svc.Replies(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "comment")
	}
	return c.JSON(fiber.Map{"replies": replies})
}

func (h *SocialHandler) CreateReply(c fiber.Ctx) error {
	var req models.CreateCommentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}

	reply, err := h.svc.AddReply(c.Context(), middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err, "comment")
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

// SendFriendRequest asks another user to become friends.
func (h *SocialHandler) SendFriendRequest(c fiber.Ctx) error {
	var req models.SendFriendRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}

	fr, err := h.svc.SendRequest(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err, "friend request")
	}
	return c.Status(fiber.StatusCreated).JSON(fr)
}

// ListFriendRequests returns pending requests sent to the caller.
func (h *SocialHandler) ListFriendRequests(c fiber.Ctx) error {
	requests, err := h.svc.IncomingRequests(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "friend requests")
	}
	return c.JSON(fiber.Map{"requests": requests})
}

func (h *SocialHandler) AcceptFriendRequest(c fiber.Ctx) error {
	if err := h.svc.AcceptRequest(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err, "friend request")
	}
	return c.JSON(fiber.Map{"message": "friend request accepted"})
}

func (h *SocialHandler) DeclineFriendRequest(c fiber.Ctx) error {
	if err := h.svc.DeclineRequest(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err, "friend request")
	}
	return c.JSON(fiber.Map{"message": "friend request declined"})
}

func (h *SocialHandler) ListFriends(c fiber.Ctx) error {
	friends, err := h.svc.Friends(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "friends")
	}
	return c.JSON(fiber.Map{"friends": friends})
}

func (h *SocialHandler) RemoveFriend(c fiber.Ctx) error {
	if err := h.svc.Unfriend(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err, "friend")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
