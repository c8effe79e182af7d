package service

import (
	"context"

	"media-tracker/internal/models"
)

// MediaStore persists media items and their progress rows.
type MediaStore interface {
	CreateItem(ctx context.Context, item *models.MediaItem) error
	GetItem(ctx context.Context, ownerID, id string) (*models.MediaItem, error)
	ItemOwner(ctx context.Context, id string) (string, error)
	ListItems(ctx context.Context, ownerID string) ([]models.MediaItem, error)
	ListIncomplete(ctx context.Context, ownerID string) ([]models.MediaItem, error)
	ListCategories(ctx context.Context, ownerID string) ([]string, error)
	MaxQueueNumber(ctx context.Context, userID string) (int, error)
	UpdateProgress(ctx context.Context, item *models.MediaItem) error
	DeleteItem(ctx context.Context, ownerID, id string) error
}

// SocialStore persists comments, replies, friend requests and friendships.
type SocialStore interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, mediaItemID string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, authorID, id string) error
	CreateReply(ctx context.Context, r *models.Reply) error
	ListReplies(ctx context.Context, commentID string) ([]models.Reply, error)

	CreateFriendRequest(ctx context.Context, fr *models.FriendRequest) error
	GetFriendRequest(ctx context.Context, id string) (*models.FriendRequest, error)
	HasPendingRequest(ctx context.Context, a, b string) (bool, error)
	ListIncomingRequests(ctx context.Context, receiverID string) ([]models.FriendRequest, error)
	DeleteRequestsBetween(ctx context.Context, a, b string) error
	SetRequestStatus(ctx context.Context, id string, status models.FriendRequestStatus) error
	AddFriend(ctx context.Context, userID, friendID string) error
	RemoveFriend(ctx context.Context, userID, friendID string) error
	IsFriend(ctx context.Context, userID, friendID string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]models.Friend, error)
}

// SettingsStore persists per-user conversion settings.
type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	UpsertSettings(ctx context.Context, s *models.UserSettings) (*models.UserSettings, error)
}

// LockStore persists active goal locks and the cleared-goal log.
type LockStore interface {
	FindLock(ctx context.Context, ownerID, keyParent string) (*models.LockedItem, error)
	FindLockForItem(ctx context.Context, ownerID, itemID string) (*models.LockedItem, error)
	ListLocks(ctx context.Context, ownerID string) ([]models.LockedItem, error)
	InsertLock(ctx context.Context, lock *models.LockedItem) error
	IncrementProgress(ctx context.Context, ownerID, keyParent string, delta models.LockProgress) (*models.LockedItem, error)
	RaiseProgress(ctx context.Context, ownerID, keyParent string, floor models.LockProgress) (*models.LockedItem, error)
	DeleteLock(ctx context.Context, ownerID, lockID string) error
	InsertCleared(ctx context.Context, item *models.ClearedItem) error
	ListCleared(ctx context.Context, ownerID string) ([]models.ClearedItem, error)
}
