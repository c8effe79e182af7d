package models

import "time"

// Comment is a top-level comment on a media item.
type Comment struct {
	ID          string    `json:"id"`
	MediaItemID string    `json:"mediaItemId"`
	AuthorID    string    `json:"authorId"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Reply is a comment nested one level under a Comment.
type Reply struct {
	ID        string    `json:"id"`
	CommentID string    `json:"commentId"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateCommentRequest is the body for comments and replies.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// FriendRequestStatus is the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

// FriendRequest is a pending or declined request between two users.
type FriendRequest struct {
	ID         string              `json:"id"`
	SenderID   string              `json:"senderId"`
	ReceiverID string              `json:"receiverId"`
	Status     FriendRequestStatus `json:"status"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// SendFriendRequest is the body of POST /friends/requests.
type SendFriendRequest struct {
	ReceiverID string `json:"receiverId"`
}

// Friend is one direction of a symmetric friendship.
type Friend struct {
	UserID    string    `json:"userId"`
	FriendID  string    `json:"friendId"`
	CreatedAt time.Time `json:"createdAt"`
}
