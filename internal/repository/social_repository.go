package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"media-tracker/internal/models"
)

// SocialRepository stores comments, replies and the friend graph.
type SocialRepository struct {
	db *sql.DB
}

// NewSocialRepository creates a new SocialRepository.
func NewSocialRepository(db *sql.DB) *SocialRepository {
	return &SocialRepository{db: db}
}

// CreateComment inserts a comment.
func (r *SocialRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, media_item_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.MediaItemID, c.AuthorID, c.Text, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// GetComment returns a comment by id.
func (r *SocialRepository) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, media_item_id, author_id, text, created_at FROM comments WHERE id = $1
	`, id).Scan(&c.ID, &c.MediaItemID, &c.AuthorID, &c.Text, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

// ListComments returns an item's comments, oldest first.
func (r *SocialRepository) ListComments(ctx context.Context, mediaItemID string) ([]models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, media_item_id, author_id, text, created_at
		FROM comments
		WHERE media_item_id = $1
		ORDER BY created_at ASC
	`, mediaItemID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.MediaItemID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// DeleteComment removes a comment written by authorID. Replies cascade.
func (r *SocialRepository) DeleteComment(ctx context.Context, authorID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectOneRow(res)
}

// CreateReply inserts a reply.
func (r *SocialRepository) CreateReply(ctx context.Context, reply *models.Reply) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO replies (id, comment_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, reply.ID, reply.CommentID, reply.AuthorID, reply.Text, reply.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reply: %w", err)
	}
	return nil
}

// ListReplies returns a comment's replies, oldest first.
func (r *SocialRepository) ListReplies(ctx context.Context, commentID string) ([]models.Reply, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, comment_id, author_id, text, created_at
		FROM replies
		WHERE comment_id = $1
		ORDER BY created_at ASC
	`, commentID)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	defer rows.Close()

	replies := make([]models.Reply, 0)
	for rows.Next() {
		var reply models.Reply
		if err := rows.Scan(&reply.ID, &reply.CommentID, &reply.AuthorID, &reply.Text, &reply.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		replies = append(replies, reply)
	}
	return replies, rows.Err()
}

// CreateFriendRequest inserts a pending request. A second pending request
// between the same pair is a conflict.
func (r *SocialRepository) CreateFriendRequest(ctx context.Context, fr *models.FriendRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO friend_requests (id, sender_id, receiver_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, fr.ID, fr.SenderID, fr.ReceiverID, string(fr.Status), fr.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert friend request: %w", err)
	}
	return nil
}

// GetFriendRequest returns a request by id.
func (r *SocialRepository) GetFriendRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	var (
		fr     models.FriendRequest
		status string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, sender_id, receiver_id, status, created_at FROM friend_requests WHERE id = $1
	`, id).Scan(&fr.ID, &fr.SenderID, &fr.ReceiverID, &status, &fr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get friend request: %w", err)
	}
	fr.Status = models.FriendRequestStatus(status)
	return &fr, nil
}

// HasPendingRequest reports whether a pending request exists in either
// direction between a and b.
func (r *SocialRepository) HasPendingRequest(ctx context.Context, a, b string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friend_requests
			WHERE status = 'pending'
			AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
		)
	`, a, b).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query pending request: %w", err)
	}
	return exists, nil
}

// ListIncomingRequests returns pending requests addressed to receiverID.
func (r *SocialRepository) ListIncomingRequests(ctx context.Context, receiverID string) ([]models.FriendRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, status, created_at
		FROM friend_requests
		WHERE receiver_id = $1 AND status = 'pending'
		ORDER BY created_at ASC
	`, receiverID)
	if err != nil {
		return nil, fmt.Errorf("query friend requests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.FriendRequest, 0)
	for rows.Next() {
		var (
			fr     models.FriendRequest
			status string
		)
		if err := rows.Scan(&fr.ID, &fr.SenderID, &fr.ReceiverID, &status, &fr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		fr.Status = models.FriendRequestStatus(status)
		requests = append(requests, fr)
	}
	return requests, rows.Err()
}

// DeleteRequestsBetween removes every request row between a and b, in both
// directions.
func (r *SocialRepository) DeleteRequestsBetween(ctx context.Context, a, b string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM friend_requests
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
	`, a, b)
	if err != nil {
		return fmt.Errorf("delete friend requests: %w", err)
	}
	return nil
}

// SetRequestStatus updates a request's status.
func (r *SocialRepository) SetRequestStatus(ctx context.Context, id string, status models.FriendRequestStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE friend_requests SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update friend request: %w", err)
	}
	return expectOneRow(res)
}

// AddFriend saves one direction of a friendship. Saving an existing
// direction is a no-op.
func (r *SocialRepository) AddFriend(ctx context.Context, userID, friendID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO friends (user_id, friend_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, userID, friendID, now())
	if err != nil {
		return fmt.Errorf("insert friend: %w", err)
	}
	return nil
}

// RemoveFriend deletes one direction of a friendship.
func (r *SocialRepository) RemoveFriend(ctx context.Context, userID, friendID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friends WHERE user_id = $1 AND friend_id = $2`, userID, friendID)
	if err != nil {
		return fmt.Errorf("delete friend: %w", err)
	}
	return expectOneRow(res)
}

// IsFriend reports whether userID lists friendID as a friend.
func (r *SocialRepository) IsFriend(ctx context.Context, userID, friendID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM friends WHERE user_id = $1 AND friend_id = $2)
	`, userID, friendID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query friend: %w", err)
	}
	return exists, nil
}

// ListFriends returns userID's friends, oldest friendship first.
func (r *SocialRepository) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, friend_id, created_at
		FROM friends
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	friends := make([]models.Friend, 0)
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.UserID, &f.FriendID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}
