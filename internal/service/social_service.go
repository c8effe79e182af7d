package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"media-tracker/internal/models"
)

const maxCommentLength = 2000

// ItemLookup resolves a media item's owner.
type ItemLookup interface {
	ItemOwner(ctx context.Context, id string) (string, error)
}

// SocialService handles comments, replies and friendships.
type SocialService struct {
	repo  SocialStore
	items ItemLookup
}

func NewSocialService(repo SocialStore, items ItemLookup) *SocialService {
	return &SocialService{repo: repo, items: items}
}

// ---- Comments ----

func (s *SocialService) Comments(ctx context.Context, itemID string) ([]models.Comment, error) {
	if err := s.itemExists(ctx, itemID); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *SocialService) AddComment(ctx context.Context, authorID, itemID string, req models.CreateCommentRequest) (*models.Comment, error) {
	text, err := commentText(req.Text)
	if err != nil {
		return nil, err
	}
	if err := s.itemExists(ctx, itemID); err != nil {
		return nil, err
	}
	c := &models.Comment{
		ID:          uuid.NewString(),
		MediaItemID: itemID,
		AuthorID:    authorID,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// DeleteComment removes a comment and its replies. Only the author may
// delete; anyone else gets ErrNotFound.
func (s *SocialService) DeleteComment(ctx context.Context, authorID, id string) error {
	if err := s.repo.DeleteComment(ctx, authorID, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *SocialService) Replies(ctx context.Context, commentID string) ([]models.Reply, error) {
	if _, err := s.repo.GetComment(ctx, commentID); err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	replies, err := s.repo.ListReplies(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return replies, nil
}

func (s *SocialService) AddReply(ctx context.Context, authorID, commentID string, req models.CreateCommentRequest) (*models.Reply, error) {
	text, err := commentText(req.Text)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetComment(ctx, commentID); err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	r := &models.Reply{
		ID:        uuid.NewString(),
		CommentID: commentID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateReply(ctx, r); err != nil {
		return nil, fmt.Errorf("create reply: %w", err)
	}
	return r, nil
}

func (s *SocialService) itemExists(ctx context.Context, itemID string) error {
	if _, err := s.items.ItemOwner(ctx, itemID); err != nil {
		return fmt.Errorf("get media item: %w", err)
	}
	return nil
}

func commentText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", invalid("text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return "", invalid("text must be at most %d characters", maxCommentLength)
	}
	return text, nil
}

// ---- Friends ----

// SendRequest creates a pending friend request from senderID.
func (s *SocialService) SendRequest(ctx context.Context, senderID string, req models.SendFriendRequest) (*models.FriendRequest, error) {
	receiverID := strings.TrimSpace(req.ReceiverID)
	if receiverID == "" {
		return nil, invalid("receiverId is required")
	}
	if receiverID == senderID {
		return nil, invalid("cannot send a friend request to yourself")
	}

	friends, err := s.repo.IsFriend(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		return nil, fmt.Errorf("%w: already friends", ErrConflict)
	}
	pending, err := s.repo.HasPendingRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check pending requests: %w", err)
	}
	if pending {
		return nil, fmt.Errorf("%w: a friend request is already pending", ErrConflict)
	}

	fr := &models.FriendRequest{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateFriendRequest(ctx, fr); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("%w: a friend request is already pending", ErrConflict)
		}
		return nil, fmt.Errorf("create friend request: %w", err)
	}
	return fr, nil
}

// IncomingRequests lists pending requests addressed to userID.
func (s *SocialService) IncomingRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	requests, err := s.repo.ListIncomingRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	return requests, nil
}

// AcceptRequest makes the two users friends. The friend rows and the
// request cleanup are separate writes with no transaction around them.
func (s *SocialService) AcceptRequest(ctx context.Context, userID, requestID string) error {
	fr, err := s.pendingRequestFor(ctx, userID, requestID)
	if err != nil {
		return err
	}
	if err := s.repo.AddFriend(ctx, fr.ReceiverID, fr.SenderID); err != nil {
		return fmt.Errorf("add friend: %w", err)
	}
	if err := s.repo.AddFriend(ctx, fr.SenderID, fr.ReceiverID); err != nil {
		return fmt.Errorf("add friend: %w", err)
	}
	if err := s.repo.DeleteRequestsBetween(ctx, fr.SenderID, fr.ReceiverID); err != nil {
		return fmt.Errorf("delete friend requests: %w", err)
	}
	slog.Info("friend request accepted", "user_id", userID, "friend_id", fr.SenderID)
	return nil
}

// DeclineRequest marks a pending request declined.
func (s *SocialService) DeclineRequest(ctx context.Context, userID, requestID string) error {
	fr, err := s.pendingRequestFor(ctx, userID, requestID)
	if err != nil {
		return err
	}
	if err := s.repo.SetRequestStatus(ctx, fr.ID, models.FriendRequestDeclined); err != nil {
		return fmt.Errorf("decline friend request: %w", err)
	}
	return nil
}

// pendingRequestFor loads a request only its receiver may act on.
func (s *SocialService) pendingRequestFor(ctx context.Context, receiverID, requestID string) (*models.FriendRequest, error) {
	fr, err := s.repo.GetFriendRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get friend request: %w", err)
	}
	if fr.ReceiverID != receiverID {
		return nil, fmt.Errorf("get friend request: %w", ErrNotFound)
	}
	if fr.Status != models.FriendRequestPending {
		return nil, fmt.Errorf("%w: friend request is %s", ErrConflict, fr.Status)
	}
	return fr, nil
}

func (s *SocialService) Friends(ctx context.Context, userID string) ([]models.Friend, error) {
	friends, err := s.repo.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// Unfriend removes the friendship in both directions.
func (s *SocialService) Unfriend(ctx context.Context, userID, friendID string) error {
	if err := s.repo.RemoveFriend(ctx, userID, friendID); err != nil {
		return fmt.Errorf("remove friend: %w", err)
	}
	if err := s.repo.RemoveFriend(ctx, friendID, userID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("remove friend: %w", err)
	}
	return nil
}
