// Package memory is an in-process stand-in for the relational and document
// stores. It backs STORAGE_BACKEND=memory and the handler tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"media-tracker/internal/models"
	"media-tracker/internal/repository"
)

type friendKey struct{ user, friend string }

type lockKey struct{ owner, keyParent string }

// Store holds every record kind behind one mutex, so cascades behave like
// the foreign keys in PostgreSQL.
type Store struct {
	mu sync.RWMutex

	items    map[string]models.MediaItem
	comments []models.Comment
	replies  []models.Reply
	requests []models.FriendRequest
	friends  map[friendKey]time.Time
	settings map[string]models.UserSettings
	locks    map[lockKey]models.LockedItem
	cleared  []models.ClearedItem
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		items:    make(map[string]models.MediaItem),
		friends:  make(map[friendKey]time.Time),
		settings: make(map[string]models.UserSettings),
		locks:    make(map[lockKey]models.LockedItem),
	}
}

// ---- Media items ----

func (s *Store) CreateItem(ctx context.Context, item *models.MediaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; ok {
		return repository.ErrConflict
	}
	s.items[item.ID] = *item
	return nil
}

func (s *Store) GetItem(ctx context.Context, ownerID, id string) (*models.MediaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok || item.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (s *Store) ItemOwner(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return item.OwnerID, nil
}

func (s *Store) ListItems(ctx context.Context, ownerID string) ([]models.MediaItem, error) {
	return s.listItems(ownerID, func(models.MediaItem) bool { return true }), nil
}

func (s *Store) ListIncomplete(ctx context.Context, ownerID string) ([]models.MediaItem, error) {
	return s.listItems(ownerID, func(i models.MediaItem) bool { return !i.Completed }), nil
}

func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]string, error) {
	items := s.listItems(ownerID, func(models.MediaItem) bool { return true })
	categories := make([]string, 0, len(items))
	for _, item := range items {
		categories = append(categories, item.Category)
	}
	return categories, nil
}

func (s *Store) MaxQueueNumber(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	maxQueue := 0
	for _, item := range s.items {
		if item.OwnerID == userID && item.QueueNumber > maxQueue {
			maxQueue = item.QueueNumber
		}
	}
	return maxQueue, nil
}

func (s *Store) UpdateProgress(ctx context.Context, item *models.MediaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok || stored.OwnerID != item.OwnerID {
		return repository.ErrNotFound
	}
	stored.CompletedDuration = item.CompletedDuration
	stored.PercentComplete = item.PercentComplete
	stored.Completed = item.Completed
	stored.UpdatedAt = item.UpdatedAt
	s.items[item.ID] = stored
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok || item.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(s.items, id)

	var removed []string
	s.comments = slices.DeleteFunc(s.comments, func(c models.Comment) bool {
		if c.MediaItemID == id {
			removed = append(removed, c.ID)
			return true
		}
		return false
	})
	s.replies = slices.DeleteFunc(s.replies, func(r models.Reply) bool {
		return slices.Contains(removed, r.CommentID)
	})
	return nil
}

func (s *Store) listItems(ownerID string, keep func(models.MediaItem) bool) []models.MediaItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.MediaItem, 0)
	for _, item := range s.items {
		if item.OwnerID == ownerID && keep(item) {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].QueueNumber != items[j].QueueNumber {
			return items[i].QueueNumber < items[j].QueueNumber
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

// ---- Comments and replies ----

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[c.MediaItemID]; !ok {
		return repository.ErrNotFound
	}
	s.comments = append(s.comments, *c)
	return nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.comments {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListComments(ctx context.Context, mediaItemID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.MediaItemID == mediaItemID {
			comments = append(comments, c)
		}
	}
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return comments, nil
}

func (s *Store) DeleteComment(ctx context.Context, authorID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.comments, func(c models.Comment) bool { return c.ID == id && c.AuthorID == authorID })
	if idx < 0 {
		return repository.ErrNotFound
	}
	s.comments = slices.Delete(s.comments, idx, idx+1)
	s.replies = slices.DeleteFunc(s.replies, func(r models.Reply) bool { return r.CommentID == id })
	return nil
}

func (s *Store) CreateReply(ctx context.Context, r *models.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.ContainsFunc(s.comments, func(c models.Comment) bool { return c.ID == r.CommentID }) {
		return repository.ErrNotFound
	}
	s.replies = append(s.replies, *r)
	return nil
}

func (s *Store) ListReplies(ctx context.Context, commentID string) ([]models.Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	replies := make([]models.Reply, 0)
	for _, r := range s.replies {
		if r.CommentID == commentID {
			replies = append(replies, r)
		}
	}
	sort.SliceStable(replies, func(i, j int) bool { return replies[i].CreatedAt.Before(replies[j].CreatedAt) })
	return replies, nil
}

// ---- Friends ----

func (s *Store) CreateFriendRequest(ctx context.Context, fr *models.FriendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.requests {
		if existing.Status == models.FriendRequestPending &&
			existing.SenderID == fr.SenderID && existing.ReceiverID == fr.ReceiverID {
			return repository.ErrConflict
		}
	}
	s.requests = append(s.requests, *fr)
	return nil
}

func (s *Store) GetFriendRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, fr := range s.requests {
		if fr.ID == id {
			return &fr, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) HasPendingRequest(ctx context.Context, a, b string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.ContainsFunc(s.requests, func(fr models.FriendRequest) bool {
		return fr.Status == models.FriendRequestPending && between(fr, a, b)
	}), nil
}

func (s *Store) ListIncomingRequests(ctx context.Context, receiverID string) ([]models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests := make([]models.FriendRequest, 0)
	for _, fr := range s.requests {
		if fr.ReceiverID == receiverID && fr.Status == models.FriendRequestPending {
			requests = append(requests, fr)
		}
	}
	return requests, nil
}

func (s *Store) DeleteRequestsBetween(ctx context.Context, a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = slices.DeleteFunc(s.requests, func(fr models.FriendRequest) bool { return between(fr, a, b) })
	return nil
}

func (s *Store) SetRequestStatus(ctx context.Context, id string, status models.FriendRequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.requests {
		if s.requests[i].ID == id {
			s.requests[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *Store) AddFriend(ctx context.Context, userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := friendKey{userID, friendID}
	if _, ok := s.friends[k]; !ok {
		s.friends[k] = time.Now().UTC()
	}
	return nil
}

func (s *Store) RemoveFriend(ctx context.Context, userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := friendKey{userID, friendID}
	if _, ok := s.friends[k]; !ok {
		return repository.ErrNotFound
	}
	delete(s.friends, k)
	return nil
}

func (s *Store) IsFriend(ctx context.Context, userID, friendID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.friends[friendKey{userID, friendID}]
	return ok, nil
}

func (s *Store) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	friends := make([]models.Friend, 0)
	for k, at := range s.friends {
		if k.user == userID {
			friends = append(friends, models.Friend{UserID: k.user, FriendID: k.friend, CreatedAt: at})
		}
	}
	sort.Slice(friends, func(i, j int) bool {
		if !friends[i].CreatedAt.Equal(friends[j].CreatedAt) {
			return friends[i].CreatedAt.Before(friends[j].CreatedAt)
		}
		return friends[i].FriendID < friends[j].FriendID
	})
	return friends, nil
}

func between(fr models.FriendRequest, a, b string) bool {
	return (fr.SenderID == a && fr.ReceiverID == b) || (fr.SenderID == b && fr.ReceiverID == a)
}

// ---- Settings ----

func (s *Store) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settings[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (s *Store) UpsertSettings(ctx context.Context, st *models.UserSettings) (*models.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *st
	out.UpdatedAt = time.Now().UTC()
	s.settings[st.UserID] = out
	return &out, nil
}

// ---- Goal locks ----

func (s *Store) FindLock(ctx context.Context, ownerID, keyParent string) (*models.LockedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lock, ok := s.locks[lockKey{ownerID, keyParent}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &lock, nil
}

func (s *Store) FindLockForItem(ctx context.Context, ownerID, itemID string) (*models.LockedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if lock, ok := s.locks[lockKey{ownerID, itemID}]; ok {
		return &lock, nil
	}
	for k, lock := range s.locks {
		if k.owner == ownerID && lock.ItemID == itemID {
			return &lock, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListLocks(ctx context.Context, ownerID string) ([]models.LockedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locks := make([]models.LockedItem, 0)
	for k, lock := range s.locks {
		if k.owner == ownerID {
			locks = append(locks, lock)
		}
	}
	sort.Slice(locks, func(i, j int) bool { return locks[i].CreatedAt.After(locks[j].CreatedAt) })
	return locks, nil
}

func (s *Store) InsertLock(ctx context.Context, lock *models.LockedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := lockKey{lock.OwnerID, lock.KeyParent}
	if _, ok := s.locks[k]; ok {
		return repository.ErrConflict
	}
	s.locks[k] = *lock
	return nil
}

func (s *Store) IncrementProgress(ctx context.Context, ownerID, keyParent string, delta models.LockProgress) (*models.LockedItem, error) {
	return s.updateLock(ownerID, keyParent, func(l *models.LockedItem) {
		l.TimeComplete += delta.Minutes
		l.PagesComplete += delta.Pages
		l.EpisodesComplete += delta.Episodes
	})
}

func (s *Store) RaiseProgress(ctx context.Context, ownerID, keyParent string, floor models.LockProgress) (*models.LockedItem, error) {
	return s.updateLock(ownerID, keyParent, func(l *models.LockedItem) {
		l.TimeComplete = max(l.TimeComplete, floor.Minutes)
		l.PagesComplete = max(l.PagesComplete, floor.Pages)
		l.EpisodesComplete = max(l.EpisodesComplete, floor.Episodes)
		l.PercentComplete = max(l.PercentComplete, floor.PercentComplete)
	})
}

func (s *Store) DeleteLock(ctx context.Context, ownerID, lockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, lock := range s.locks {
		if k.owner == ownerID && lock.ID == lockID {
			delete(s.locks, k)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *Store) InsertCleared(ctx context.Context, item *models.ClearedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.LockID != "" {
		for _, c := range s.cleared {
			if c.LockID == item.LockID {
				return repository.ErrConflict
			}
		}
	}
	s.cleared = append(s.cleared, *item)
	return nil
}

func (s *Store) ListCleared(ctx context.Context, ownerID string) ([]models.ClearedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.ClearedItem, 0)
	for _, c := range s.cleared {
		if c.OwnerID == ownerID {
			items = append(items, c)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ClearedAt.After(items[j].ClearedAt) })
	return items, nil
}

func (s *Store) updateLock(ownerID, keyParent string, fn func(*models.LockedItem)) (*models.LockedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := lockKey{ownerID, keyParent}
	lock, ok := s.locks[k]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(&lock)
	lock.UpdatedAt = time.Now().UTC()
	s.locks[k] = lock
	return &lock, nil
}
