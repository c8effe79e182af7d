package models

import "time"

// LockedItem is an active goal attached to a category, media type or item.
type LockedItem struct {
	ID               string    `json:"id" bson:"_id"`
	OwnerID          string    `json:"ownerId" bson:"owner_id"`
	KeyParent        string    `json:"keyParent" bson:"key_parent"`
	ItemID           string    `json:"itemId,omitempty" bson:"item_id,omitempty"`
	Locked           bool      `json:"locked" bson:"locked"`
	GoalTime         int       `json:"goalTime" bson:"goal_time"`
	GoalPages        int       `json:"goalPages" bson:"goal_pages"`
	GoalEpisodes     int       `json:"goalEpisodes" bson:"goal_episodes"`
	TimeComplete     int       `json:"timeComplete" bson:"time_complete"`
	PagesComplete    int       `json:"pagesComplete" bson:"pages_complete"`
	EpisodesComplete int       `json:"episodesComplete" bson:"episodes_complete"`
	PercentComplete  int       `json:"percentComplete" bson:"percent_complete"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updated_at"`
}

// UnlockedDefault is what callers see for a key with no active goal.
type UnlockedDefault struct {
	KeyParent    string `json:"keyParent"`
	Locked       bool   `json:"locked"`
	GoalTime     int    `json:"goalTime"`
	GoalPages    int    `json:"goalPages"`
	GoalEpisodes int    `json:"goalEpisodes"`
}

// LockLookup is the result of looking a goal up. Found is false when the
// key is unlocked; Item is nil in that case.
type LockLookup struct {
	KeyParent string
	Found     bool
	Item      *LockedItem
}

// View returns the JSON shape for the lookup: the stored lock or the
// synthetic unlocked default.
func (l LockLookup) View() any {
	if l.Found {
		return l.Item
	}
	return UnlockedDefault{KeyParent: l.KeyParent}
}

// ClearedItem is the immutable snapshot of a lock taken when it was cleared.
type ClearedItem struct {
	ID               string    `json:"id" bson:"_id"`
	LockID           string    `json:"lockId" bson:"lock_id"`
	OwnerID          string    `json:"ownerId" bson:"owner_id"`
	KeyParent        string    `json:"keyParent" bson:"key_parent"`
	ItemID           string    `json:"itemId,omitempty" bson:"item_id,omitempty"`
	GoalTime         int       `json:"goalTime" bson:"goal_time"`
	GoalPages        int       `json:"goalPages" bson:"goal_pages"`
	GoalEpisodes     int       `json:"goalEpisodes" bson:"goal_episodes"`
	TimeComplete     int       `json:"timeComplete" bson:"time_complete"`
	PagesComplete    int       `json:"pagesComplete" bson:"pages_complete"`
	EpisodesComplete int       `json:"episodesComplete" bson:"episodes_complete"`
	PercentComplete  int       `json:"percentComplete" bson:"percent_complete"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
	ClearedAt        time.Time `json:"clearedAt" bson:"cleared_at"`
}

// CreateLockRequest is the body of POST /createLockedItem. LockedItem is the
// legacy name for the target item id.
type CreateLockRequest struct {
	LockedItem       string `json:"lockedItem"`
	ItemID           string `json:"itemId"`
	KeyParent        string `json:"keyParent"`
	GoalTime         int    `json:"goalTime"`
	GoalPages        int    `json:"goalPages"`
	GoalEpisodes     int    `json:"goalEpisodes"`
	TimeComplete     int    `json:"timeComplete"`
	PercentComplete  int    `json:"percentComplete"`
	PagesComplete    int    `json:"pagesComplete"`
	EpisodesComplete int    `json:"episodesComplete"`
}

// TargetItemID returns the item id the lock points at, if any.
func (r CreateLockRequest) TargetItemID() string {
	if r.ItemID != "" {
		return r.ItemID
	}
	return r.LockedItem
}

// LockProgress carries progress amounts for a goal. Used both as a delta
// and as an absolute floor.
type LockProgress struct {
	Minutes         int `json:"minutes"`
	Pages           int `json:"pages"`
	Episodes        int `json:"episodes"`
	PercentComplete int `json:"percentComplete"`
}

// IsZero reports whether the progress carries nothing.
func (p LockProgress) IsZero() bool {
	return p.Minutes <= 0 && p.Pages <= 0 && p.Episodes <= 0 && p.PercentComplete <= 0
}

// LockProgressRequest is the body of POST /lockedItem/progress.
type LockProgressRequest struct {
	KeyParent string `json:"keyParent"`
	// Absolute switches from adding to the stored values to raising them to
	// at least the supplied values.
	Absolute bool `json:"absolute"`
	LockProgress
}

// ClearLockRequest is the body of POST /lockedItem/clear.
type ClearLockRequest struct {
	KeyParent string `json:"keyParent"`
}
