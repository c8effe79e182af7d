package models

import (
	"fmt"
	"strings"
	"time"
)

// MediaType is the closed set of trackable media kinds.
type MediaType string

const (
	MediaTypeBook  MediaType = "book"
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
	MediaTypeGame  MediaType = "game"
)

// MediaTypes lists every valid media type.
var MediaTypes = []MediaType{MediaTypeBook, MediaTypeMovie, MediaTypeTV, MediaTypeGame}

// ParseMediaType validates a raw media type string.
func ParseMediaType(s string) (MediaType, error) {
	switch t := MediaType(strings.ToLower(strings.TrimSpace(s))); t {
	case MediaTypeBook, MediaTypeMovie, MediaTypeTV, MediaTypeGame:
		return t, nil
	default:
		return "", fmt.Errorf("unknown media type %q", s)
	}
}

// Paged reports whether duration is measured in pages rather than minutes.
func (t MediaType) Paged() bool { return t == MediaTypeBook }

// Episodic reports whether duration can be derived from an episode count.
func (t MediaType) Episodic() bool { return t == MediaTypeTV }

// MediaItem is a user's tracked piece of media together with its progress.
type MediaItem struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"ownerId"`
	Title             string    `json:"title"`
	Category          string    `json:"category"`
	MediaType         MediaType `json:"mediaType"`
	Duration          int       `json:"duration"`
	CompletedDuration int       `json:"completedDuration"`
	PercentComplete   int       `json:"percentComplete"`
	QueueNumber       int       `json:"queueNumber"`
	Completed         bool      `json:"completed"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CreateMediaItemRequest is the request body for submitting a media item.
// For tv items Episodes may replace Duration.
type CreateMediaItemRequest struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	MediaType string `json:"mediaType"`
	Duration  int    `json:"duration"`
	Episodes  int    `json:"episodes"`
}

// ProgressEntry is a raw progress report. Only the fields that make sense
// for the item's media type are used.
type ProgressEntry struct {
	Pages    int  `json:"pages"`
	Minutes  int  `json:"minutes"`
	Episodes int  `json:"episodes"`
	Reset    bool `json:"reset"`
}

// ProgressSnapshot is the derived view of an item's progress.
type ProgressSnapshot struct {
	PercentComplete  int `json:"percentComplete"`
	ElapsedMinutes   int `json:"elapsedMinutes"`
	RemainingMinutes int `json:"remainingMinutes"`
}

// ProgressResponse is returned by a progress update.
type ProgressResponse struct {
	Item     *MediaItem       `json:"item"`
	Progress ProgressSnapshot `json:"progress"`
}

// UserSettings holds the per-user conversion rates.
type UserSettings struct {
	UserID         string    `json:"userId"`
	ReadingSpeed   float64   `json:"readingSpeed"`
	EpisodeRuntime int       `json:"episodeRuntime"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DefaultSettings returns the settings used when a user has none stored.
func DefaultSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:         userID,
		ReadingSpeed:   DefaultReadingSpeed,
		EpisodeRuntime: DefaultEpisodeRuntime,
	}
}

// UpdateSettingsRequest is the request body for PUT /settings.
type UpdateSettingsRequest struct {
	ReadingSpeed   float64 `json:"readingSpeed"`
	EpisodeRuntime int     `json:"episodeRuntime"`
}

const (
	DefaultReadingSpeed   = 1.0
	DefaultEpisodeRuntime = 30
)
