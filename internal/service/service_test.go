package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"media-tracker/internal/models"
	"media-tracker/internal/repository/memory"
)

type testServices struct {
	store    *memory.Store
	media    *MediaService
	locks    *LockService
	social   *SocialService
	settings *SettingsService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	store := memory.NewStore()
	settings := NewSettingsService(store)
	locks := NewLockService(store)
	return &testServices{
		store:    store,
		media:    NewMediaService(store, NewMaxSequencer(store), settings, locks),
		locks:    locks,
		social:   NewSocialService(store, store),
		settings: settings,
	}
}

func (ts *testServices) createItem(t *testing.T, owner, title, category, mediaType string, duration int) *models.MediaItem {
	t.Helper()
	item, err := ts.media.Create(context.Background(), owner, models.CreateMediaItemRequest{
		Title:     title,
		Category:  category,
		MediaType: mediaType,
		Duration:  duration,
	})
	require.NoError(t, err)
	return item
}
