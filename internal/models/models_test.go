package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaType(t *testing.T) {
	for _, raw := range []string{"book", "Movie", " tv ", "GAME"} {
		mt, err := ParseMediaType(raw)
		require.NoError(t, err, raw)
		assert.Contains(t, MediaTypes, mt)
	}

	for _, raw := range []string{"", "podcast", "books"} {
		_, err := ParseMediaType(raw)
		assert.Error(t, err, raw)
	}

	assert.True(t, MediaTypeBook.Paged())
	assert.False(t, MediaTypeTV.Paged())
	assert.True(t, MediaTypeTV.Episodic())
	assert.False(t, MediaTypeMovie.Episodic())
}

func TestLockLookupViewUnlocked(t *testing.T) {
	data, err := json.Marshal(LockLookup{KeyParent: "item-1"}.View())
	require.NoError(t, err)

	assert.JSONEq(t, `{"keyParent":"item-1","locked":false,"goalTime":0,"goalPages":0,"goalEpisodes":0}`, string(data))
}

func TestLockLookupViewFound(t *testing.T) {
	item := &LockedItem{ID: "l1", KeyParent: "book", Locked: true, GoalPages: 300}
	view := LockLookup{KeyParent: "book", Found: true, Item: item}.View()

	assert.Same(t, item, view)
}

func TestCreateLockRequestTargetItemID(t *testing.T) {
	assert.Equal(t, "a", CreateLockRequest{ItemID: "a", LockedItem: "b"}.TargetItemID())
	assert.Equal(t, "b", CreateLockRequest{LockedItem: "b"}.TargetItemID())
	assert.Empty(t, CreateLockRequest{}.TargetItemID())
}
