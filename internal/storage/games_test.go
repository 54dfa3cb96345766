package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamepulse/internal/models"
)

func testGame(id string, finished time.Time) models.GameRecord {
	return models.GameRecord{
		ID:     id,
		Mode:   "classic",
		Rounds: 10,
		Players: []models.PlayerResult{
			{Name: "ada", Score: 900, Correct: 9},
			{Name: "grace", Score: 700, Correct: 7},
		},
		StartedAt:  finished.Add(-15 * time.Minute),
		FinishedAt: finished,
	}
}

func openTestStore(t *testing.T) *GameStore {
	t.Helper()
	store, err := OpenGameStore(filepath.Join(t.TempDir(), "games.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGameStorePutGet(t *testing.T) {
	store := openTestStore(t)

	game := testGame("g1", time.Date(2026, 8, 20, 19, 0, 0, 0, time.UTC))
	require.NoError(t, store.Put(game))

	loaded, found, err := store.Get("g1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, game.Players, loaded.Players)
	assert.True(t, game.FinishedAt.Equal(loaded.FinishedAt))

	_, found, err = store.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGameStoreRejectsEmptyID(t *testing.T) {
	store := openTestStore(t)

	err := store.Put(models.GameRecord{Mode: "classic"})
	require.Error(t, err)
}

func TestGameStoreListNewestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 20, 19, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(testGame("old", base)))
	require.NoError(t, store.Put(testGame("mid", base.Add(time.Hour))))
	require.NoError(t, store.Put(testGame("new", base.Add(2*time.Hour))))

	games, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, "new", games[0].ID)
	assert.Equal(t, "old", games[2].ID)

	limited, err := store.List(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "new", limited[0].ID)
}

func TestGameStorePutReplacesExisting(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 20, 19, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(testGame("g1", base)))

	updated := testGame("g1", base)
	updated.Rounds = 12
	require.NoError(t, store.Put(updated))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	loaded, found, err := store.Get("g1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 12, loaded.Rounds)
}
