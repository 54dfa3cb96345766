package games

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamepulse/internal/models"
	"gamepulse/internal/storage"
)

func openSyncStore(t *testing.T) *storage.GameStore {
	t.Helper()
	store, err := storage.OpenGameStore(filepath.Join(t.TempDir(), "games.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSyncOncePagesThroughBackend(t *testing.T) {
	finished := time.Date(2026, 8, 20, 19, 0, 0, 0, time.UTC)
	all := []models.GameRecord{
		{ID: "g1", Mode: "classic", FinishedAt: finished},
		{ID: "g2", Mode: "classic", FinishedAt: finished.Add(time.Minute)},
		{ID: "g3", Mode: "duel", FinishedAt: finished.Add(2 * time.Minute)},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		page := models.GamesSnapshot{FetchedAt: time.Now().UTC()}
		if offset < len(all) {
			end := offset + limit
			if end > len(all) {
				end = len(all)
			}
			page.Games = all[offset:end]
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	store := openSyncStore(t)
	syncer := NewSyncer(NewClient(srv.URL, ""), store, time.Minute, 2, nil)

	count, err := syncer.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	stored, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "g3", stored[0].ID)

	status := syncer.Status()
	assert.Empty(t, status.LastError)
	assert.Equal(t, 3, status.LastCount)
	assert.False(t, status.LastSyncAt.IsZero())
}

func TestSyncOnceAssignsIDsToLegacyRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := models.GamesSnapshot{
			FetchedAt: time.Now().UTC(),
			Games: []models.GameRecord{
				{Mode: "classic", FinishedAt: time.Now().UTC()},
			},
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	store := openSyncStore(t)
	syncer := NewSyncer(NewClient(srv.URL, ""), store, time.Minute, 10, nil)

	count, err := syncer.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotEmpty(t, stored[0].ID)
}

func TestSyncOnceRecordsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	store := openSyncStore(t)
	syncer := NewSyncer(NewClient(srv.URL, ""), store, time.Minute, 10, nil)

	_, err := syncer.SyncOnce(context.Background())
	require.Error(t, err)

	status := syncer.Status()
	assert.NotEmpty(t, status.LastError)
	assert.Equal(t, 0, status.LastCount)
}
