package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"gamepulse/internal/models"
)

var gamesBucket = []byte("games")

// GameStore keeps finished game records in a local bbolt database, keyed by
// game ID.
type GameStore struct {
	db *bolt.DB
}

// OpenGameStore opens (or creates) the game database at path.
func OpenGameStore(path string) (*GameStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open game store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(gamesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialise game store: %w", err)
	}
	return &GameStore{db: db}, nil
}

// Close releases the underlying database.
func (s *GameStore) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a game record.
func (s *GameStore) Put(game models.GameRecord) error {
	if game.ID == "" {
		return fmt.Errorf("game record has no id")
	}
	value, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", game.ID, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(gamesBucket).Put([]byte(game.ID), value)
	})
}

// Get loads a single game record by ID.
func (s *GameStore) Get(id string) (models.GameRecord, bool, error) {
	var game models.GameRecord
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(gamesBucket).Get([]byte(id))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &game); err != nil {
			return fmt.Errorf("decode game %s: %w", id, err)
		}
		found = true
		return nil
	})
	return game, found, err
}

// List returns up to limit records, newest finished first. A non-positive
// limit returns everything.
func (s *GameStore) List(limit int) ([]models.GameRecord, error) {
	var games []models.GameRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(gamesBucket).ForEach(func(_, value []byte) error {
			var game models.GameRecord
			if err := json.Unmarshal(value, &game); err != nil {
				return fmt.Errorf("decode game record: %w", err)
			}
			games = append(games, game)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(games, func(i, j int) bool {
		return games[i].FinishedAt.After(games[j].FinishedAt)
	})
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

// Count returns the number of stored game records.
func (s *GameStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(gamesBucket).Stats().KeyN
		return nil
	})
	return count, err
}
