package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gamepulse/internal/models"
)

// ConnectivityStorage persists ping samples to disk.
type ConnectivityStorage struct {
	mu        sync.RWMutex
	path      string
	retention int
	history   []models.PingOutcome
}

// NewConnectivityStorage creates a storage instance and loads existing
// samples if present. Retention bounds how many samples are kept; older
// samples are dropped on append.
func NewConnectivityStorage(path string, retention int) (*ConnectivityStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}
	if retention <= 0 {
		retention = 5000
	}

	s := &ConnectivityStorage{path: path, retention: retention}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Append adds a new sample and persists the history to disk.
func (s *ConnectivityStorage) Append(sample models.PingOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, sample)
	if len(s.history) > s.retention {
		s.history = s.history[len(s.history)-s.retention:]
	}
	return s.persistLocked()
}

// Latest returns the most recent sample if one exists.
func (s *ConnectivityStorage) Latest() (models.PingOutcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return models.PingOutcome{}, false
	}
	return s.history[len(s.history)-1], true
}

// History returns a copy of the entire history slice.
func (s *ConnectivityStorage) History() []models.PingOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]models.PingOutcome, len(s.history))
	copy(copied, s.history)
	return copied
}

// HistoryN returns up to limit of the most recent samples.
func (s *ConnectivityStorage) HistoryN(limit int) []models.PingOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]models.PingOutcome, limit)
	copy(out, s.history[len(s.history)-limit:])
	return out
}

// Prune drops samples checked before the cutoff and persists the result.
func (s *ConnectivityStorage) Prune(before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := 0
	for idx < len(s.history) && s.history[idx].CheckedAt.Before(before) {
		idx++
	}
	if idx == 0 {
		return nil
	}
	s.history = append([]models.PingOutcome{}, s.history[idx:]...)
	return s.persistLocked()
}

func (s *ConnectivityStorage) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.history = []models.PingOutcome{}
			return nil
		}
		return fmt.Errorf("read ping history: %w", err)
	}
	if len(data) == 0 {
		s.history = []models.PingOutcome{}
		return nil
	}

	var samples []models.PingOutcome
	if err := json.Unmarshal(data, &samples); err != nil {
		return fmt.Errorf("parse ping history: %w", err)
	}
	s.history = samples
	return nil
}

func (s *ConnectivityStorage) persistLocked() error {
	bytes, err := json.MarshalIndent(s.history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ping history: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp ping history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace ping history file: %w", err)
	}
	return nil
}
