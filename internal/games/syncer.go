package games

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gamepulse/internal/storage"
)

const maxPagesPerSync = 20

// SyncStatus describes the most recent sync cycle.
type SyncStatus struct {
	LastSyncAt time.Time `json:"last_sync_at"`
	LastError  string    `json:"last_error,omitempty"`
	LastCount  int       `json:"last_count"`
}

// Syncer periodically pulls finished games from the backend into the local
// game store.
type Syncer struct {
	client   *Client
	store    *storage.GameStore
	interval time.Duration
	pageSize int
	logger   *zap.Logger

	mu     sync.RWMutex
	status SyncStatus

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSyncer wires a games client to the local store.
func NewSyncer(client *Client, store *storage.GameStore, interval time.Duration, pageSize int, logger *zap.Logger) *Syncer {
	if interval < 15*time.Second {
		interval = 15 * time.Second
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Syncer{
		client:   client,
		store:    store,
		interval: interval,
		pageSize: pageSize,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches background synchronisation.
func (s *Syncer) Start() {
	go s.run()
}

// Stop terminates background synchronisation.
func (s *Syncer) Stop() {
	s.cancel()
}

// Status returns the outcome of the most recent sync cycle.
func (s *Syncer) Status() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SyncOnce runs a single sync cycle and returns how many records were
// upserted.
func (s *Syncer) SyncOnce(ctx context.Context) (int, error) {
	total := 0
	for page := 0; page < maxPagesPerSync; page++ {
		snapshot, err := s.client.FetchGames(ctx, s.pageSize, page*s.pageSize)
		if err != nil {
			s.recordCycle(total, err)
			return total, err
		}

		for _, game := range snapshot.Games {
			if game.ID == "" {
				// Older backends omitted IDs; the store needs a key.
				game.ID = uuid.NewString()
			}
			if err := s.store.Put(game); err != nil {
				s.recordCycle(total, err)
				return total, err
			}
			total++
		}

		if len(snapshot.Games) < s.pageSize {
			break
		}
	}
	s.recordCycle(total, nil)
	return total, nil
}

func (s *Syncer) run() {
	if _, err := s.SyncOnce(s.ctx); err != nil {
		s.logger.Warn("initial game sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SyncOnce(s.ctx); err != nil {
				s.logger.Warn("game sync failed", zap.Error(err))
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Syncer) recordCycle(count int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = SyncStatus{
		LastSyncAt: time.Now().UTC(),
		LastCount:  count,
	}
	if err != nil {
		s.status.LastError = err.Error()
	}
}
