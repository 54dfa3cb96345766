package netmon

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"gamepulse/internal/models"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultPingTimeout  = 5 * time.Second
	defaultPingURL      = "/api/health"
)

// Recorder receives every completed ping attempt, success or failure.
type Recorder interface {
	Append(models.PingOutcome) error
}

// Options configure a Monitor. All fields are optional.
type Options struct {
	PingURL      string
	PingInterval time.Duration
	PingTimeout  time.Duration
	OnOnline     func()
	OnOffline    func()
}

// Monitor tracks network reachability and periodically verifies it against
// a real endpoint. Reachability transitions come from the source only; ping
// outcomes never flip the online flag.
type Monitor struct {
	opts     Options
	source   ReachabilitySource
	recorder Recorder
	logger   *zap.Logger
	client   *http.Client

	mu          sync.RWMutex
	online      bool
	lastPingOK  *bool
	lastPingAt  time.Time
	subscribers map[chan bool]struct{}

	// pingStop/pingDone are touched only by Start and the run goroutine.
	pingStop chan struct{}
	pingDone chan struct{}

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a monitor over the given reachability source. The recorder
// may be nil if ping history is not wanted.
func New(source ReachabilitySource, recorder Recorder, opts Options, logger *zap.Logger) *Monitor {
	if opts.PingURL == "" {
		opts.PingURL = defaultPingURL
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = defaultPingTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		opts:        opts,
		source:      source,
		recorder:    recorder,
		logger:      logger,
		client:      &http.Client{},
		subscribers: make(map[chan bool]struct{}),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start subscribes to the reachability source and, if currently online,
// begins the ping loop.
func (m *Monitor) Start() {
	online := m.source.Current()

	m.mu.Lock()
	m.online = online
	m.mu.Unlock()

	if online {
		m.startPings()
	}
	go m.run()
}

// Stop tears the monitor down: it unsubscribes from the source, cancels the
// ping loop and waits until no attempt is running. Safe to call twice.
func (m *Monitor) Stop() {
	select {
	case <-m.doneCh:
		return
	default:
	}
	close(m.stopCh)
	<-m.doneCh
	_ = m.source.Close()
}

// State returns a snapshot of the current connectivity state.
func (m *Monitor) State() models.ConnectivityState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := models.ConnectivityState{
		Online:   m.online,
		LastPing: models.PingUnknown,
	}
	if m.lastPingOK != nil {
		if *m.lastPingOK {
			state.LastPing = models.PingOK
		} else {
			state.LastPing = models.PingFailed
		}
		at := m.lastPingAt
		state.LastPingAt = &at
	}
	return state
}

// Subscribe registers a consumer for online/offline transitions. Events are
// delivered best-effort; a slow consumer misses edges but can always read
// the authoritative value from State.
func (m *Monitor) Subscribe() chan bool {
	ch := make(chan bool, 4)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

// Unsubscribe removes a previously registered consumer channel.
func (m *Monitor) Unsubscribe(ch chan bool) {
	m.mu.Lock()
	delete(m.subscribers, ch)
	m.mu.Unlock()
}

func (m *Monitor) run() {
	defer close(m.doneCh)
	defer m.stopPings()

	for {
		select {
		case online, ok := <-m.source.Transitions():
			if !ok {
				return
			}
			m.handleTransition(online)
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) handleTransition(online bool) {
	m.mu.Lock()
	changed := online != m.online
	m.online = online
	subs := make([]chan bool, 0, len(m.subscribers))
	for ch := range m.subscribers {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	if !changed {
		return
	}

	if online {
		m.logger.Info("network online")
		if m.opts.OnOnline != nil {
			m.opts.OnOnline()
		}
		m.startPings()
	} else {
		m.logger.Info("network offline")
		if m.opts.OnOffline != nil {
			m.opts.OnOffline()
		}
		m.stopPings()
	}

	for _, ch := range subs {
		select {
		case ch <- online:
		default:
		}
	}
}

func (m *Monitor) startPings() {
	if m.pingStop != nil {
		return
	}
	m.pingStop = make(chan struct{})
	m.pingDone = make(chan struct{})
	go m.pingLoop(m.pingStop, m.pingDone)
}

// stopPings cancels the loop and waits for a running attempt to finish, so
// callers know no ping starts after it returns.
func (m *Monitor) stopPings() {
	if m.pingStop == nil {
		return
	}
	close(m.pingStop)
	<-m.pingDone
	m.pingStop, m.pingDone = nil, nil
}

// pingLoop issues one attempt immediately, then one per interval. Attempts
// run synchronously, so at most one is in flight per monitor.
func (m *Monitor) pingLoop(stop, done chan struct{}) {
	defer close(done)

	m.ping()

	ticker := time.NewTicker(m.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.ping()
		case <-stop:
			return
		}
	}
}

func (m *Monitor) ping() {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.PingTimeout)
	defer cancel()

	started := time.Now()
	outcome := models.PingOutcome{CheckedAt: started.UTC()}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.opts.PingURL, nil)
	if err != nil {
		msg := err.Error()
		outcome.Error = &msg
		m.commit(outcome)
		return
	}

	resp, err := m.client.Do(req)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "ping timed out"
		}
		outcome.Error = &msg
		m.commit(outcome)
		return
	}
	resp.Body.Close()

	latency := float64(time.Since(started).Milliseconds())
	code := resp.StatusCode
	outcome.LatencyMS = &latency
	outcome.StatusCode = &code
	outcome.OK = code >= 200 && code < 300
	if !outcome.OK {
		msg := http.StatusText(code)
		outcome.Error = &msg
	}
	m.commit(outcome)
}

// commit records an attempt. An attempt that resolves after Stop must not
// write into the torn-down monitor.
func (m *Monitor) commit(outcome models.PingOutcome) {
	select {
	case <-m.stopCh:
		return
	default:
	}

	m.mu.Lock()
	ok := outcome.OK
	m.lastPingOK = &ok
	if outcome.CheckedAt.After(m.lastPingAt) {
		m.lastPingAt = outcome.CheckedAt
	}
	m.mu.Unlock()

	if m.recorder != nil {
		if err := m.recorder.Append(outcome); err != nil {
			m.logger.Warn("record ping outcome", zap.Error(err))
		}
	}
}
