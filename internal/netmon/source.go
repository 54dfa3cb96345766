package netmon

import (
	"net"
	"time"
)

// ReachabilitySource reports platform-level network reachability. It is the
// host's view of connectivity, independent of whether any particular
// endpoint actually answers.
type ReachabilitySource interface {
	// Current returns the reachability state right now.
	Current() bool
	// Transitions delivers online/offline edges. The channel is closed
	// when the source is closed.
	Transitions() <-chan bool
	// Close stops the source and releases its resources.
	Close() error
}

// InterfaceSource derives reachability from local interface state: the host
// counts as online while at least one non-loopback interface is up and has
// an address assigned.
type InterfaceSource struct {
	poll time.Duration

	events chan bool
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewInterfaceSource starts polling interface state at the given interval.
func NewInterfaceSource(poll time.Duration) *InterfaceSource {
	if poll <= 0 {
		poll = 5 * time.Second
	}
	s := &InterfaceSource{
		poll:   poll,
		events: make(chan bool, 4),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.run()
	return s
}

// Current samples interface state directly.
func (s *InterfaceSource) Current() bool {
	return hasActiveInterface()
}

// Transitions returns the edge channel.
func (s *InterfaceSource) Transitions() <-chan bool {
	return s.events
}

// Close terminates the polling loop and closes the transition channel.
func (s *InterfaceSource) Close() error {
	select {
	case <-s.doneCh:
		return nil
	default:
	}
	close(s.stopCh)
	<-s.doneCh
	return nil
}

func (s *InterfaceSource) run() {
	defer close(s.doneCh)
	defer close(s.events)

	last := hasActiveInterface()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			online := hasActiveInterface()
			if online == last {
				continue
			}
			last = online
			select {
			case s.events <- online:
			default:
				// Receiver is behind; it will catch up from Current.
			}
		case <-s.stopCh:
			return
		}
	}
}

func hasActiveInterface() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp == 0 || ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		return true
	}
	return false
}
