package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	statusKeepalive    = 30 * time.Second
	statusWriteTimeout = 5 * time.Second
)

var statusUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := statusUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.serveStatusConnection(conn)
}

// serveStatusConnection pushes the connectivity snapshot immediately, on
// every online/offline transition, and at a keepalive interval.
func (s *Server) serveStatusConnection(conn *websocket.Conn) {
	defer conn.Close()

	events := s.monitor.Subscribe()
	defer s.monitor.Unsubscribe(events)

	if err := writeStatusPayload(conn, s.statusPayload()); err != nil {
		return
	}

	ticker := time.NewTicker(statusKeepalive)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-events:
			if err := writeStatusPayload(conn, s.statusPayload()); err != nil {
				return
			}
		case <-ticker.C:
			if err := writeStatusPayload(conn, s.statusPayload()); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeStatusPayload(conn *websocket.Conn, payload statusResponse) error {
	if err := conn.SetWriteDeadline(time.Now().Add(statusWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(payload)
}
