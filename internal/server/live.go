package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	snapshotPushInterval = 30 * time.Second
	snapshotWriteTimeout = 5 * time.Second
)

var snapshotUpgrader = websocket.Upgrader{
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

func (s *Server) handleSnapshotWS(w http.ResponseWriter, r *http.Request) {
	conn, err := snapshotUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.serveSnapshotConnection(conn)
}

// serveSnapshotConnection pushes a snapshot immediately and then on every
// interval until the client goes away.
func (s *Server) serveSnapshotConnection(conn *websocket.Conn) {
	defer conn.Close()

	if err := s.pushSnapshot(conn); err != nil {
		return
	}

	ticker := time.NewTicker(s.pushInterval)
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
		case <-ticker.C:
			if err := s.pushSnapshot(conn); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) pushSnapshot(conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotWriteTimeout)
	defer cancel()

	snap, err := s.dash.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("snapshot failed", "error", err)
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(snapshotWriteTimeout))
	return conn.WriteJSON(snap)
}
