package main

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/polyphene/recs-contract/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	feedWriteTimeout = 10 * time.Second
	feedPingInterval = 30 * time.Second
)

// feedFrame is one notification pushed to a websocket subscriber.
type feedFrame struct {
	Kind  domain.EventKind `json:"kind"`
	Event domain.Event     `json:"event"`
}

// dropBaseline tracks how much of the bus drop counter has already been
// reported to metrics.
var dropBaseline atomic.Uint64

// handleFeed upgrades the connection and streams every notification the
// runtime emits until the client disconnects.
func (s *server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ch, cancel := s.bus.Subscribe()
	defer cancel()

	if s.metrics != nil {
		s.metrics.FeedSubscribers.Inc()
		defer s.metrics.FeedSubscribers.Dec()
		defer s.reportDropped()
	}

	// Read pump: discard client frames, notice the disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteJSON(feedFrame{Kind: event.Kind(), Event: event}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// reportDropped moves the bus drop counter delta into metrics.
func (s *server) reportDropped() {
	current := s.bus.Dropped()
	previous := dropBaseline.Swap(current)
	if current > previous {
		s.metrics.FeedDroppedTotal.Add(float64(current - previous))
	}
}
