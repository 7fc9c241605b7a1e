package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/galaster/pkg/graph"
	"github.com/matzehuels/galaster/pkg/observability"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = (streamPongWait * 9) / 10
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1 << 16,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Frame is one message of the snapshot stream.
type Frame struct {
	Session  string         `json:"session"`
	Sequence int            `json:"seq"`
	Graph    graph.Snapshot `json:"graph"`
}

// stream upgrades to a websocket and pushes a snapshot every interval until
// the client goes away. Messages from the client are read and discarded so
// that control frames are processed.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	observability.Stream().OnSessionOpen(ctx, id)
	s.logger.Info("stream opened", "session", id, "remote", r.RemoteAddr)

	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	frames, err := s.pushSnapshots(ctx, conn, id)
	observability.Stream().OnSessionClose(ctx, id, frames, err)
	if err != nil {
		s.logger.Debug("stream closed", "session", id, "frames", frames, "error", err)
		return
	}
	s.logger.Info("stream closed", "session", id, "frames", frames)
}

func (s *Server) pushSnapshots(ctx context.Context, conn *websocket.Conn, id string) (int, error) {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	frames := 0
	send := func() error {
		frame := Frame{Session: id, Sequence: frames, Graph: s.g.Snapshot()}
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
			return err
		}
		if err := conn.WriteJSON(frame); err != nil {
			return err
		}
		frames++
		return nil
	}

	if err := send(); err != nil {
		return frames, err
	}
	for {
		select {
		case <-ctx.Done():
			return frames, nil
		case <-tick.C:
			if err := send(); err != nil {
				return frames, err
			}
		case <-ping.C:
			if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
				return frames, err
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return frames, err
			}
		}
	}
}
