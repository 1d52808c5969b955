// internal/httpserver/live.go
//
// Live game-state feed over a websocket.
// Responsibilities:
//   - GET /game/{id}/live: upgrade and stream the game state as JSON.
//   - Push every LiveInterval while a card is consuming bonus time, after a
//     move, or as a keepalive; stay quiet otherwise.
//   - Ping the peer every 9/10 of pongWait and drop it when pongs stop.

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Default time allowed to read the next pong message from the peer.
	defaultPongWait = 60 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// handleLive streams the game state over a websocket so clients can animate
// the bonus countdown. The server pushes every LiveInterval while a card is
// consuming bonus time; otherwise only after a move or as a keepalive.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == s.cfg.ClientOrigin || origin == "http://"+r.Host
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("live upgrade")
		return
	}
	defer conn.Close()

	pongWait := s.pongWait
	pingPeriod := (pongWait * 9) / 10

	// Reader: only used to notice the peer going away and to receive pongs.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Str("gameId", sess.ID).Msg("live read")
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		}
	}()

	ticker := time.NewTicker(s.cfg.LiveInterval)
	defer ticker.Stop()
	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	var lastSent time.Time
	var last stateView
	for {
		v := snapshot(sess)
		if lastSent.IsZero() || v.liveGame() || last.liveGame() || time.Since(lastSent) > pongWait/2 || changed(last, v) {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(v); err != nil {
				return
			}
			lastSent, last = time.Now(), v
		}
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-pinger.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ticker.C:
		}
	}
}

// changed reports whether a move happened between two snapshots.
func changed(a, b stateView) bool {
	return a.Flips != b.Flips || a.Score != b.Score
}
