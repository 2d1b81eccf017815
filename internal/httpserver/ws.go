package httpserver

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// wsConn adapts a WebSocket to room.Conn: one protocol message per text
// frame, writes serialised behind mu.
type wsConn struct {
	id      string
	timeout time.Duration

	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsConn) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return errors.Wrap(err, "set write deadline")
		}
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, bytes.TrimRight(msg, "\n")); err != nil {
		return errors.Wrapf(err, "write to %s", c.id)
	}
	return nil
}

// handleWS upgrades the request and feeds every text frame to the
// dispatcher until the client goes away or the server shuts down.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.opts.Dispatcher == nil {
		writeError(w, http.StatusServiceUnavailable, "no_dispatcher")
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	ws.SetReadLimit(64 << 10)
	c := &wsConn{id: uuid.NewString(), ws: ws, timeout: s.opts.WriteTimeout}
	logger := log.With().Str("conn", c.id).Str("remote", r.RemoteAddr).Str("transport", "ws").Logger()

	ctx := r.Context()
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	s.wsLive.Inc()
	logger.Info().Msg("client connected")
	defer func() {
		stop()
		s.opts.Dispatcher.Disconnect(c)
		_ = ws.Close()
		s.wsLive.Dec()
		logger.Info().Msg("client disconnected")
	}()

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("read failed")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		s.opts.Dispatcher.Handle(logger.WithContext(ctx), c, data)
	}
}
