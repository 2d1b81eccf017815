// apps/arena-server/internal/tcpserver/server.go
//
// TCP transport for the line-delimited JSON protocol.
// Responsibilities:
//   - Accept connections, one goroutine per connection.
//   - Frame requests on '\n' and hand each line to the Handler.
//   - Serialise writes per connection behind a mutex and a write deadline,
//     so a slow client only ever fails its own writes.
//   - On read failure or shutdown, detach the connection everywhere.

package tcpserver

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/robalobadob/wordle/apps/arena-server/internal/room"
)

// maxLine bounds a single request.
const maxLine = 64 << 10

// Handler consumes request lines. dispatch.Dispatcher satisfies it.
type Handler interface {
	Handle(ctx context.Context, conn room.Conn, line []byte)
	Disconnect(conn room.Conn)
}

// Options configures a Server.
type Options struct {
	Addr         string
	WriteTimeout time.Duration
}

// Server is the TCP front end.
type Server struct {
	opts    Options
	handler Handler

	live  *atomic.Int64
	total *atomic.Int64
	wg    sync.WaitGroup
}

func New(h Handler, opts Options) *Server {
	return &Server{
		opts:    opts,
		handler: h,
		live:    atomic.NewInt64(0),
		total:   atomic.NewInt64(0),
	}
}

// ListenAndServe listens on opts.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.opts.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done, then closes every open connection
// and waits for their goroutines.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Info().Str("addr", ln.Addr().String()).Msg("tcp server listening")
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				log.Info().Msg("tcp server stopped")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.wg.Wait()
			return errors.Wrap(err, "accept")
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, nc)
		}()
	}
}

// Live is the number of open connections.
func (s *Server) Live() int64 { return s.live.Load() }

// Total is the number of connections accepted since start.
func (s *Server) Total() int64 { return s.total.Load() }

func (s *Server) serveConn(ctx context.Context, nc net.Conn) {
	lc := &lineConn{
		id:      uuid.NewString(),
		conn:    nc,
		timeout: s.opts.WriteTimeout,
	}
	logger := log.With().Str("conn", lc.id).Str("remote", nc.RemoteAddr().String()).Logger()
	s.live.Inc()
	s.total.Inc()
	logger.Info().Int64("live", s.live.Load()).Msg("client connected")

	stop := context.AfterFunc(ctx, func() { _ = nc.Close() })
	defer func() {
		stop()
		s.handler.Disconnect(lc)
		_ = nc.Close()
		s.live.Dec()
		logger.Info().Int64("live", s.live.Load()).Msg("client disconnected")
	}()

	sc := bufio.NewScanner(nc)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		s.handler.Handle(logger.WithContext(ctx), lc, line)
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		logEnd(logger, err)
	}
}

func logEnd(logger zerolog.Logger, err error) {
	if errors.Is(err, net.ErrClosed) {
		return
	}
	logger.Warn().Err(err).Msg("read failed")
}

// lineConn implements room.Conn over a net.Conn.
type lineConn struct {
	id      string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

func (c *lineConn) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return errors.Wrap(err, "set write deadline")
		}
	}
	if _, err := c.conn.Write(msg); err != nil {
		return errors.Wrapf(err, "write to %s", c.id)
	}
	return nil
}
