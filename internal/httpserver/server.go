// apps/arena-server/internal/httpserver/server.go
//
// Ops HTTP server for the arena.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, timeouts, JSON).
//   - Diagnostics: "/", "/health", "/stats", "/debug/words".
//   - Score history: "/scores" (see routes_scores.go).
//   - WebSocket transport for the game protocol: "/ws" (see ws.go).
//
// The game itself is served over TCP; everything here is read-only except
// /ws, which speaks exactly the same protocol through the same dispatcher.

package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/robalobadob/wordle/apps/arena-server/internal/dispatch"
	"github.com/robalobadob/wordle/apps/arena-server/internal/ledger"
	"github.com/robalobadob/wordle/apps/arena-server/internal/room"
	"github.com/robalobadob/wordle/apps/arena-server/internal/words"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options wires a Server.
type Options struct {
	Dispatcher *dispatch.Dispatcher
	Ledger     ledger.Ledger
	Words      *words.Dictionary
	// TCPLive reports open TCP connections for /stats. Optional.
	TCPLive func() int64
	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration
}

// Server bundles the router and its collaborators.
type Server struct {
	r        *chi.Mux
	opts     Options
	upgrader websocket.Upgrader
	wsLive   *atomic.Int64
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.Ledger == nil {
		opts.Ledger = ledger.Nop{}
	}
	s := &Server{
		r:    chi.NewRouter(),
		opts: opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		wsLive: atomic.NewInt64(0),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics

	// WebSocket sessions are long-lived; keep them out of the timeout group.
	s.r.Get("/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"wordle-arena","endpoints":["/health","/stats","/scores","/debug/words","/ws"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/stats", s.handleStats)
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			n, length := 0, 0
			if s.opts.Words != nil {
				n, length = s.opts.Words.Stats()
			}
			_ = json.NewEncoder(w).Encode(map[string]int{"words": n, "length": length})
		})

		s.mountScores(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found")
		})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Serve serves HTTP on ln until ctx is done, then shuts down gracefully
// within shutdownTimeout. Open WebSocket sessions are closed on ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http shutdown")
	}
	log.Info().Msg("http server stopped")
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

type statsRes struct {
	dispatch.Stats
	TCPConnections int64           `json:"tcp_connections"`
	WSConnections  int64           `json:"ws_connections"`
	RoomList       []room.Snapshot `json:"room_list"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res := statsRes{WSConnections: s.wsLive.Load()}
	if s.opts.Dispatcher != nil {
		res.Stats = s.opts.Dispatcher.Stats()
		res.RoomList = s.opts.Dispatcher.Rooms()
	}
	if s.opts.TCPLive != nil {
		res.TCPConnections = s.opts.TCPLive()
	}
	_ = json.NewEncoder(w).Encode(res)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
