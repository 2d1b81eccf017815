// apps/arena-server/internal/dispatch/dispatch.go
//
// Dispatcher turns decoded protocol requests into registry, room and session
// operations. It is transport agnostic: TCP and WebSocket connections both
// hand it one request line at a time together with their room.Conn.
//
// Every error becomes {"ok":false,"error":...} for the originator only.

package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/robalobadob/wordle/apps/arena-server/internal/daily"
	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/ledger"
	"github.com/robalobadob/wordle/apps/arena-server/internal/protocol"
	"github.com/robalobadob/wordle/apps/arena-server/internal/room"
	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
	"github.com/robalobadob/wordle/apps/arena-server/internal/words"
)

// Options wires a Dispatcher.
type Options struct {
	Store  store.Store
	Config game.Config
	Ledger ledger.Recorder
	// Daily picks the answer for "daily" games.
	Daily daily.Picker
	// Answer picks the answer for "normal" games. Defaults to a uniform
	// random word from Config.
	Answer func() string
}

// Dispatcher routes requests. Safe for concurrent use.
type Dispatcher struct {
	store  store.Store
	cfg    game.Config
	ledger ledger.Recorder
	daily  daily.Picker
	answer func() string

	requests *atomic.Int64
	failures *atomic.Int64
}

// New builds a Dispatcher from opts.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		store:    opts.Store,
		cfg:      opts.Config,
		ledger:   opts.Ledger,
		daily:    opts.Daily,
		answer:   opts.Answer,
		requests: atomic.NewInt64(0),
		failures: atomic.NewInt64(0),
	}
	if d.ledger == nil {
		d.ledger = ledger.Nop{}
	}
	if d.answer == nil {
		d.answer = words.New(opts.Config.Words(), opts.Config.WordLength()).Random
	}
	if len(d.daily.Words) == 0 {
		d.daily.Words = opts.Config.Words()
	}
	return d
}

// Handle processes one request line from conn. Responses and events are
// written through conn (and, for rooms, to every other member).
func (d *Dispatcher) Handle(ctx context.Context, conn room.Conn, line []byte) {
	d.requests.Inc()
	req, err := protocol.Decode(line)
	if err != nil {
		d.fail(conn, err)
		return
	}
	log.Debug().Str("action", req.Action).Str("game_id", string(req.GameID)).Msg("request")

	switch strings.TrimSpace(req.Action) {
	case protocol.ActionCreate:
		err = d.create(conn, req)
	case protocol.ActionCreateMulti:
		err = d.createMulti(conn, req)
	case protocol.ActionJoin:
		err = d.join(conn, req)
	case protocol.ActionGuess:
		err = d.guess(ctx, conn, req)
	default:
		err = errors.Errorf("Unknown action: %s", req.Action)
	}
	if err != nil {
		d.fail(conn, err)
	}
}

// Disconnect removes conn from every room it may belong to.
func (d *Dispatcher) Disconnect(conn room.Conn) {
	for _, r := range d.store.Rooms() {
		r.Detach(conn)
	}
}

// Stats is the dispatcher's view for diagnostics.
type Stats struct {
	store.Stats
	Requests int64 `json:"requests"`
	Failures int64 `json:"failures"`
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Stats:    d.store.Stats(),
		Requests: d.requests.Load(),
		Failures: d.failures.Load(),
	}
}

// Rooms snapshots every room in id order.
func (d *Dispatcher) Rooms() []room.Snapshot {
	rooms := d.store.Rooms()
	out := make([]room.Snapshot, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Snapshot())
	}
	return out
}

func (d *Dispatcher) create(conn room.Conn, req protocol.Request) error {
	mode := modeOrDefault(req.Mode)
	s, err := d.store.CreateSession(func(id string) (*room.Session, error) {
		g, err := d.newGame(mode)
		if err != nil {
			return nil, err
		}
		return room.NewSession(id, mode, g), nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("game_id", s.ID()).Str("mode", mode).Msg("session created")
	d.reply(conn, protocol.Created{OK: true, GameID: s.ID()})
	return nil
}

func (d *Dispatcher) createMulti(conn room.Conn, req protocol.Request) error {
	mode := modeOrDefault(req.Mode)
	r, err := d.store.CreateRoom(func(id string) (*room.Room, error) {
		g, err := d.newGame(mode)
		if err != nil {
			return nil, err
		}
		return room.New(id, mode, g, d.ledger), nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("room", r.ID()).Str("mode", mode).Msg("room created")
	d.reply(conn, protocol.Created{OK: true, GameID: r.ID()})
	return nil
}

func (d *Dispatcher) join(conn room.Conn, req protocol.Request) error {
	if req.GameID == "" {
		return errors.New("missing game_id")
	}
	r, err := d.store.Room(string(req.GameID))
	if err != nil {
		return err
	}
	r.Join(conn, req.PlayerOrDefault())
	return nil
}

// guess tries the room registry first, then single-player sessions. A room
// sends its own ack and broadcasts; a session is acked here.
func (d *Dispatcher) guess(ctx context.Context, conn room.Conn, req protocol.Request) error {
	if req.GameID == "" {
		return errors.New("missing game_id")
	}
	id := string(req.GameID)
	player := req.PlayerOrDefault()

	if r, err := d.store.Room(id); err == nil {
		_, err = r.Guess(ctx, conn, player, req.Word)
		return err
	}

	s, err := d.store.Session(id)
	if err != nil {
		return err
	}
	rr, rounds, err := s.Guess(req.Word)
	if err != nil {
		return err
	}
	d.reply(conn, protocol.GuessAck{OK: true, GuessData: protocol.NewGuessData("", rr)})
	if rr.Over {
		e := ledger.Entry{Player: player, Rounds: rounds, Win: rr.Won, Mode: s.Mode(), Time: time.Now()}
		if err := d.ledger.Record(ctx, e); err != nil {
			log.Warn().Err(err).Str("game_id", id).Msg("record score")
		}
	}
	return nil
}

func (d *Dispatcher) newGame(mode string) (game.Game, error) {
	switch mode {
	case protocol.ModeNormal:
		return game.NewStandard(d.answer(), d.cfg)
	case protocol.ModeCheat:
		return game.NewAdversarial(d.cfg), nil
	case protocol.ModeDaily:
		word, date := d.daily.Answer()
		log.Debug().Str("date", date).Msg("daily answer selected")
		return game.NewStandard(word, d.cfg)
	default:
		return nil, errors.Errorf("Unknown mode: %s", mode)
	}
}

func (d *Dispatcher) fail(conn room.Conn, err error) {
	d.failures.Inc()
	log.Debug().Err(err).Msg("request rejected")
	if sendErr := conn.Send(protocol.Fail(err)); sendErr != nil {
		log.Warn().Err(sendErr).Msg("send failure response")
	}
}

func (d *Dispatcher) reply(conn room.Conn, v any) {
	if err := conn.Send(protocol.MustEncode(v)); err != nil {
		log.Warn().Err(err).Msg("send response")
	}
}

func modeOrDefault(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return protocol.ModeNormal
	}
	return mode
}
