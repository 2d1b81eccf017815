// apps/arena-server/internal/room/room.go
//
// Authoritative multiplayer room state.
// Invariants:
//   - One game.Game instance holds the truth for every participant.
//   - Room.mu guards the game, the player set, the live connection set and
//     the over flag; nothing else touches them.
//   - The lock is released before any network write. Decisions (winner,
//     game over) are atomic; notifications follow in a fixed order:
//     ack to the originator, then the "guess" broadcast, then "game_over".
//   - A failed write drops that connection only; it is never a game error.

package room

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/ledger"
	"github.com/robalobadob/wordle/apps/arena-server/internal/protocol"
)

// Conn is an outbound connection. Implementations must be safe for
// concurrent Send calls. The room never closes a Conn.
type Conn interface {
	Send(msg []byte) error
}

// Room binds one game to every connected participant.
type Room struct {
	id     string
	mode   string
	ledger ledger.Recorder
	log    zerolog.Logger

	mu      sync.Mutex
	game    game.Game
	players map[string]struct{}
	conns   map[Conn]struct{}
	over    bool
}

// New creates a room around g. rec may be nil.
func New(id, mode string, g game.Game, rec ledger.Recorder) *Room {
	if rec == nil {
		rec = ledger.Nop{}
	}
	return &Room{
		id:      id,
		mode:    mode,
		ledger:  rec,
		log:     log.With().Str("room", id).Str("mode", mode).Logger(),
		game:    g,
		players: make(map[string]struct{}),
		conns:   make(map[Conn]struct{}),
	}
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// Join adds player and conn, acks the joiner, and broadcasts the new
// membership. Repeating a join with the same conn and player is acked again
// but not re-broadcast.
func (r *Room) Join(conn Conn, player string) []string {
	r.mu.Lock()
	_, knownPlayer := r.players[player]
	_, knownConn := r.conns[conn]
	r.players[player] = struct{}{}
	r.conns[conn] = struct{}{}
	players := r.playersLocked()
	r.mu.Unlock()

	r.send(conn, protocol.MustEncode(protocol.Joined{OK: true, Joined: player, Players: players}))
	if knownPlayer && knownConn {
		return players
	}

	r.log.Info().Str("player", player).Int("players", len(players)).Msg("player joined")
	r.broadcast(protocol.MustEncode(protocol.Event{
		Event: protocol.EventJoin,
		Data:  protocol.JoinData{Player: player, Players: players},
	}))
	return players
}

// Guess applies word on behalf of player. Rejections (game over, illegal
// or malformed word) are returned without touching state or notifying
// anyone; the caller answers the originator. On success the room sends the
// ack and broadcasts itself.
func (r *Room) Guess(ctx context.Context, conn Conn, player, word string) (game.RoundResult, error) {
	r.mu.Lock()
	// Late attach (reconnect or guess-before-join): no join broadcast.
	r.conns[conn] = struct{}{}
	if r.over {
		r.mu.Unlock()
		return game.RoundResult{}, game.ErrGameOver
	}
	rr, err := r.game.Guess(word)
	if err != nil {
		r.mu.Unlock()
		return game.RoundResult{}, err
	}
	// Decided under the lock so two in-flight winning guesses cannot both
	// be credited.
	ended := rr.Over
	if ended {
		r.over = true
	}
	winner := ""
	if rr.Won {
		winner = player
	}
	var answer string
	if ended && !rr.Won {
		answer = r.game.Reveal()
	}
	round := r.game.Round()
	r.mu.Unlock()

	data := protocol.NewGuessData(player, rr)
	r.send(conn, protocol.MustEncode(protocol.GuessAck{OK: true, GuessData: data}))
	r.broadcast(protocol.MustEncode(protocol.Event{Event: protocol.EventGuess, Data: data}))

	if ended {
		r.broadcast(protocol.MustEncode(protocol.Event{
			Event:  protocol.EventGameOver,
			Winner: winner,
			Answer: answer,
		}))
		r.log.Info().Str("winner", winner).Int("rounds", round).Msg("game over")
		r.record(ctx, player, round, rr.Won)
	}
	return rr, nil
}

// Detach removes conn from the live set. The room itself stays.
func (r *Room) Detach(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn)
}

// Snapshot is a read-only view used by diagnostics and tests.
type Snapshot struct {
	ID      string   `json:"id"`
	Mode    string   `json:"mode"`
	Players []string `json:"players"`
	Conns   int      `json:"connections"`
	Round   int      `json:"round"`
	Over    bool     `json:"over"`
}

// Snapshot copies the current state under the lock.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		ID:      r.id,
		Mode:    r.mode,
		Players: r.playersLocked(),
		Conns:   len(r.conns),
		Round:   r.game.Round(),
		Over:    r.over,
	}
}

func (r *Room) playersLocked() []string {
	out := make([]string, 0, len(r.players))
	for p := range r.players {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (r *Room) liveConnsLocked() []Conn {
	out := make([]Conn, 0, len(r.conns))
	for c := range r.conns {
		out = append(out, c)
	}
	return out
}

// send writes a point-to-point message. Failures are logged; the broadcast
// that follows removes the connection if it is really gone.
func (r *Room) send(conn Conn, msg []byte) {
	if err := conn.Send(msg); err != nil {
		r.log.Warn().Err(err).Msg("send failed")
	}
}

// broadcast writes msg to a snapshot of the live set without holding the
// lock, then drops every connection whose write failed.
func (r *Room) broadcast(msg []byte) {
	r.mu.Lock()
	targets := r.liveConnsLocked()
	r.mu.Unlock()

	var dead []Conn
	for _, c := range targets {
		if err := c.Send(msg); err != nil {
			dead = append(dead, c)
			r.log.Warn().Err(err).Msg("broadcast failed, dropping connection")
		}
	}
	if len(dead) > 0 {
		r.mu.Lock()
		for _, c := range dead {
			delete(r.conns, c)
		}
		r.mu.Unlock()
	}
	r.log.Debug().Int("delivered", len(targets)-len(dead)).Int("dropped", len(dead)).Msg("broadcast")
}

func (r *Room) record(ctx context.Context, player string, rounds int, win bool) {
	err := r.ledger.Record(ctx, ledger.Entry{
		Player: player,
		Rounds: rounds,
		Win:    win,
		Mode:   "multi:" + r.mode,
		Time:   time.Now(),
	})
	if err != nil {
		r.log.Warn().Err(err).Str("player", player).Msg("record score")
	}
}
