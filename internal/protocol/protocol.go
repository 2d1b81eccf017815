// apps/arena-server/internal/protocol/protocol.go
//
// Wire types for the line-delimited JSON protocol.
//
// Requests (client → server), one object per line:
//   {"action":"create","mode":"normal"|"cheat"|"daily"}
//   {"action":"create_multi","mode":"normal"|"cheat"|"daily"}
//   {"action":"join","game_id":"1234","player":"alice"}
//   {"action":"guess","game_id":"1234","player":"alice","word":"crane"}
//
// Responses (server → originator) always carry "ok". Events (server → every
// room member) carry "event" instead.

package protocol

import (
	"strconv"
	"strings"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
)

// Actions.
const (
	ActionCreate      = "create"
	ActionCreateMulti = "create_multi"
	ActionJoin        = "join"
	ActionGuess       = "guess"
)

// Game modes.
const (
	ModeNormal = "normal"
	ModeCheat  = "cheat"
	ModeDaily  = "daily"
)

// Event names.
const (
	EventJoin     = "join"
	EventGuess    = "guess"
	EventGameOver = "game_over"
)

// DefaultPlayer is used when a request omits "player".
const DefaultPlayer = "anon"

// GameID accepts either a JSON string or a JSON number.
type GameID string

func (id *GameID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		*id = GameID(strings.TrimSpace(unq))
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return err
	}
	*id = GameID(s)
	return nil
}

// Request is the union of every client request shape.
type Request struct {
	Action string `json:"action"`
	Mode   string `json:"mode,omitempty"`
	GameID GameID `json:"game_id,omitempty"`
	Player string `json:"player,omitempty"`
	Word   string `json:"word,omitempty"`
}

// PlayerOrDefault returns the trimmed player name or DefaultPlayer.
func (r Request) PlayerOrDefault() string {
	if p := strings.TrimSpace(r.Player); p != "" {
		return p
	}
	return DefaultPlayer
}

// Created answers create and create_multi.
type Created struct {
	OK     bool   `json:"ok"`
	GameID string `json:"game_id"`
}

// Joined answers join.
type Joined struct {
	OK      bool     `json:"ok"`
	Joined  string   `json:"joined"`
	Players []string `json:"players"`
}

// GuessData is the result payload shared by the guess ack and the guess
// broadcast, so both carry byte-identical fields.
type GuessData struct {
	Player    string      `json:"player,omitempty"`
	Tokens    []game.Mark `json:"tokens"`
	Won       bool        `json:"won"`
	Over      bool        `json:"over"`
	Remaining int         `json:"remaining"`
}

// NewGuessData copies a RoundResult into its wire form.
func NewGuessData(player string, rr game.RoundResult) GuessData {
	tokens := make([]game.Mark, len(rr.Tokens))
	copy(tokens, rr.Tokens)
	return GuessData{
		Player:    player,
		Tokens:    tokens,
		Won:       rr.Won,
		Over:      rr.Over,
		Remaining: rr.Remaining,
	}
}

// GuessAck answers guess; GuessData fields are flattened into the object.
type GuessAck struct {
	OK bool `json:"ok"`
	GuessData
}

// Failure answers any rejected or malformed request.
type Failure struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// JoinData is the payload of a join event.
type JoinData struct {
	Player  string   `json:"player"`
	Players []string `json:"players"`
}

// Event is broadcast to every connection of a room.
type Event struct {
	Event  string `json:"event"`
	Data   any    `json:"data,omitempty"`
	Winner string `json:"winner,omitempty"`
	Answer string `json:"answer,omitempty"`
}
