package protocol

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
)

func TestDecode_GameIDStringOrNumber(t *testing.T) {
	cases := []struct {
		line string
		want GameID
	}{
		{`{"action":"join","game_id":"1234","player":"a"}`, "1234"},
		{`{"action":"join","game_id":1234,"player":"a"}`, "1234"},
		{`{"action":"join","game_id":" 42 "}`, "42"},
		{`{"action":"join","game_id":null}`, ""},
		{`{"action":"join"}`, ""},
	}
	for _, tc := range cases {
		req, err := Decode([]byte(tc.line + "\n"))
		require.NoError(t, err, tc.line)
		assert.Equal(t, tc.want, req.GameID, tc.line)
		assert.Equal(t, ActionJoin, req.Action)
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte("   \n"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"action":`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"action":"join","game_id":true}`))
	assert.Error(t, err)
}

func TestRequest_PlayerOrDefault(t *testing.T) {
	assert.Equal(t, DefaultPlayer, Request{}.PlayerOrDefault())
	assert.Equal(t, DefaultPlayer, Request{Player: "   "}.PlayerOrDefault())
	assert.Equal(t, "bob", Request{Player: " bob "}.PlayerOrDefault())
}

func TestEncode_GuessAckIsFlat(t *testing.T) {
	rr := game.RoundResult{
		Guess:     "arena",
		Tokens:    game.Pattern{game.MarkPresent, game.MarkHit, game.MarkPresent, game.MarkHit, game.MarkMiss},
		Remaining: 5,
	}
	b, err := Encode(GuessAck{OK: true, GuessData: NewGuessData("alice", rr)})
	require.NoError(t, err)
	assert.Equal(t,
		`{"ok":true,"player":"alice","tokens":["?","O","?","O","_"],"won":false,"over":false,"remaining":5}`+"\n",
		string(b))

	single, err := Encode(GuessAck{OK: true, GuessData: NewGuessData("", rr)})
	require.NoError(t, err)
	assert.NotContains(t, string(single), "player")
}

func TestEncode_Events(t *testing.T) {
	b := MustEncode(Event{Event: EventJoin, Data: JoinData{Player: "a", Players: []string{"a", "b"}}})
	assert.Equal(t, `{"event":"join","data":{"player":"a","players":["a","b"]}}`+"\n", string(b))

	b = MustEncode(Event{Event: EventGameOver, Winner: "a"})
	assert.Equal(t, `{"event":"game_over","winner":"a"}`+"\n", string(b))
}

func TestFail(t *testing.T) {
	b := Fail(errors.New("Unknown action: dance"))
	assert.Equal(t, `{"ok":false,"error":"Unknown action: dance"}`+"\n", string(b))
}
