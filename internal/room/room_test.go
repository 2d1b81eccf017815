package room

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/ledger"
)

type fakeConn struct {
	mu   sync.Mutex
	msgs []map[string]any
	fail bool
}

func (f *fakeConn) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeConn) all() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.msgs...)
}

func (f *fakeConn) events(name string) []map[string]any {
	var out []map[string]any
	for _, m := range f.all() {
		if m["event"] == name {
			out = append(out, m)
		}
	}
	return out
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []ledger.Entry
}

func (l *fakeLedger) Record(_ context.Context, e ledger.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return nil
}

func (l *fakeLedger) all() []ledger.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ledger.Entry(nil), l.entries...)
}

var roomWords = []string{"crane", "slate", "lemon", "brick", "stone", "arena", "waltz"}

func newStandardRoom(t *testing.T, rounds int) (*Room, *fakeLedger) {
	t.Helper()
	cfg, err := game.NewConfig(rounds, roomWords)
	require.NoError(t, err)
	g, err := game.NewStandard("crane", cfg)
	require.NoError(t, err)
	l := &fakeLedger{}
	return New("1234", "normal", g, l), l
}

func TestRoom_JoinAcksThenBroadcastsOnce(t *testing.T) {
	r, _ := newStandardRoom(t, 6)
	alice, bob := &fakeConn{}, &fakeConn{}

	players := r.Join(alice, "alice")
	assert.Equal(t, []string{"alice"}, players)

	msgs := alice.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, true, msgs[0]["ok"])
	assert.Equal(t, "alice", msgs[0]["joined"])
	assert.Equal(t, "join", msgs[1]["event"])

	players = r.Join(bob, "bob")
	assert.Equal(t, []string{"alice", "bob"}, players)
	require.Len(t, alice.events("join"), 2)
	data := alice.events("join")[1]["data"].(map[string]any)
	assert.Equal(t, "bob", data["player"])
	assert.Equal(t, []any{"alice", "bob"}, data["players"])

	// Same connection, same name: acked, not re-broadcast.
	r.Join(bob, "bob")
	assert.Len(t, alice.events("join"), 2)
	assert.Len(t, bob.all(), 3)
}

func TestRoom_GuessAckThenIdenticalBroadcast(t *testing.T) {
	r, _ := newStandardRoom(t, 6)
	alice, bob := &fakeConn{}, &fakeConn{}
	r.Join(alice, "alice")
	r.Join(bob, "bob")
	before := len(alice.all())

	rr, err := r.Guess(context.Background(), alice, "alice", "slate")
	require.NoError(t, err)
	assert.False(t, rr.Won)

	msgs := alice.all()[before:]
	require.Len(t, msgs, 2)
	ack, ev := msgs[0], msgs[1]
	assert.Equal(t, true, ack["ok"])
	assert.Equal(t, "guess", ev["event"])

	delete(ack, "ok")
	assert.Equal(t, ack, ev["data"], "ack and broadcast carry the same data")
	assert.Equal(t, ev, bob.events("guess")[0])
	assert.Empty(t, bob.events("game_over"))
}

func TestRoom_IllegalGuessIsSilentAndFree(t *testing.T) {
	r, _ := newStandardRoom(t, 6)
	alice, bob := &fakeConn{}, &fakeConn{}
	r.Join(alice, "alice")
	r.Join(bob, "bob")
	aliceBefore, bobBefore := len(alice.all()), len(bob.all())

	_, err := r.Guess(context.Background(), alice, "alice", "zzzzz")
	assert.True(t, errors.Is(err, game.ErrIllegalWord))
	_, err = r.Guess(context.Background(), alice, "alice", "cranes")
	assert.True(t, errors.Is(err, game.ErrInvalidInput))

	assert.Len(t, alice.all(), aliceBefore)
	assert.Len(t, bob.all(), bobBefore)
	snap := r.Snapshot()
	assert.Equal(t, 0, snap.Round)
	assert.False(t, snap.Over)

	rr, err := r.Guess(context.Background(), bob, "bob", "lemon")
	require.NoError(t, err)
	assert.Equal(t, 5, rr.Remaining)
}

func TestRoom_WinEndsGameOnce(t *testing.T) {
	r, l := newStandardRoom(t, 6)
	alice, bob := &fakeConn{}, &fakeConn{}
	r.Join(alice, "alice")
	r.Join(bob, "bob")
	before := len(bob.all())

	rr, err := r.Guess(context.Background(), alice, "alice", "crane")
	require.NoError(t, err)
	assert.True(t, rr.Won)

	msgs := bob.all()[before:]
	require.Len(t, msgs, 2)
	assert.Equal(t, "guess", msgs[0]["event"])
	assert.Equal(t, "game_over", msgs[1]["event"])
	assert.Equal(t, "alice", msgs[1]["winner"])

	_, err = r.Guess(context.Background(), bob, "bob", "crane")
	assert.True(t, errors.Is(err, game.ErrGameOver))
	assert.Len(t, bob.events("game_over"), 1)
	assert.True(t, r.Snapshot().Over)

	entries := l.all()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.Entry{Player: "alice", Rounds: 1, Win: true, Mode: "multi:normal", Time: entries[0].Time}, entries[0])
}

func TestRoom_ConcurrentWinnersSingleCredit(t *testing.T) {
	r, l := newStandardRoom(t, 6)
	observer := &fakeConn{}
	r.Join(observer, "observer")

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		overErr int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := &fakeConn{}
			r.Join(c, string(rune('a'+i)))
			rr, err := r.Guess(context.Background(), c, string(rune('a'+i)), "crane")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && rr.Won:
				wins++
			case errors.Is(err, game.ErrGameOver):
				overErr++
			default:
				t.Errorf("unexpected result %+v, %v", rr, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, overErr)
	assert.Len(t, observer.events("game_over"), 1)
	assert.Len(t, observer.events("guess"), 1)
	assert.Len(t, l.all(), 1)
	assert.Equal(t, 1, r.Snapshot().Round)
}

func TestRoom_ExhaustionRevealsAnswer(t *testing.T) {
	r, l := newStandardRoom(t, 2)
	alice := &fakeConn{}
	r.Join(alice, "alice")

	_, err := r.Guess(context.Background(), alice, "alice", "slate")
	require.NoError(t, err)
	rr, err := r.Guess(context.Background(), alice, "alice", "lemon")
	require.NoError(t, err)
	assert.True(t, rr.Over)
	assert.False(t, rr.Won)

	over := alice.events("game_over")
	require.Len(t, over, 1)
	assert.NotContains(t, over[0], "winner")
	assert.Equal(t, "crane", over[0]["answer"])

	_, err = r.Guess(context.Background(), alice, "alice", "crane")
	assert.True(t, errors.Is(err, game.ErrGameOver))

	entries := l.all()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Win)
	assert.Equal(t, 2, entries[0].Rounds)
}

func TestRoom_DeadConnectionDroppedOthersServed(t *testing.T) {
	r, _ := newStandardRoom(t, 6)
	alice, bob, dead := &fakeConn{}, &fakeConn{}, &fakeConn{}
	r.Join(alice, "alice")
	r.Join(dead, "dead")
	r.Join(bob, "bob")
	require.Equal(t, 3, r.Snapshot().Conns)

	dead.mu.Lock()
	dead.fail = true
	dead.mu.Unlock()

	_, err := r.Guess(context.Background(), alice, "alice", "slate")
	require.NoError(t, err)

	assert.Len(t, bob.events("guess"), 1)
	assert.Len(t, alice.events("guess"), 1)
	snap := r.Snapshot()
	assert.Equal(t, 2, snap.Conns)
	assert.Equal(t, []string{"alice", "bob", "dead"}, snap.Players, "membership survives transport loss")
}

func TestRoom_GuessAttachesUnknownConnWithoutJoinEvent(t *testing.T) {
	r, _ := newStandardRoom(t, 6)
	alice, late := &fakeConn{}, &fakeConn{}
	r.Join(alice, "alice")

	_, err := r.Guess(context.Background(), late, "late", "slate")
	require.NoError(t, err)
	assert.Len(t, alice.events("join"), 1)
	assert.Len(t, late.events("guess"), 1)
	assert.Equal(t, 2, r.Snapshot().Conns)

	r.Detach(late)
	assert.Equal(t, 1, r.Snapshot().Conns)
}

func TestRoom_AdversarialGame(t *testing.T) {
	cfg, err := game.NewConfig(6, roomWords)
	require.NoError(t, err)
	r := New("9", "cheat", game.NewAdversarial(cfg), nil)
	c := &fakeConn{}
	r.Join(c, "alice")

	rr, err := r.Guess(context.Background(), c, "alice", "crane")
	require.NoError(t, err)
	assert.False(t, rr.Won)
	assert.Equal(t, 1, r.Snapshot().Round)
}

func TestSession(t *testing.T) {
	cfg, err := game.NewConfig(2, roomWords)
	require.NoError(t, err)
	g, err := game.NewStandard("crane", cfg)
	require.NoError(t, err)
	s := NewSession("7", "normal", g)

	_, _, err = s.Guess("zzzzz")
	assert.True(t, errors.Is(err, game.ErrIllegalWord))
	_, ok := s.Reveal()
	assert.False(t, ok)

	rr, rounds, err := s.Guess("crane")
	require.NoError(t, err)
	assert.True(t, rr.Won)
	assert.Equal(t, 1, rounds)
	assert.True(t, s.Over())

	_, rounds, err = s.Guess("slate")
	assert.True(t, errors.Is(err, game.ErrGameOver))
	assert.Equal(t, 1, rounds)

	answer, ok := s.Reveal()
	assert.True(t, ok)
	assert.Equal(t, "crane", answer)
}
