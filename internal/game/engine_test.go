package game

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWords = []string{
	"crane", "arena", "sassy", "grass", "slate", "trace", "crate", "react",
	"eerie", "geese", "lemon", "melon", "apple", "plane", "panel", "stone",
	"tones", "notes", "onset", "seton", "brick", "fjord", "nymph", "waltz",
}

func testConfig(t *testing.T, rounds int) Config {
	t.Helper()
	cfg, err := NewConfig(rounds, testWords)
	require.NoError(t, err)
	return cfg
}

func marks(s string) Pattern {
	p := make(Pattern, 0, len(s))
	for _, r := range s {
		p = append(p, Mark(string(r)))
	}
	return p
}

func TestScore_Examples(t *testing.T) {
	cases := []struct {
		target, guess, want string
	}{
		{"crane", "crane", "OOOOO"},
		{"crane", "arena", "?O?O_"},
		{"crane", "react", "??O?_"},
		{"sassy", "grass", "__?O?"},
		{"eerie", "geese", "_O?_O"},
		{"apple", "lemon", "??___"},
		{"fjord", "waltz", "_____"},
		{"  CRANE ", "Crane", "OOOOO"},
	}
	for _, tc := range cases {
		t.Run(tc.target+"/"+tc.guess, func(t *testing.T) {
			got, err := Score(tc.target, tc.guess)
			require.NoError(t, err)
			assert.Equal(t, marks(tc.want), got, "got %s", got)
		})
	}
}

func TestScore_LengthMismatch(t *testing.T) {
	_, err := Score("crane", "cranes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestScore_RepeatedLetterNeverOverCounted(t *testing.T) {
	p, err := Score("sassy", "grass")
	require.NoError(t, err)

	sTokens := 0
	for i, r := range "grass" {
		if r == 's' && p[i] != MarkMiss {
			sTokens++
		}
	}
	assert.LessOrEqual(t, sTokens, strings.Count("sassy", "s"))
	assert.LessOrEqual(t, sTokens, strings.Count("grass", "s"))
	assert.Equal(t, 2, sTokens)
}

func TestScore_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const alphabet = "abcde"
	word := func() string {
		b := make([]byte, 5)
		for i := range b {
			b[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(b)
	}

	for n := 0; n < 2000; n++ {
		target, guess := word(), word()
		p, err := Score(target, guess)
		require.NoError(t, err)

		again, err := Score(target, guess)
		require.NoError(t, err)
		require.Equal(t, p, again, "scoring must be pure")

		hits := 0
		for i := range target {
			if target[i] == guess[i] {
				hits++
				require.Equal(t, MarkHit, p[i])
			}
		}
		require.Equal(t, hits, p.Hits())

		for _, letter := range alphabet {
			used := 0
			for i, r := range guess {
				if r == letter && p[i] != MarkMiss {
					used++
				}
			}
			require.LessOrEqual(t, used, strings.Count(target, string(letter)),
				"target=%s guess=%s pattern=%s", target, guess, p)
		}
	}
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(6, []string{" Crane", "crane", "SLATE", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"crane", "slate"}, cfg.Words())
	assert.Equal(t, 5, cfg.WordLength())
	assert.True(t, cfg.Allows("CRANE "))
	assert.False(t, cfg.Allows("zzzzz"))

	_, err = NewConfig(0, testWords)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewConfig(6, []string{"crane", "cranes"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestStandard_WinSetsWonAndOver(t *testing.T) {
	g, err := NewStandard("crane", testConfig(t, 6))
	require.NoError(t, err)

	rr, err := g.Guess("slate")
	require.NoError(t, err)
	assert.False(t, rr.Won)
	assert.False(t, rr.Over)
	assert.Equal(t, 5, rr.Remaining)

	rr, err = g.Guess("CRANE")
	require.NoError(t, err)
	assert.Equal(t, marks("OOOOO"), rr.Tokens)
	assert.True(t, rr.Won)
	assert.True(t, rr.Over)
	assert.Equal(t, 4, rr.Remaining)
	assert.Equal(t, 2, g.Round())
	assert.Len(t, g.History(), g.Round())
}

func TestStandard_ExhaustedAfterMaxRounds(t *testing.T) {
	g, err := NewStandard("crane", testConfig(t, 3))
	require.NoError(t, err)

	var rr RoundResult
	for _, w := range []string{"slate", "lemon", "brick"} {
		rr, err = g.Guess(w)
		require.NoError(t, err)
	}
	assert.True(t, rr.Over)
	assert.False(t, rr.Won)
	assert.Equal(t, 0, rr.Remaining)
}

func TestStandard_WinOnLastRound(t *testing.T) {
	g, err := NewStandard("crane", testConfig(t, 2))
	require.NoError(t, err)

	_, err = g.Guess("slate")
	require.NoError(t, err)
	rr, err := g.Guess("crane")
	require.NoError(t, err)
	assert.True(t, rr.Won)
	assert.True(t, rr.Over)
}

func TestStandard_RejectionsLeaveStateUntouched(t *testing.T) {
	g, err := NewStandard("crane", testConfig(t, 6))
	require.NoError(t, err)
	_, err = g.Guess("slate")
	require.NoError(t, err)

	_, err = g.Guess("zzzzz")
	assert.True(t, errors.Is(err, ErrIllegalWord))

	_, err = g.Guess("cranes")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	assert.Equal(t, 1, g.Round())
	assert.Len(t, g.History(), 1)

	rr, err := g.Guess("lemon")
	require.NoError(t, err)
	assert.Equal(t, 4, rr.Remaining)
}

func TestNewStandard_RejectsBadAnswer(t *testing.T) {
	_, err := NewStandard("", testConfig(t, 6))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewStandard("cranes", testConfig(t, 6))
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
