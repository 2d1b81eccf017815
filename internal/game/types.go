// apps/arena-server/internal/game/types.go
//
// Core type definitions for the Wordle game engine.
// Defines:
//   - Mark / Pattern: per-letter result of a guess (hit/present/miss).
//   - Config: immutable round limit + dictionary shared by every game variant.
//   - RoundResult: outcome of a single accepted guess.
//   - Game: the contract implemented by Standard and Adversarial.

package game

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Mark represents the evaluation result for a single letter in a guess.
// The string values are the wire symbols of the line protocol:
//   - "O": letter is correct and in the correct position.
//   - "?": letter exists in the answer but in a different position.
//   - "_": letter has no unmatched occurrence left in the answer.
type Mark string

const (
	MarkHit     Mark = "O"
	MarkPresent Mark = "?"
	MarkMiss    Mark = "_"
)

// Pattern is the ordered list of marks for one guess, one per position.
type Pattern []Mark

// Hits counts MarkHit tokens.
func (p Pattern) Hits() int { return p.count(MarkHit) }

// Presents counts MarkPresent tokens.
func (p Pattern) Presents() int { return p.count(MarkPresent) }

// Solved reports whether every position is a hit.
func (p Pattern) Solved() bool {
	return len(p) > 0 && p.Hits() == len(p)
}

// String renders the pattern as its wire symbols, e.g. "O?__O".
func (p Pattern) String() string {
	var b strings.Builder
	b.Grow(len(p))
	for _, m := range p {
		b.WriteString(string(m))
	}
	return b.String()
}

func (p Pattern) count(m Mark) int {
	n := 0
	for _, x := range p {
		if x == m {
			n++
		}
	}
	return n
}

// RoundResult is the outcome of one accepted guess. Values are never
// mutated after they are appended to a game's history.
type RoundResult struct {
	Guess     string  // normalized guess
	Tokens    Pattern // per-position marks
	Remaining int     // rounds left after this one
	Won       bool
	Over      bool
}

// Config holds the round limit and the dictionary. It is immutable once
// built; copies share the same read-only lookup set.
type Config struct {
	MaxRounds int

	words  []string
	lookup map[string]struct{}
	length int
}

// NewConfig validates and builds a Config. Words are normalized and
// de-duplicated while preserving their first-seen order; they must all share
// one length.
func NewConfig(maxRounds int, words []string) (Config, error) {
	if maxRounds <= 0 {
		return Config{}, errors.Wrapf(ErrInvalidInput, "max rounds must be positive, got %d", maxRounds)
	}
	c := Config{
		MaxRounds: maxRounds,
		words:     make([]string, 0, len(words)),
		lookup:    make(map[string]struct{}, len(words)),
	}
	for _, w := range words {
		w = Normalize(w)
		if w == "" {
			continue
		}
		if _, dup := c.lookup[w]; dup {
			continue
		}
		if c.length == 0 {
			c.length = len([]rune(w))
		} else if n := len([]rune(w)); n != c.length {
			return Config{}, errors.Wrapf(ErrInvalidInput, "word %q has length %d, want %d", w, n, c.length)
		}
		c.words = append(c.words, w)
		c.lookup[w] = struct{}{}
	}
	return c, nil
}

// Words returns a copy of the dictionary in its configured order.
func (c Config) Words() []string {
	return append([]string(nil), c.words...)
}

// Allows reports whether the normalized word is in the dictionary.
func (c Config) Allows(word string) bool {
	_, ok := c.lookup[Normalize(word)]
	return ok
}

// WordLength is the shared length of all dictionary words (0 when empty).
func (c Config) WordLength() int { return c.length }

// sortedWords returns the dictionary in ascending lexicographic order.
func (c Config) sortedWords() []string {
	out := c.Words()
	sort.Strings(out)
	return out
}

// Game is implemented by every variant the server can host.
//
// Guess does not refuse guesses after a terminal result; callers (Room,
// Session) own that rule.
type Game interface {
	Guess(word string) (RoundResult, error)
	Round() int
	History() []RoundResult
	// Reveal returns the answer to show once the game is over.
	Reveal() string
}

// Normalize trims and lower-cases a word.
func Normalize(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}
