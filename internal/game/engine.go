// apps/arena-server/internal/game/engine.go
//
// Scoring and the standard (fixed-answer) game.
// Responsibilities:
//   - Score guesses using the classic two-pass Wordle algorithm.
//   - Validate and apply guesses (length, dictionary membership).
//   - Track state transitions: active → won / exhausted.
//
// Notes:
//   - Rejected guesses never advance the round or touch history.
//   - Standard does not refuse guesses after it is over; Room/Session do.
package game

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Score implements the standard Wordle two-pass scoring algorithm.
//
// Pass 1:
//   - Mark exact matches as Hit.
//   - Count remaining (non-hit) target letters.
//
// Pass 2:
//   - For each non-hit guess letter: if there is remaining count for that letter,
//     mark Present and decrement the count; otherwise mark Miss.
//
// This ensures correct behavior with repeated letters in both target and guess.
func Score(target, guess string) (Pattern, error) {
	t := []rune(Normalize(target))
	g := []rune(Normalize(guess))
	if len(t) != len(g) {
		return nil, errors.Wrapf(ErrInvalidInput, "guess %q has length %d, answer has %d", string(g), len(g), len(t))
	}

	res := make(Pattern, len(t))
	counts := make(map[rune]int, len(t))

	for i := range t {
		if g[i] == t[i] {
			res[i] = MarkHit
		} else {
			counts[t[i]]++
		}
	}

	for i := range g {
		if res[i] == MarkHit {
			continue
		}
		if counts[g[i]] > 0 {
			res[i] = MarkPresent
			counts[g[i]]--
		} else {
			res[i] = MarkMiss
		}
	}
	return res, nil
}

// Standard is a Wordle game with one answer fixed at construction.
type Standard struct {
	answer  string
	cfg     Config
	round   int
	history []RoundResult
}

// NewStandard constructs a game for answer. The answer must match the
// dictionary word length when the dictionary is non-empty.
func NewStandard(answer string, cfg Config) (*Standard, error) {
	answer = Normalize(answer)
	if answer == "" {
		return nil, errors.Wrap(ErrInvalidInput, "empty answer")
	}
	if n := cfg.WordLength(); n != 0 && len([]rune(answer)) != n {
		return nil, errors.Wrapf(ErrInvalidInput, "answer %q does not have %d letters", answer, n)
	}
	return &Standard{answer: answer, cfg: cfg}, nil
}

// resumeStandard builds a Standard that continues an existing round count
// and history. Used when an adversarial game resolves to a single answer.
func resumeStandard(answer string, cfg Config, round int, history []RoundResult) *Standard {
	return &Standard{
		answer:  answer,
		cfg:     cfg,
		round:   round,
		history: append([]RoundResult(nil), history...),
	}
}

// Guess validates and scores word, mutating the game state.
//
// Validation rules:
//   - Guess must have the answer's length (ErrInvalidInput).
//   - Guess must be present in the dictionary (ErrIllegalWord).
//
// State transitions:
//   - All tiles Hit → Won, Over.
//   - Round reaches MaxRounds → Over (exhausted).
func (g *Standard) Guess(word string) (RoundResult, error) {
	word = Normalize(word)
	if len([]rune(word)) != len([]rune(g.answer)) {
		return RoundResult{}, errors.Wrapf(ErrInvalidInput, "guess %q must have %d letters", word, len([]rune(g.answer)))
	}
	if !g.cfg.Allows(word) {
		return RoundResult{}, errors.Wrapf(ErrIllegalWord, "guess %q", word)
	}

	tokens, err := Score(g.answer, word)
	if err != nil {
		return RoundResult{}, err
	}
	g.round++
	won := tokens.Solved()
	rr := RoundResult{
		Guess:     word,
		Tokens:    tokens,
		Remaining: remaining(g.cfg.MaxRounds, g.round),
		Won:       won,
		Over:      won || g.round >= g.cfg.MaxRounds,
	}
	g.history = append(g.history, rr)

	log.Debug().
		Int("round", g.round).
		Str("guess", word).
		Str("tokens", tokens.String()).
		Int("remaining", rr.Remaining).
		Bool("won", rr.Won).
		Bool("over", rr.Over).
		Msg("standard round")
	return rr, nil
}

// Round is the number of accepted guesses.
func (g *Standard) Round() int { return g.round }

// History returns a copy of the accepted guesses.
func (g *Standard) History() []RoundResult {
	return append([]RoundResult(nil), g.history...)
}

// Reveal returns the answer.
func (g *Standard) Reveal() string { return g.answer }

func remaining(max, round int) int {
	if round >= max {
		return 0
	}
	return max - round
}
