// apps/arena-server/internal/game/adversarial.go
//
// The "cheating host" variant. The host never commits to an answer: every
// guess is answered with the pattern that keeps the guesser furthest from a
// solution while staying consistent with at least one candidate word.
//
// Bucket selection:
//  1. fewest hits,
//  2. fewest presents,
//  3. largest bucket,
//  4. first bucket seen while scanning candidates in lexicographic order.
//
// Once a single candidate remains, play continues as a Standard game on it.
package game

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// bucket groups the candidates that would all produce the same pattern.
type bucket struct {
	pattern  Pattern
	hits     int
	presents int
	words    []string
}

// Adversarial is a game whose answer is chosen as late as possible.
type Adversarial struct {
	cfg        Config
	candidates []string // sorted ascending, never grows
	round      int
	history    []RoundResult
	resolved   *Standard
}

// NewAdversarial seeds the candidate set with the whole dictionary.
func NewAdversarial(cfg Config) *Adversarial {
	a := &Adversarial{cfg: cfg, candidates: cfg.sortedWords()}
	if len(a.candidates) == 1 {
		a.resolved = resumeStandard(a.candidates[0], cfg, 0, nil)
	}
	return a
}

// Guess answers word with the least helpful consistent pattern.
func (a *Adversarial) Guess(word string) (RoundResult, error) {
	word = Normalize(word)
	if !a.cfg.Allows(word) {
		return RoundResult{}, errors.Wrapf(ErrIllegalWord, "guess %q", word)
	}
	if a.resolved != nil {
		return a.resolved.Guess(word)
	}
	if len(a.candidates) == 0 {
		return RoundResult{}, errors.Wrap(ErrInternalConsistency, "candidate set is empty")
	}
	if n := len([]rune(a.candidates[0])); len([]rune(word)) != n {
		return RoundResult{}, errors.Wrapf(ErrInvalidInput, "guess %q must have %d letters", word, n)
	}

	buckets, err := partition(a.candidates, word)
	if err != nil {
		return RoundResult{}, err
	}
	best, ok := selectBucket(buckets)
	if !ok || len(best.words) == 0 {
		return RoundResult{}, errors.Wrapf(ErrInternalConsistency, "guess %q", word)
	}

	a.round++
	a.candidates = best.words
	rr := RoundResult{
		Guess:     word,
		Tokens:    best.pattern,
		Remaining: remaining(a.cfg.MaxRounds, a.round),
		Won:       false,
		Over:      a.round >= a.cfg.MaxRounds,
	}
	a.history = append(a.history, rr)
	if len(a.candidates) == 1 {
		a.resolved = resumeStandard(a.candidates[0], a.cfg, a.round, a.history)
	}

	log.Debug().
		Int("round", a.round).
		Str("guess", word).
		Str("tokens", rr.Tokens.String()).
		Int("remaining", rr.Remaining).
		Int("candidates", len(a.candidates)).
		Msg("adversarial round")
	return rr, nil
}

// Round is the number of accepted guesses.
func (a *Adversarial) Round() int {
	if a.resolved != nil {
		return a.resolved.Round()
	}
	return a.round
}

// History returns a copy of the accepted guesses.
func (a *Adversarial) History() []RoundResult {
	if a.resolved != nil {
		return a.resolved.History()
	}
	return append([]RoundResult(nil), a.history...)
}

// Reveal returns the resolved answer, or the first remaining candidate when
// the host never had to commit.
func (a *Adversarial) Reveal() string {
	if a.resolved != nil {
		return a.resolved.Reveal()
	}
	if len(a.candidates) == 0 {
		return ""
	}
	return a.candidates[0]
}

// Candidates returns a copy of the words still in play.
func (a *Adversarial) Candidates() []string {
	if a.resolved != nil {
		return []string{a.resolved.Reveal()}
	}
	return append([]string(nil), a.candidates...)
}

// Resolved reports the committed answer, if any.
func (a *Adversarial) Resolved() (string, bool) {
	if a.resolved == nil {
		return "", false
	}
	return a.resolved.Reveal(), true
}

// partition groups candidates by the pattern guess would produce against
// each of them. Buckets come back in first-seen order and the input slice
// is not modified.
func partition(candidates []string, guess string) ([]bucket, error) {
	index := make(map[string]int)
	var out []bucket
	for _, c := range candidates {
		p, err := Score(c, guess)
		if err != nil {
			return nil, err
		}
		key := p.String()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, bucket{pattern: p, hits: p.Hits(), presents: p.Presents()})
		}
		out[i].words = append(out[i].words, c)
	}
	return out, nil
}

// selectBucket picks the bucket least favorable to the guesser. Ties on
// (hits, presents, size) keep the earliest bucket.
func selectBucket(buckets []bucket) (bucket, bool) {
	if len(buckets) == 0 {
		return bucket{}, false
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		switch {
		case b.hits != best.hits:
			if b.hits < best.hits {
				best = b
			}
		case b.presents != best.presents:
			if b.presents < best.presents {
				best = b
			}
		case len(b.words) > len(best.words):
			best = b
		}
	}
	return best, true
}
