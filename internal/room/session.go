package room

import (
	"sync"

	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
)

// Session serializes guesses against a single-player game. Several
// connections may share one game id, so the game is still guarded and
// post-terminal guesses are refused here rather than in the game.
type Session struct {
	id   string
	mode string

	mu   sync.Mutex
	game game.Game
	over bool
}

func NewSession(id, mode string, g game.Game) *Session {
	return &Session{id: id, mode: mode, game: g}
}

func (s *Session) ID() string   { return s.id }
func (s *Session) Mode() string { return s.mode }

// Guess applies word. The returned round count is the game's round after
// the guess, for ledger bookkeeping.
func (s *Session) Guess(word string) (game.RoundResult, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.over {
		return game.RoundResult{}, s.game.Round(), game.ErrGameOver
	}
	rr, err := s.game.Guess(word)
	if err != nil {
		return game.RoundResult{}, s.game.Round(), err
	}
	if rr.Over {
		s.over = true
	}
	return rr, s.game.Round(), nil
}

// Over reports whether the session reached a terminal result.
func (s *Session) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.over
}

// Reveal returns the answer once the session is over.
func (s *Session) Reveal() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.over {
		return "", false
	}
	return s.game.Reveal(), true
}
