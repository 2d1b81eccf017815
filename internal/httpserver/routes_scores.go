// apps/arena-server/internal/httpserver/routes_scores.go
//
// Score history endpoint:
//   - GET /scores?limit=N → most recent finished games, newest first.
//
// N defaults to 20 and is capped by the ledger.

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/ledger"
)

// scoresRes is returned by /scores.
type scoresRes struct {
	Scores []ledger.Entry `json:"scores"`
}

func (s *Server) mountScores(r chi.Router) {
	r.Get("/scores", s.handleScores)
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = n
	}
	entries, err := s.opts.Ledger.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list scores")
		writeError(w, http.StatusInternalServerError, "ledger_error")
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	_ = json.NewEncoder(w).Encode(scoresRes{Scores: entries})
}
