// apps/arena-server/internal/ledger/ledger.go
//
// Score ledger: an append-only record of finished games.
// Backends:
//   - SQLite (scores table, see assets/migrations).
//   - JSON flat file (whole-array rewrite, same shape as the classic scoreboard).
//   - Nop (recording disabled).
//
// Callers treat Record as a best-effort side effect; failures are logged
// and never change game state.

package ledger

import (
	"context"
	"time"
)

// Entry is one finished game as seen by one player.
type Entry struct {
	Player string    `json:"player"`
	Rounds int       `json:"rounds"`
	Win    bool      `json:"win"`
	Mode   string    `json:"mode,omitempty"`
	Time   time.Time `json:"time"`
}

// Recorder appends entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Ledger is a Recorder that can also list recent entries.
type Ledger interface {
	Recorder
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

const defaultLimit = 20

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > 500 {
		return 500
	}
	return limit
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error          { return nil }
func (Nop) Recent(context.Context, int) ([]Entry, error) { return []Entry{}, nil }
func (Nop) Close() error                                 { return nil }
