package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite stores entries in the scores table. The caller owns opening and
// migrating the database; Close closes it.
type SQLite struct{ db *sql.DB }

func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

func (s *SQLite) Record(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores(player, rounds, win, mode, created_at) VALUES(?,?,?,?,?)`,
		e.Player, e.Rounds, e.Win, e.Mode, e.Time.UTC().Format(timeLayout),
	)
	return errors.Wrap(err, "insert score")
}

func (s *SQLite) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player, rounds, win, mode, created_at
		FROM scores
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, clampLimit(limit),
	)
	if err != nil {
		return nil, errors.Wrap(err, "query scores")
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.Player, &e.Rounds, &e.Win, &e.Mode, &created); err != nil {
			return nil, errors.Wrap(err, "scan score")
		}
		e.Time, _ = time.Parse(timeLayout, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }
