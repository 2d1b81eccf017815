// apps/arena-server/db.go
//
// Database helpers for the arena server.
// Responsibilities:
//   - Opening SQLite database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Choosing the score ledger backend from configuration.

package main

import (
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/config"
	"github.com/robalobadob/wordle/apps/arena-server/internal/ledger"
)

// openDB opens (and creates if missing) a SQLite database file.
// The parent directory is created for relative paths like ./data/arena.db.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "mkdir %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dsn)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set pragmas")
	}
	return db, nil
}

// migrate applies every *.sql file of fsys in lexical order, skipping the
// ones already recorded in _migrations. Scripts that manage their own
// transaction or foreign-key pragma run outside an outer transaction.
func migrate(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return errors.Wrap(err, "create _migrations")
	}

	var files []string
	if err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return errors.Wrap(err, "walk migrations")
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return errors.Wrap(err, "query _migrations")
		}

		sqlBytes, err := fs.ReadFile(fsys, f)
		if err != nil {
			return errors.Wrapf(err, "read %s", f)
		}
		sqlText := string(sqlBytes)

		upper := strings.ToUpper(sqlText)
		selfManaged := strings.Contains(upper, "BEGIN TRANSACTION") ||
			strings.Contains(upper, "PRAGMA FOREIGN_KEYS=OFF") ||
			strings.Contains(upper, "PRAGMA FOREIGN_KEYS = OFF")

		if selfManaged {
			if _, err := db.Exec(sqlText); err != nil {
				return errors.Wrapf(err, "apply %s", f)
			}
			if _, err := db.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
				return errors.Wrapf(err, "record %s", f)
			}
			log.Info().Str("migration", f).Msg("applied (self-managed)")
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return errors.Wrap(err, "begin")
		}
		if _, err := tx.Exec(sqlText); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "apply %s", f)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "record %s", f)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit %s", f)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// openLedger builds the configured score ledger. For sqlite the database
// is opened and migrated from fsys.
func openLedger(c config.Config, fsys fs.FS) (ledger.Ledger, error) {
	switch c.Ledger.Driver {
	case "sqlite":
		db, err := openDB(c.Ledger.Path)
		if err != nil {
			return nil, err
		}
		if err := migrate(db, fsys); err != nil {
			_ = db.Close()
			return nil, err
		}
		return ledger.NewSQLite(db), nil
	case "file":
		f, err := ledger.NewFile(c.Ledger.Path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "none":
		return ledger.Nop{}, nil
	default:
		return nil, errors.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}
}
