// Package store persists the whole service state in a single embedded
// SQLite file: users, the question bank, rooms with their question
// snapshots, participants, answers, results, and the audit log rows.
package store

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file and installs the
// schema. The pool is pinned to one connection so the pragmas hold for
// every query and writers queue at the driver instead of failing with
// SQLITE_BUSY.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "examhall.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
