// Package sqlite is the database-backed alternative to the JSON files. It
// satisfies the same user and quiz repositories.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/golang/glog"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const DefaultPath = "quiz.db"

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	// A single connection serialises writers, which matches the
	// one-file-at-a-time behaviour of the JSON backend.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set busy timeout")
	}

	s := &Store{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init schema")
	}

	glog.V(2).Infof("sqlite store ready at %s", path)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
