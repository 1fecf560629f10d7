// Package backend opens the configured user and quiz repositories.
package backend

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"classquiz/internal/config"
	"classquiz/internal/quiz"
	"classquiz/internal/store"
	"classquiz/internal/store/jsonfile"
	"classquiz/internal/store/sqlite"
	"classquiz/internal/users"
)

type Backend struct {
	Users   users.Repository
	Quizzes quiz.Repository
	close   func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func Open(cfg *config.Config) (*Backend, error) {
	switch cfg.StoreDriver {
	case store.DriverJSON:
		glog.Infof("using JSON store in %s", cfg.DataDir)
		return &Backend{
			Users:   jsonfile.NewUserStore(cfg.UsersPath()),
			Quizzes: jsonfile.NewQuizStore(cfg.QuizzesPath()),
		}, nil

	case store.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		glog.Infof("using SQLite store at %s", cfg.SQLitePath)
		return &Backend{Users: db, Quizzes: db, close: db.Close}, nil
	}

	return nil, errors.Errorf("unknown store driver %q", cfg.StoreDriver)
}
