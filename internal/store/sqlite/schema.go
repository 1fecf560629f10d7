package sqlite

import (
	"context"
)

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quizzes (
			code TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_by TEXT NOT NULL,
			time_limit INTEGER NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			code TEXT NOT NULL,
			position INTEGER NOT NULL,
			prompt TEXT NOT NULL,
			options_json TEXT NOT NULL,
			correct TEXT NOT NULL,
			PRIMARY KEY (code, position)
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL,
			student TEXT NOT NULL,
			score INTEGER NOT NULL,
			submitted_at_unix INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_code ON results(code, id);`,
		`CREATE INDEX IF NOT EXISTS idx_results_student ON results(student);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
