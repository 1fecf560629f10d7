package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"classquiz/internal/quiz"
)

// CreateQuiz inserts the quiz and its questions in one transaction. An
// existing code is reported as quiz.ErrCodeTaken and nothing is written.
func (s *Store) CreateQuiz(ctx context.Context, q quiz.Quiz) error {
	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin create quiz")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO quizzes (code, title, created_by, time_limit, created_at_unix) VALUES (?, ?, ?, ?, ?)`,
		q.Code,
		q.Title,
		q.CreatedBy,
		q.TimeLimit,
		createdAt.UnixNano(),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return quiz.ErrCodeTaken
		}
		return errors.Wrapf(err, "insert quiz %s", q.Code)
	}

	for idx, question := range q.Questions {
		optionsJSON, err := json.Marshal(question.Options)
		if err != nil {
			return errors.Wrap(err, "encode options")
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO questions (code, position, prompt, options_json, correct) VALUES (?, ?, ?, ?, ?)`,
			q.Code,
			idx,
			question.Text,
			string(optionsJSON),
			question.Correct,
		); err != nil {
			return errors.Wrapf(err, "insert question %d of %s", idx, q.Code)
		}
	}

	// Imported quizzes may already carry results.
	for _, result := range q.Results {
		if err := insertResult(ctx, tx, q.Code, result, createdAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) GetQuiz(ctx context.Context, code string) (quiz.Quiz, error) {
	q := quiz.Quiz{Code: code}
	var createdAtUnix int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT title, created_by, time_limit, created_at_unix FROM quizzes WHERE code = ?`,
		code,
	).Scan(&q.Title, &q.CreatedBy, &q.TimeLimit, &createdAtUnix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Quiz{}, quiz.ErrQuizNotFound
		}
		return quiz.Quiz{}, errors.Wrapf(err, "select quiz %s", code)
	}
	q.CreatedAt = time.Unix(0, createdAtUnix).UTC()

	if q.Questions, err = s.quizQuestions(ctx, code); err != nil {
		return quiz.Quiz{}, err
	}
	if q.Results, err = s.quizResults(ctx, code); err != nil {
		return quiz.Quiz{}, err
	}
	return q, nil
}

// AppendResult records one attempt. Results keep insertion order through
// the autoincrement id.
func (s *Store) AppendResult(ctx context.Context, code string, result quiz.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin append result")
	}
	defer tx.Rollback()

	var found int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE code = ? LIMIT 1`, code).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.ErrQuizNotFound
		}
		return errors.Wrapf(err, "lookup quiz %s", code)
	}

	if err := insertResult(ctx, tx, code, result, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListQuizzes(ctx context.Context) ([]quiz.Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code FROM quizzes ORDER BY code ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "list quizzes")
	}

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			_ = rows.Close()
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	out := make([]quiz.Quiz, 0, len(codes))
	for _, code := range codes {
		q, err := s.GetQuiz(ctx, code)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Store) quizQuestions(ctx context.Context, code string) ([]quiz.Question, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT prompt, options_json, correct FROM questions WHERE code = ? ORDER BY position ASC`,
		code,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "select questions of %s", code)
	}
	defer rows.Close()

	questions := make([]quiz.Question, 0)
	for rows.Next() {
		var (
			question    quiz.Question
			optionsJSON string
		)
		if err := rows.Scan(&question.Text, &optionsJSON, &question.Correct); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(optionsJSON), &question.Options); err != nil {
			return nil, errors.Wrapf(err, "decode options of %s", code)
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (s *Store) quizResults(ctx context.Context, code string) ([]quiz.Result, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT student, score FROM results WHERE code = ? ORDER BY id ASC`,
		code,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "select results of %s", code)
	}
	defer rows.Close()

	results := make([]quiz.Result, 0)
	for rows.Next() {
		var result quiz.Result
		if err := rows.Scan(&result.Student, &result.Score); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func insertResult(ctx context.Context, tx *sql.Tx, code string, result quiz.Result, at time.Time) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO results (code, student, score, submitted_at_unix) VALUES (?, ?, ?, ?)`,
		code,
		result.Student,
		result.Score,
		at.UnixNano(),
	)
	return errors.Wrapf(err, "insert result for %s", code)
}
