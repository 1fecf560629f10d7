package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"classquiz/internal/quiz"
)

const unknownStudent = "Unknown"

// studentKeys lists the field names older files used for the student, in
// order of preference.
var studentKeys = []string{"student", "name", "username"}

type quizRecord struct {
	Title     string          `json:"title"`
	Questions []quiz.Question `json:"questions"`
	Results   []quiz.Result   `json:"results"`
	CreatedBy string          `json:"created_by"`
	TimeLimit int             `json:"time_limit"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

type rawQuizRecord struct {
	Title     string            `json:"title"`
	Questions []quiz.Question   `json:"questions"`
	Results   []json.RawMessage `json:"results"`
	CreatedBy string            `json:"created_by"`
	TimeLimit int               `json:"time_limit"`
	CreatedAt *time.Time        `json:"created_at"`
}

// QuizStore is the quizzes.json backend. Like UserStore it serialises
// read-modify-write cycles in-process and replaces the file atomically.
type QuizStore struct {
	mu   sync.Mutex
	path string
}

func NewQuizStore(path string) *QuizStore {
	return &QuizStore{path: path}
}

// Load returns every quiz keyed by code with results normalised to
// {student, score}. Normalisation happens on every call and is not written
// back until the next mutation.
func (s *QuizStore) Load(ctx context.Context) (map[string]quiz.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *QuizStore) Save(ctx context.Context, all map[string]quiz.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, all)
}

func (s *QuizStore) CreateQuiz(ctx context.Context, q quiz.Quiz) error {
	return s.update(ctx, func(all map[string]quiz.Quiz) error {
		if _, exists := all[q.Code]; exists {
			return quiz.ErrCodeTaken
		}
		all[q.Code] = q
		return nil
	})
}

func (s *QuizStore) GetQuiz(ctx context.Context, code string) (quiz.Quiz, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return quiz.Quiz{}, err
	}
	q, ok := all[code]
	if !ok {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	return q, nil
}

func (s *QuizStore) AppendResult(ctx context.Context, code string, result quiz.Result) error {
	return s.update(ctx, func(all map[string]quiz.Quiz) error {
		q, ok := all[code]
		if !ok {
			return quiz.ErrQuizNotFound
		}
		q.Results = append(q.Results, result)
		all[code] = q
		return nil
	})
}

// ListQuizzes returns all quizzes ordered by code.
func (s *QuizStore) ListQuizzes(ctx context.Context) ([]quiz.Quiz, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]quiz.Quiz, 0, len(all))
	for _, q := range all {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *QuizStore) update(ctx context.Context, mutate func(map[string]quiz.Quiz) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := mutate(all); err != nil {
		return err
	}
	return s.save(ctx, all)
}

func (s *QuizStore) load(_ context.Context) (map[string]quiz.Quiz, error) {
	raw := make(map[string]rawQuizRecord)
	if _, err := readJSON(s.path, &raw); err != nil {
		return nil, err
	}

	all := make(map[string]quiz.Quiz, len(raw))
	for code, record := range raw {
		results := make([]quiz.Result, 0, len(record.Results))
		for _, item := range record.Results {
			results = append(results, normalizeResult(item))
		}

		questions := record.Questions
		if questions == nil {
			questions = []quiz.Question{}
		}

		q := quiz.Quiz{
			Code:      code,
			Title:     record.Title,
			Questions: questions,
			Results:   results,
			CreatedBy: record.CreatedBy,
			TimeLimit: record.TimeLimit,
		}
		if record.CreatedAt != nil {
			q.CreatedAt = record.CreatedAt.UTC()
		}
		all[code] = q
	}
	return all, nil
}

func (s *QuizStore) save(_ context.Context, all map[string]quiz.Quiz) error {
	records := make(map[string]quizRecord, len(all))
	for code, q := range all {
		record := quizRecord{
			Title:     q.Title,
			Questions: q.Questions,
			Results:   q.Results,
			CreatedBy: q.CreatedBy,
			TimeLimit: q.TimeLimit,
		}
		if record.Questions == nil {
			record.Questions = []quiz.Question{}
		}
		if record.Results == nil {
			record.Results = []quiz.Result{}
		}
		if !q.CreatedAt.IsZero() {
			createdAt := q.CreatedAt.UTC()
			record.CreatedAt = &createdAt
		}
		records[code] = record
	}
	return writeJSON(s.path, records)
}

// normalizeResult accepts the current {student, score} shape, records that
// name the student "name" or "username", and bare scores from the oldest
// files.
func normalizeResult(raw json.RawMessage) quiz.Result {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var fields map[string]any
		decoder := json.NewDecoder(bytes.NewReader(trimmed))
		decoder.UseNumber()
		if err := decoder.Decode(&fields); err == nil {
			return quiz.Result{
				Student: studentFromFields(fields),
				Score:   coerceScore(fields["score"]),
			}
		}
	}

	var scalar any
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	if err := decoder.Decode(&scalar); err != nil {
		return quiz.Result{Student: unknownStudent}
	}
	return quiz.Result{Student: unknownStudent, Score: digitsScore(scalar)}
}

func studentFromFields(fields map[string]any) string {
	for _, key := range studentKeys {
		if name, ok := fields[key].(string); ok && name != "" {
			return name
		}
	}
	return unknownStudent
}

// coerceScore turns a record's score field into an int. Fractions are
// truncated and anything unusable counts as 0.
func coerceScore(value any) int {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return clampInt(n)
		}
		if f, err := v.Float64(); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return clampInt(int64(f))
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// digitsScore accepts a bare score only when its text is all decimal digits.
func digitsScore(value any) int {
	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = v
	default:
		return 0
	}

	if text == "" {
		return 0
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}

func clampInt(n int64) int {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < math.MinInt32 {
		return math.MinInt32
	}
	return int(n)
}
