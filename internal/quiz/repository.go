package quiz

import (
	"context"
	"errors"
	"time"
)

var (
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrCodeTaken        = errors.New("quiz code already in use")
	ErrNoFreeCode       = errors.New("no free quiz code")
	ErrInvalidQuestion  = errors.New("invalid question")
	ErrInvalidStudent   = errors.New("invalid student name")
	ErrFetcherMissing   = errors.New("question fetcher is not configured")
	ErrNoProviderOutput = errors.New("question provider returned no usable questions")
)

// ProviderError marks a failure of the external question source, as opposed
// to a storage failure while saving the generated quiz.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "question provider: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Quiz is the full record for one quiz code. Results keep insertion order.
type Quiz struct {
	Code      string
	Title     string
	Questions []Question
	Results   []Result
	CreatedBy string
	TimeLimit int
	CreatedAt time.Time
}

type Result struct {
	Student string `json:"student"`
	Score   int    `json:"score"`
}

// Repository persists quizzes. CreateQuiz must refuse a code that already
// exists with ErrCodeTaken, and AppendResult must not lose concurrent appends.
type Repository interface {
	CreateQuiz(ctx context.Context, quiz Quiz) error
	GetQuiz(ctx context.Context, code string) (Quiz, error)
	AppendResult(ctx context.Context, code string, result Result) error
	ListQuizzes(ctx context.Context) ([]Quiz, error)
}
