package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"classquiz/internal/opentdb"
)

const (
	MinProviderQuestions     = 1
	MaxProviderQuestions     = 15
	DefaultProviderQuestions = 8

	maxCodeAttempts = 32
	defaultTitle    = "Untitled"
)

type QuestionsFetcher func(ctx context.Context, request opentdb.Request) ([]opentdb.RawQuestion, error)

type ManualQuiz struct {
	Title     string
	TimeLimit int
	Questions []Question
	CreatedBy string
}

type ProviderQuiz struct {
	NumQuestions int
	Category     string
	Difficulty   string
	TimeLimit    int
	CreatedBy    string
}

type Service struct {
	quizzes      Repository
	fetcher      QuestionsFetcher
	leaderboards *cache.Cache
	newCode      func() string
	now          func() time.Time

	generationsMu sync.Mutex
	generations   map[string]uint64
}

func NewService(quizzes Repository, fetcher QuestionsFetcher) *Service {
	return &Service{
		quizzes:      quizzes,
		fetcher:      fetcher,
		leaderboards: cache.New(leaderboardTTL, 2*leaderboardTTL),
		generations:  make(map[string]uint64),
		newCode:      generateQuizCode,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateManual stores a teacher-authored quiz and returns its join code.
func (s *Service) CreateManual(ctx context.Context, input ManualQuiz) (string, error) {
	for idx, question := range input.Questions {
		if err := question.validate(); err != nil {
			return "", errors.Wrapf(err, "question %d", idx+1)
		}
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultTitle
	}

	return s.store(ctx, Quiz{
		Title:     title,
		Questions: input.Questions,
		CreatedBy: input.CreatedBy,
		TimeLimit: input.TimeLimit,
	})
}

// CreateFromProvider fetches NumQuestions (clamped to [1, 15]) from the
// question provider. Provider failures are returned as *ProviderError.
func (s *Service) CreateFromProvider(ctx context.Context, input ProviderQuiz) (string, error) {
	if s.fetcher == nil {
		return "", ErrFetcherMissing
	}

	count := ClampQuestionCount(input.NumQuestions)
	raw, err := s.fetcher(ctx, opentdb.Request{
		Amount:     count,
		Category:   input.Category,
		Difficulty: input.Difficulty,
	})
	if err != nil {
		return "", &ProviderError{Err: err}
	}

	questions := BuildQuestions(raw)
	if len(questions) == 0 {
		return "", &ProviderError{Err: ErrNoProviderOutput}
	}

	return s.store(ctx, Quiz{
		Title:     fmt.Sprintf("AI Quiz (%d)", count),
		Questions: questions,
		CreatedBy: input.CreatedBy,
		TimeLimit: input.TimeLimit,
	})
}

func (s *Service) GetQuiz(ctx context.Context, code string) (Quiz, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Quiz{}, ErrQuizNotFound
	}
	return s.quizzes.GetQuiz(ctx, code)
}

// SubmitAttempt scores answers against the quiz and records the result.
// Repeated attempts by the same student are all kept.
func (s *Service) SubmitAttempt(ctx context.Context, code, student string, answers map[int]string) (int, error) {
	student = strings.TrimSpace(student)
	if student == "" {
		return 0, ErrInvalidStudent
	}

	quiz, err := s.GetQuiz(ctx, code)
	if err != nil {
		return 0, err
	}

	score := Score(quiz.Questions, answers)
	if err := s.quizzes.AppendResult(ctx, quiz.Code, Result{Student: student, Score: score}); err != nil {
		return 0, err
	}
	s.invalidateLeaderboard(quiz.Code)

	glog.V(2).Infof("recorded score %d/%d for %q on quiz %s", score, len(quiz.Questions), student, quiz.Code)
	return score, nil
}

// Leaderboard returns the topN best results; topN <= 0 returns all of them.
func (s *Service) Leaderboard(ctx context.Context, code string, topN int) ([]Result, error) {
	code = strings.TrimSpace(code)
	if ranked, ok := s.getCachedLeaderboard(code); ok {
		return applyLeaderboardLimit(ranked, topN), nil
	}

	generation := s.leaderboardGeneration(code)
	quiz, err := s.GetQuiz(ctx, code)
	if err != nil {
		return nil, err
	}

	ranked := RankResults(quiz.Results)
	s.setCachedLeaderboard(quiz.Code, ranked, generation)
	return applyLeaderboardLimit(ranked, topN), nil
}

func (s *Service) MyScore(ctx context.Context, code, student string) (int, bool, error) {
	quiz, err := s.GetQuiz(ctx, code)
	if err != nil {
		return 0, false, err
	}
	score, ok := FirstScore(quiz.Results, student)
	return score, ok, nil
}

func (s *Service) ListQuizzes(ctx context.Context) ([]Quiz, error) {
	return s.quizzes.ListQuizzes(ctx)
}

// ClampQuestionCount keeps provider requests within [1, 15].
func ClampQuestionCount(n int) int {
	if n < MinProviderQuestions {
		return MinProviderQuestions
	}
	if n > MaxProviderQuestions {
		return MaxProviderQuestions
	}
	return n
}

func (s *Service) store(ctx context.Context, quiz Quiz) (string, error) {
	if quiz.Questions == nil {
		quiz.Questions = []Question{}
	}
	if quiz.Results == nil {
		quiz.Results = []Result{}
	}
	quiz.CreatedAt = s.now()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		quiz.Code = s.newCode()
		err := s.quizzes.CreateQuiz(ctx, quiz)
		if err == nil {
			glog.Infof("quiz %s %q created by %s with %d questions", quiz.Code, quiz.Title, quiz.CreatedBy, len(quiz.Questions))
			return quiz.Code, nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return "", err
		}
		glog.V(2).Infof("quiz code %s already taken, regenerating", quiz.Code)
	}

	return "", ErrNoFreeCode
}

// generateQuizCode returns a 4-digit code in [1000, 9999].
func generateQuizCode() string {
	return strconv.Itoa(1000 + rand.Intn(9000))
}
