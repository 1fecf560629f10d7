package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"classquiz/internal/quiz"
	"classquiz/internal/store"
	"classquiz/internal/users"
)

const (
	teachersOnlyText   = "Access denied: Teachers only!"
	usernameTakenText  = "Username already exists!"
	badCredentialsText = "Invalid username or password!"
	invalidRoleText    = "Invalid role"
	invalidCodeText    = "Invalid code"
	quizNotFoundText   = "Quiz not found"
	providerFailedText = "Failed to fetch questions"
	unavailableText    = "Storage unavailable"
	internalErrorText  = "Internal server error"

	guestName            = "Guest"
	defaultBlankQuestion = 5
	resultLeaderboardTop = 3
)

func writeText(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

// writeServiceError maps domain and storage failures to the plain-text
// responses users see.
func writeServiceError(w http.ResponseWriter, err error) {
	var providerErr *quiz.ProviderError
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound):
		writeText(w, http.StatusNotFound, quizNotFoundText)
	case errors.Is(err, store.ErrStoreUnavailable):
		glog.Errorf("store unavailable: %v", err)
		writeText(w, http.StatusServiceUnavailable, unavailableText)
	case errors.As(err, &providerErr):
		glog.Warningf("question provider failed: %v", err)
		writeText(w, http.StatusBadGateway, providerFailedText)
	case errors.Is(err, quiz.ErrInvalidQuestion):
		writeText(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, users.ErrInvalidRole):
		writeText(w, http.StatusBadRequest, invalidRoleText)
	case errors.Is(err, users.ErrInvalidUsername), errors.Is(err, users.ErrInvalidPassword), errors.Is(err, quiz.ErrInvalidStudent):
		writeText(w, http.StatusBadRequest, err.Error())
	default:
		glog.Errorf("request failed: %v", err)
		writeText(w, http.StatusInternalServerError, internalErrorText)
	}
}

// parseIntForm reads an optional integer form field. Negative values are
// rejected along with anything that is not a number.
func parseIntForm(r *http.Request, key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.PostFormValue(key))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, errors.Errorf("%s must be a non-negative integer", key)
	}
	return parsed, nil
}

// parseQuestionsForm collects q<i>, opt_a<i>..opt_d<i> and correct<i> for
// i = 1, 2, ... for as long as q<i> is present in the form.
func parseQuestionsForm(r *http.Request) []quiz.Question {
	questions := make([]quiz.Question, 0)
	for i := 1; ; i++ {
		suffix := strconv.Itoa(i)
		if _, ok := r.PostForm["q"+suffix]; !ok {
			break
		}

		questions = append(questions, quiz.NewManualQuestion(
			r.PostFormValue("q"+suffix),
			[quiz.OptionCount]string{
				r.PostFormValue("opt_a" + suffix),
				r.PostFormValue("opt_b" + suffix),
				r.PostFormValue("opt_c" + suffix),
				r.PostFormValue("opt_d" + suffix),
			},
			r.PostFormValue("correct"+suffix),
		))
	}
	return questions
}

// parseAnswers reads the q<i> radio answers for a quiz of n questions.
// Answers are compared as submitted, without normalisation.
func parseAnswers(r *http.Request, n int) map[int]string {
	answers := make(map[int]string, n)
	for i := 1; i <= n; i++ {
		if answer := r.PostFormValue("q" + strconv.Itoa(i)); answer != "" {
			answers[i] = answer
		}
	}
	return answers
}

// safeNext only allows redirects to a path on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/profile"
	}
	parsed, err := url.Parse(next)
	if err != nil || parsed.IsAbs() || parsed.Host != "" {
		return "/profile"
	}
	return next
}

func loginURL(r *http.Request) string {
	return "/login?next=" + url.QueryEscape(r.URL.RequestURI())
}
