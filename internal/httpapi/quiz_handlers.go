package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"classquiz/internal/quiz"
	"classquiz/internal/session"
)

type optionView struct {
	Label string
	Text  string
}

type questionView struct {
	Number  int
	Text    string
	Options []optionView
}

// takeQuizView deliberately leaves out the correct labels.
type takeQuizView struct {
	Code      string
	TimeLimit int
	Questions []questionView
}

type resultView struct {
	Leaderboard []quiz.Result
	MyScore     int
	HasScore    bool
}

func (a *API) HandleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		blanks := make([]int, defaultBlankQuestion)
		for i := range blanks {
			blanks[i] = i + 1
		}
		a.render(w, r, "create_quiz", "Create a quiz", blanks)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	timeLimit, err := parseIntForm(r, "time_limit", 0)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	principal, _ := session.FromContext(r.Context())
	code, err := a.quizzes.CreateManual(r.Context(), quiz.ManualQuiz{
		Title:     r.PostFormValue("title"),
		TimeLimit: timeLimit,
		Questions: parseQuestionsForm(r),
		CreatedBy: principal.Username,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeText(w, http.StatusOK, "Quiz created! Code: "+code)
}

func (a *API) HandleCreateAIQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.render(w, r, "create_ai_quiz", "Generate a quiz", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	numQuestions, err := parseIntForm(r, "num_q", quiz.DefaultProviderQuestions)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	timeLimit, err := parseIntForm(r, "time_limit", 0)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	principal, _ := session.FromContext(r.Context())
	code, err := a.quizzes.CreateFromProvider(r.Context(), quiz.ProviderQuiz{
		NumQuestions: numQuestions,
		Category:     r.PostFormValue("category"),
		Difficulty:   r.PostFormValue("difficulty"),
		TimeLimit:    timeLimit,
		CreatedBy:    principal.Username,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeText(w, http.StatusOK, "AI Quiz created! Code: "+code)
}

func (a *API) HandleTakeQuiz(w http.ResponseWriter, r *http.Request) {
	q, err := a.quizzes.GetQuiz(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.Method != http.MethodPost {
		a.render(w, r, "take_quiz", quizTitle(q), toTakeQuizView(q))
		return
	}
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	principal, _ := session.FromContext(r.Context())
	if _, err := a.quizzes.SubmitAttempt(r.Context(), q.Code, principal.Username, parseAnswers(r, len(q.Questions))); err != nil {
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/result/"+q.Code, http.StatusFound)
}

func (a *API) HandleResult(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	q, err := a.quizzes.GetQuiz(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	leaderboard, err := a.quizzes.Leaderboard(r.Context(), q.Code, resultLeaderboardTop)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	principal, _ := session.FromContext(r.Context())
	myScore, hasScore, err := a.quizzes.MyScore(r.Context(), q.Code, principal.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	a.render(w, r, "result", quizTitle(q), resultView{
		Leaderboard: leaderboard,
		MyScore:     myScore,
		HasScore:    hasScore,
	})
}

func quizTitle(q quiz.Quiz) string {
	if q.Title == "" {
		return "Quiz"
	}
	return q.Title
}

func toTakeQuizView(q quiz.Quiz) takeQuizView {
	view := takeQuizView{
		Code:      q.Code,
		TimeLimit: q.TimeLimit,
		Questions: make([]questionView, 0, len(q.Questions)),
	}
	for idx, question := range q.Questions {
		item := questionView{Number: idx + 1, Text: question.Text}
		for optionIdx, text := range question.Options {
			label := strconv.Itoa(optionIdx + 1)
			if optionIdx < len(quiz.Labels) {
				label = quiz.Labels[optionIdx]
			}
			item.Options = append(item.Options, optionView{Label: label, Text: text})
		}
		view.Questions = append(view.Questions, item)
	}
	return view
}
