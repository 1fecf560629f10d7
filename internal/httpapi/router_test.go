package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classquiz/internal/opentdb"
	"classquiz/internal/quiz"
	"classquiz/internal/session"
	"classquiz/internal/store/jsonfile"
	"classquiz/internal/users"
)

var codePattern = regexp.MustCompile(`Code: (\d{4})$`)

type testApp struct {
	server  *httptest.Server
	dataDir string
}

func newTestApp(t *testing.T, fetcher quiz.QuestionsFetcher) *testApp {
	t.Helper()
	dir := t.TempDir()

	userService := users.NewService(jsonfile.NewUserStore(filepath.Join(dir, jsonfile.UsersFileName)))
	quizService := quiz.NewService(jsonfile.NewQuizStore(filepath.Join(dir, jsonfile.QuizzesFileName)), fetcher)
	api, err := NewAPI(userService, quizService, session.NewManager("test-secret", time.Hour))
	require.NoError(t, err)

	server := httptest.NewServer(NewRouter(api))
	t.Cleanup(server.Close)
	return &testApp{server: server, dataDir: dir}
}

// browser keeps cookies between requests and never follows redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (app *testApp) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: app.server.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type response struct {
	status   int
	body     string
	location string
}

func (b *browser) do(req *http.Request) response {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return response{status: resp.StatusCode, body: string(body), location: resp.Header.Get("Location")}
}

func (b *browser) get(path string) response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) registerAndLogin(username, password, role string) {
	b.t.Helper()
	resp := b.post("/register", url.Values{"username": {username}, "password": {password}, "role": {role}})
	require.Equal(b.t, http.StatusFound, resp.status, resp.body)
	require.Equal(b.t, "/login", resp.location)

	resp = b.post("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.t, http.StatusFound, resp.status, resp.body)
	require.Equal(b.t, "/profile", resp.location)
}

func createdCode(t *testing.T, body string) string {
	t.Helper()
	match := codePattern.FindStringSubmatch(body)
	require.Len(t, match, 2, "no quiz code in %q", body)
	return match[1]
}

func TestTeacherCreatesQuizAndGuestScoresOne(t *testing.T) {
	app := newTestApp(t, nil)

	teacher := app.newBrowser(t)
	teacher.registerAndLogin("t1", "pw", "teacher")

	resp := teacher.post("/create_quiz", url.Values{
		"title":      {"Basics"},
		"time_limit": {"60"},
		"q1":         {"Capital of France?"}, "opt_a1": {"Paris"}, "opt_b1": {"Rome"}, "opt_c1": {"Oslo"}, "opt_d1": {"Bern"}, "correct1": {"A"},
		"q2": {"2+2?"}, "opt_a2": {"3"}, "opt_b2": {"4"}, "opt_c2": {"5"}, "opt_d2": {"6"}, "correct2": {"B"},
	})
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	assert.True(t, strings.HasPrefix(resp.body, "Quiz created! Code: "))
	code := createdCode(t, resp.body)

	guest := app.newBrowser(t)
	resp = guest.post("/join_quiz", url.Values{"code": {code}, "name": {"s1"}})
	require.Equal(t, http.StatusFound, resp.status, resp.body)
	require.Equal(t, "/take_quiz/"+code, resp.location)

	resp = guest.get("/take_quiz/" + code)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.body, "Capital of France?")
	assert.NotContains(t, resp.body, "correct")

	resp = guest.post("/take_quiz/"+code, url.Values{"q1": {"A"}, "q2": {"C"}})
	require.Equal(t, http.StatusFound, resp.status, resp.body)
	require.Equal(t, "/result/"+code, resp.location)

	resp = guest.get("/result/" + code)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.body, `<strong id="my-score">1</strong>`)
	assert.Contains(t, resp.body, "s1: 1")

	resp = teacher.get("/profile")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.body, "Basics · code "+code)
}

func TestResultShowsTopThree(t *testing.T) {
	app := newTestApp(t, nil)
	teacher := app.newBrowser(t)
	teacher.registerAndLogin("t1", "pw", "teacher")

	resp := teacher.post("/create_quiz", url.Values{
		"q1": {"a"}, "opt_a1": {"1"}, "opt_b1": {"2"}, "opt_c1": {"3"}, "opt_d1": {"4"}, "correct1": {"A"},
		"q2": {"b"}, "opt_a2": {"1"}, "opt_b2": {"2"}, "opt_c2": {"3"}, "opt_d2": {"4"}, "correct2": {"A"},
	})
	code := createdCode(t, resp.body)

	submissions := map[string]url.Values{
		"low":   {"q1": {"B"}, "q2": {"B"}},
		"mid":   {"q1": {"A"}, "q2": {"B"}},
		"high":  {"q1": {"A"}, "q2": {"A"}},
		"mid2":  {"q1": {"B"}, "q2": {"A"}},
		"later": {"q1": {"A"}, "q2": {"A"}},
	}
	for _, name := range []string{"low", "mid", "high", "mid2", "later"} {
		guest := app.newBrowser(t)
		require.Equal(t, http.StatusFound, guest.post("/join_quiz", url.Values{"code": {code}, "name": {name}}).status)
		require.Equal(t, http.StatusFound, guest.post("/take_quiz/"+code, submissions[name]).status)
	}

	resp = teacher.get("/result/" + code)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.body, "high: 2")
	assert.Contains(t, resp.body, "later: 2")
	assert.Contains(t, resp.body, "mid: 1")
	assert.NotContains(t, resp.body, "mid2: 1")
	assert.NotContains(t, resp.body, "low: 0")
	assert.Contains(t, resp.body, "not attempted")
	assert.Less(t, strings.Index(resp.body, "high: 2"), strings.Index(resp.body, "later: 2"))
}

func TestGuards(t *testing.T) {
	app := newTestApp(t, nil)
	anon := app.newBrowser(t)

	resp := anon.get("/profile")
	assert.Equal(t, http.StatusFound, resp.status)
	assert.Equal(t, "/login?next=%2Fprofile", resp.location)

	resp = anon.get("/result/1234")
	assert.Equal(t, http.StatusFound, resp.status)
	assert.Equal(t, "/login?next=%2Fresult%2F1234", resp.location)

	resp = anon.get("/create_quiz")
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "Access denied: Teachers only!", resp.body)

	student := app.newBrowser(t)
	student.registerAndLogin("stu", "pw", "")
	resp = student.post("/create_ai_quiz", url.Values{"num_q": {"3"}})
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "Access denied: Teachers only!", resp.body)

	resp = student.get("/profile")
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.body, "stu")

	resp = student.get("/logout")
	assert.Equal(t, http.StatusFound, resp.status)
	assert.Equal(t, "/", resp.location)
	assert.Equal(t, http.StatusFound, student.get("/profile").status)
}

func TestLoginRedirectsToNext(t *testing.T) {
	app := newTestApp(t, nil)
	b := app.newBrowser(t)
	require.Equal(t, http.StatusFound, b.post("/register", url.Values{"username": {"ann"}, "password": {"pw"}}).status)

	resp := b.post("/login?next=%2Fresult%2F1234", url.Values{"username": {"ann"}, "password": {"pw"}})
	assert.Equal(t, http.StatusFound, resp.status)
	assert.Equal(t, "/result/1234", resp.location)

	resp = b.post("/login?next=https%3A%2F%2Fevil.test", url.Values{"username": {"ann"}, "password": {"pw"}})
	assert.Equal(t, "/profile", resp.location)
}

func TestRegisterAndLoginMessages(t *testing.T) {
	app := newTestApp(t, nil)
	b := app.newBrowser(t)

	require.Equal(t, http.StatusFound, b.post("/register", url.Values{"username": {"bob"}, "password": {"pw"}}).status)

	resp := b.post("/register", url.Values{"username": {"bob"}, "password": {"other"}})
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "Username already exists!", resp.body)

	resp = b.post("/register", url.Values{"username": {"bob"}, "password": {"pw"}, "role": {"admin"}})
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "Username already exists!", resp.body)

	resp = b.post("/register", url.Values{"username": {"eve"}, "password": {"pw"}, "role": {"admin"}})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Invalid role", resp.body)

	resp = b.post("/register", url.Values{"username": {"gus"}, "password": {"pw"}, "role": {"guest"}})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = b.post("/login", url.Values{"username": {"bob"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "Invalid username or password!", resp.body)

	resp = b.post("/login", url.Values{"username": {"nobody"}, "password": {"pw"}})
	assert.Equal(t, "Invalid username or password!", resp.body)

	resp = b.post("/login", url.Values{"username": {"bob"}, "password": {" pw "}})
	assert.Equal(t, http.StatusFound, resp.status)

	for _, path := range []string{"/", "/about", "/register", "/login", "/join_quiz"} {
		assert.Equal(t, http.StatusOK, b.get(path).status, path)
	}
}

func TestUnknownCodes(t *testing.T) {
	app := newTestApp(t, nil)
	b := app.newBrowser(t)

	resp := b.post("/join_quiz", url.Values{"code": {"9999"}, "name": {"s1"}})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Invalid code", resp.body)

	b.registerAndLogin("stu", "pw", "student")
	resp = b.get("/take_quiz/9999")
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "Quiz not found", resp.body)

	resp = b.get("/result/9999")
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestCreateAIQuiz(t *testing.T) {
	var requested opentdb.Request
	app := newTestApp(t, func(_ context.Context, request opentdb.Request) ([]opentdb.RawQuestion, error) {
		requested = request
		if request.Category == "broken" {
			return nil, errors.New("provider down")
		}
		return []opentdb.RawQuestion{{
			Question:         "Largest planet?",
			CorrectAnswer:    "Jupiter",
			IncorrectAnswers: []string{"Mars", "Venus", "Earth"},
		}}, nil
	})

	teacher := app.newBrowser(t)
	teacher.registerAndLogin("t1", "pw", "teacher")

	resp := teacher.post("/create_ai_quiz", url.Values{"num_q": {"40"}, "difficulty": {"easy"}})
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	assert.True(t, strings.HasPrefix(resp.body, "AI Quiz created! Code: "))
	assert.Equal(t, quiz.MaxProviderQuestions, requested.Amount)
	assert.Equal(t, "easy", requested.Difficulty)

	resp = teacher.post("/create_ai_quiz", url.Values{})
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	assert.Equal(t, quiz.DefaultProviderQuestions, requested.Amount)

	resp = teacher.post("/create_ai_quiz", url.Values{"category": {"broken"}})
	assert.Equal(t, http.StatusBadGateway, resp.status)
	assert.Equal(t, "Failed to fetch questions", resp.body)

	resp = teacher.post("/create_ai_quiz", url.Values{"num_q": {"lots"}})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = teacher.post("/create_quiz", url.Values{"time_limit": {"soon"}})
	assert.Equal(t, http.StatusBadRequest, resp.status)
}

func TestCorruptStoreIsUnavailable(t *testing.T) {
	app := newTestApp(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(app.dataDir, jsonfile.QuizzesFileName), []byte("{oops"), 0o644))

	b := app.newBrowser(t)
	resp := b.post("/join_quiz", url.Values{"code": {"1234"}})
	assert.Equal(t, http.StatusServiceUnavailable, resp.status)
	assert.Equal(t, "Storage unavailable", resp.body)
}
