package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_ = req.ParseForm()
	return req
}

func TestParseIntForm(t *testing.T) {
	req := formRequest(url.Values{})
	if got, err := parseIntForm(req, "time_limit", 0); err != nil || got != 0 {
		t.Fatalf("default parseIntForm = (%d, %v), want (0, nil)", got, err)
	}

	req = formRequest(url.Values{"time_limit": {" 30 "}})
	if got, err := parseIntForm(req, "time_limit", 0); err != nil || got != 30 {
		t.Fatalf("valid parseIntForm = (%d, %v), want (30, nil)", got, err)
	}

	for _, bad := range []string{"abc", "-1", "1.5"} {
		req = formRequest(url.Values{"time_limit": {bad}})
		if _, err := parseIntForm(req, "time_limit", 0); err == nil {
			t.Fatalf("expected error for time_limit=%q", bad)
		}
	}
}

func TestParseQuestionsFormStopsAtFirstGap(t *testing.T) {
	req := formRequest(url.Values{
		"q1": {" Capital of France? "}, "opt_a1": {"Paris"}, "opt_b1": {"Rome"}, "opt_c1": {"Oslo"}, "opt_d1": {"Bern"}, "correct1": {"a"},
		"q2": {"2+2?"}, "opt_a2": {"3"}, "opt_b2": {"4"}, "correct2": {"Z"},
		"q4": {"never read"},
	})

	questions := parseQuestionsForm(req)
	if len(questions) != 2 {
		t.Fatalf("parsed %d questions, want 2", len(questions))
	}
	if questions[0].Text != "Capital of France?" || questions[0].Correct != "A" {
		t.Fatalf("unexpected first question %+v", questions[0])
	}
	if questions[1].Correct != "A" {
		t.Fatalf("invalid correct label should fall back to A, got %q", questions[1].Correct)
	}
	if len(questions[1].Options) != 4 || questions[1].Options[2] != "" {
		t.Fatalf("missing options should be empty strings, got %#v", questions[1].Options)
	}
}

func TestParseAnswers(t *testing.T) {
	req := formRequest(url.Values{"q1": {"A"}, "q3": {"D"}, "q9": {"B"}})

	answers := parseAnswers(req, 3)
	if len(answers) != 2 || answers[1] != "A" || answers[3] != "D" {
		t.Fatalf("unexpected answers %#v", answers)
	}
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                    "/profile",
		"/result/1234":        "/result/1234",
		"/take_quiz/1?x=1":    "/take_quiz/1?x=1",
		"https://evil.test/x": "/profile",
		"//evil.test/x":       "/profile",
		"/\\evil.test":        "/profile",
		"profile":             "/profile",
	}
	for input, want := range tests {
		if got := safeNext(input); got != want {
			t.Fatalf("safeNext(%q) = %q, want %q", input, got, want)
		}
	}
}
