package opentdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(rt http.RoundTripper) *Client {
	return NewClient(&http.Client{Transport: rt})
}

func jsonResponse(status int, body []byte) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestFetchQuestionsUsesDefaultAmountWhenNonPositive(t *testing.T) {
	var seenAmount string

	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seenAmount = r.URL.Query().Get("amount")
		return jsonResponse(http.StatusOK, []byte(`{"response_code":0,"results":[]}`)), nil
	}))

	questions, err := client.FetchQuestions(context.Background(), Request{})
	if err != nil {
		t.Fatalf("FetchQuestions returned error: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected no questions, got %d", len(questions))
	}
	if seenAmount != "10" {
		t.Fatalf("expected default amount 10, got %q", seenAmount)
	}
}

func TestFetchQuestionsSendsFilters(t *testing.T) {
	var seen map[string]string

	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		q := r.URL.Query()
		seen = map[string]string{
			"amount":     q.Get("amount"),
			"type":       q.Get("type"),
			"category":   q.Get("category"),
			"difficulty": q.Get("difficulty"),
		}
		return jsonResponse(http.StatusOK, []byte(`{"response_code":0,"results":[{"question":"Q","correct_answer":"a","incorrect_answers":["b","c","d"]}]}`)), nil
	}))

	questions, err := client.FetchQuestions(context.Background(), Request{Amount: 4, Category: "9", Difficulty: "easy"})
	if err != nil {
		t.Fatalf("FetchQuestions returned error: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectAnswer != "a" {
		t.Fatalf("unexpected questions: %+v", questions)
	}

	want := map[string]string{"amount": "4", "type": "multiple", "category": "9", "difficulty": "easy"}
	for key, value := range want {
		if seen[key] != value {
			t.Fatalf("query %s = %q, want %q", key, seen[key], value)
		}
	}
}

func TestFetchQuestionsOmitsEmptyFilters(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		q := r.URL.Query()
		if q.Has("category") || q.Has("difficulty") {
			t.Fatalf("unexpected filters in query: %s", r.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, []byte(`{"response_code":0,"results":[]}`)), nil
	}))

	if _, err := client.FetchQuestions(context.Background(), Request{Amount: 2, Category: " "}); err != nil {
		t.Fatalf("FetchQuestions returned error: %v", err)
	}
}

func TestFetchQuestionsPropagatesNonOKStatus(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, nil), nil
	}))

	_, err := client.FetchQuestions(context.Background(), Request{Amount: 5})
	if err == nil {
		t.Fatalf("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("expected status in error, got %q", err)
	}
	if !strings.Contains(fmt.Sprintf("%+v", err), "FetchQuestions") {
		t.Fatalf("expected a stack trace on the status error")
	}
}

func TestFetchQuestionsJSONDecodeError(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, []byte("not-json")), nil
	}))

	if _, err := client.FetchQuestions(context.Background(), Request{Amount: 3}); err == nil {
		t.Fatalf("expected JSON decode error")
	}
}

func TestFetchQuestionsNonZeroResponseCode(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		payload := apiResponse{
			ResponseCode: 1,
			Results: []RawQuestion{
				{Question: "ignored"},
			},
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		return jsonResponse(http.StatusOK, encoded), nil
	}))

	_, err := client.FetchQuestions(context.Background(), Request{Amount: 3})
	if err == nil {
		t.Fatalf("expected error for non-zero response_code")
	}
	if !strings.Contains(err.Error(), "response_code=1") {
		t.Fatalf("expected response code in error, got %q", err)
	}
}
