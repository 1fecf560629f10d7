package opentdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultBaseURL = "https://opentdb.com/api.php"
	defaultAmount  = 10
)

// RawQuestion mirrors the OpenTriviaDB question payload.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Request narrows a fetch. Empty Category or Difficulty means "any".
type Request struct {
	Amount     int
	Category   string
	Difficulty string
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	return NewClientWithURL(DefaultBaseURL, httpClient)
}

func NewClientWithURL(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// FetchQuestions asks for multiple-choice questions only, so every result
// carries exactly three incorrect answers.
func (c *Client) FetchQuestions(ctx context.Context, request Request) ([]RawQuestion, error) {
	amount := request.Amount
	if amount <= 0 {
		amount = defaultAmount
	}

	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	query.Set("type", "multiple")
	if category := strings.TrimSpace(request.Category); category != "" {
		query.Set("category", category)
	}
	if difficulty := strings.TrimSpace(request.Difficulty); difficulty != "" {
		query.Set("difficulty", difficulty)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "opentdb request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("opentdb returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode opentdb response")
	}

	if payload.ResponseCode != 0 {
		return nil, errors.Errorf("opentdb response_code=%d", payload.ResponseCode)
	}

	return payload.Results, nil
}
