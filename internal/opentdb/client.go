// Package opentdb imports multiple-choice questions from the Open Trivia
// Database into the examhall bank format. Only four-option questions are
// requested; OpenTDB's difficulty names match the bank's seeded set, so
// fetched entries convert straight into question drafts.
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"examhall/internal/exam"
)

const (
	apiURL        = "https://opentdb.com/api.php"
	defaultAmount = 10
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

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

type Client struct {
	http *http.Client
}

// NewClient wraps an HTTP client; nil uses http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient}
}

// FetchQuestions pulls up to amount multiple-choice questions, optionally
// restricted to one difficulty name. Non-positive amounts fall back to
// the API default.
func (c *Client) FetchQuestions(ctx context.Context, amount int, difficulty string) ([]RawQuestion, error) {
	if amount <= 0 {
		amount = defaultAmount
	}

	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	query.Set("type", "multiple")
	if difficulty != "" {
		query.Set("difficulty", strings.ToLower(difficulty))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opentdb returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response_code=%d", payload.ResponseCode)
	}

	return payload.Results, nil
}

// Drafts converts fetched questions into bank drafts: HTML entities are
// unescaped, the four options are shuffled, and the category becomes the
// topic. Entries that are not four-option multiple choice or carry a
// difficulty outside the seeded set are dropped.
func Drafts(raw []RawQuestion) []exam.QuestionDraft {
	drafts := make([]exam.QuestionDraft, 0, len(raw))
	for _, item := range raw {
		if draft, ok := buildDraft(item); ok {
			drafts = append(drafts, draft)
		}
	}
	return drafts
}

func buildDraft(raw RawQuestion) (exam.QuestionDraft, bool) {
	if len(raw.IncorrectAnswers) != 3 {
		return exam.QuestionDraft{}, false
	}
	if _, ok := exam.DifficultyID(raw.Difficulty); !ok {
		return exam.QuestionDraft{}, false
	}

	type choice struct {
		text      string
		isCorrect bool
	}

	choices := make([]choice, 0, 4)
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, choice{text: html.UnescapeString(incorrect)})
	}
	choices = append(choices, choice{
		text:      html.UnescapeString(raw.CorrectAnswer),
		isCorrect: true,
	})

	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	var (
		options       [4]string
		correctLetter string
	)
	for idx, candidate := range choices {
		options[idx] = candidate.text
		if candidate.isCorrect {
			correctLetter = string(rune('A' + idx))
		}
	}

	return exam.QuestionDraft{
		Text:       html.UnescapeString(raw.Question),
		OptionA:    options[0],
		OptionB:    options[1],
		OptionC:    options[2],
		OptionD:    options[3],
		Correct:    correctLetter,
		Topic:      strings.ToLower(strings.TrimSpace(html.UnescapeString(raw.Category))),
		Difficulty: strings.ToLower(raw.Difficulty),
	}, true
}
