package selector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"examhall/internal/exam"
)

// fakeSource hands out synthetic questions per (topic, difficulty) cell
// and records every sample request it serves.
type fakeSource struct {
	topics []exam.TopicCount
	// stock caps how many questions each "topicID/difficultyID" cell can
	// supply; missing keys supply nothing.
	stock map[string]int
	calls []string
}

func (f *fakeSource) TopicsWithCounts(_ context.Context) ([]exam.TopicCount, error) {
	return f.topics, nil
}

func (f *fakeSource) TopicIDByName(_ context.Context, name string) (int64, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, tc := range f.topics {
		if tc.Name == name {
			return tc.ID, nil
		}
	}
	return 0, exam.ErrTopicNotFound
}

func (f *fakeSource) RandomFilteredQuestions(_ context.Context, topicIDs string, difficultyID int64, limit int) ([]exam.Question, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s/%d:%d", topicIDs, difficultyID, limit))

	available := f.stock[fmt.Sprintf("%s/%d", topicIDs, difficultyID)]
	if limit < available {
		available = limit
	}
	questions := make([]exam.Question, 0, available)
	for i := 0; i < available; i++ {
		questions = append(questions, exam.Question{
			ID:           int64(i + 1),
			Text:         fmt.Sprintf("t%s d%d #%d", topicIDs, difficultyID, i),
			DifficultyID: difficultyID,
		})
	}
	return questions, nil
}

// twoTopics mirrors what the store would report: topics come back in
// name order, ten questions in every (topic, difficulty) cell.
func twoTopics() *fakeSource {
	return &fakeSource{
		topics: []exam.TopicCount{
			{ID: 2, Name: "cloud", Count: 30},
			{ID: 1, Name: "database", Count: 30},
		},
		stock: map[string]int{
			"1/1": 10, "1/2": 10, "1/3": 10,
			"2/1": 10, "2/2": 10, "2/3": 10,
		},
	}
}

func TestSelectExplicitMatrix(t *testing.T) {
	src := twoTopics()
	sel := New(src)

	questions, err := sel.Select(context.Background(), 5,
		[]string{"database:3", "cloud:2"},
		[]string{"easy:3", "hard:2"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}

	// Topic-major: database drains the whole easy quota, so cloud can
	// only draw from hard.
	wantCalls := []string{"1/1:3", "2/3:2"}
	if len(src.calls) != len(wantCalls) {
		t.Fatalf("expected calls %v, got %v", wantCalls, src.calls)
	}
	for i := range wantCalls {
		if src.calls[i] != wantCalls[i] {
			t.Fatalf("call %d: got %q want %q", i, src.calls[i], wantCalls[i])
		}
	}

	counts := map[int64]int{}
	for _, q := range questions {
		counts[q.DifficultyID]++
	}
	if counts[exam.DifficultyEasy] != 3 || counts[exam.DifficultyHard] != 2 {
		t.Fatalf("unexpected difficulty mix: %v", counts)
	}
}

func TestSelectEvenSplitWithoutFilters(t *testing.T) {
	src := twoTopics()
	sel := New(src)

	questions, err := sel.Select(context.Background(), 5, nil, nil)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}

	// The first topic takes the remainder (3 of 5), and inside a topic
	// the quota splits across difficulties with the remainder on easy.
	wantCalls := []string{"2/1:1", "2/2:1", "2/3:1", "1/1:2"}
	if len(src.calls) != len(wantCalls) {
		t.Fatalf("expected calls %v, got %v", wantCalls, src.calls)
	}
	for i := range wantCalls {
		if src.calls[i] != wantCalls[i] {
			t.Fatalf("call %d: got %q want %q (all: %v)", i, src.calls[i], wantCalls[i], src.calls)
		}
	}
}

func TestSelectDropsUnknownTopics(t *testing.T) {
	src := twoTopics()
	sel := New(src)

	questions, err := sel.Select(context.Background(), 4,
		[]string{"database:2", "quantum:2"}, nil)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected only the known topic's 2 questions, got %d", len(questions))
	}

	// Nothing valid in the filter means an empty result, not an error.
	questions, err = sel.Select(context.Background(), 4, []string{"quantum:2"}, nil)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected empty result, got %d questions", len(questions))
	}
}

func TestSelectOversubscribed(t *testing.T) {
	sel := New(twoTopics())

	_, err := sel.Select(context.Background(), 3,
		[]string{"database:2", "cloud:2"}, nil)
	if !errors.Is(err, ErrOversubscribed) {
		t.Fatalf("expected ErrOversubscribed, got %v", err)
	}
}

func TestSelectToleratesUndersupply(t *testing.T) {
	src := twoTopics()
	src.stock["1/1"] = 1 // database has a single easy question
	sel := New(src)

	questions, err := sel.Select(context.Background(), 4,
		[]string{"database:4"}, []string{"easy:4"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question from a starved cell, got %d", len(questions))
	}
}

func TestSelectHashPlaceholders(t *testing.T) {
	src := twoTopics()
	sel := New(src)

	// `#` means unfiltered: both topics share the total evenly.
	questions, err := sel.Select(context.Background(), 2, []string{"#"}, []string{"#"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	wantCalls := []string{"2/1:1", "1/1:1"}
	if len(src.calls) != 2 || src.calls[0] != wantCalls[0] || src.calls[1] != wantCalls[1] {
		t.Fatalf("expected calls %v, got %v", wantCalls, src.calls)
	}
}

func TestSelectInvalidDifficultyFilter(t *testing.T) {
	sel := New(twoTopics())

	questions, err := sel.Select(context.Background(), 2,
		[]string{"database:2"}, []string{"brutal:2"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected empty result for unknown difficulty filter, got %d", len(questions))
	}
}

func TestSelectMergesRepeatedTopicTokens(t *testing.T) {
	src := twoTopics()
	src.stock["1/1"] = 2 // database holds only two easy questions
	sel := New(src)

	// Both tokens name database, so they fold into a single quota of 4
	// and every (topic, difficulty) cell is sampled by exactly one query.
	// Split quotas would draw the starved easy cell twice and could hand
	// back the same questions in both samples.
	questions, err := sel.Select(context.Background(), 4,
		[]string{"database:2", "database:2"}, nil)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(questions))
	}

	wantCalls := []string{"1/1:2", "1/2:1", "1/3:1"}
	if len(src.calls) != len(wantCalls) {
		t.Fatalf("expected calls %v, got %v", wantCalls, src.calls)
	}
	for i := range wantCalls {
		if src.calls[i] != wantCalls[i] {
			t.Fatalf("call %d: got %q want %q", i, src.calls[i], wantCalls[i])
		}
	}

	// The merged count is what the oversubscription check sees.
	if _, err := sel.Select(context.Background(), 3,
		[]string{"database:2", "database:2"}, nil); !errors.Is(err, ErrOversubscribed) {
		t.Fatalf("expected ErrOversubscribed for merged quota, got %v", err)
	}
}

func TestSelectSharedDifficultyQuota(t *testing.T) {
	src := twoTopics()
	sel := New(src)

	// easy:2 is a global quota: once database consumes it, cloud must
	// fall back to its other allowed difficulty.
	questions, err := sel.Select(context.Background(), 4,
		[]string{"database:2", "cloud:2"},
		[]string{"easy:2", "medium:2"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(questions))
	}

	wantCalls := []string{"1/1:2", "2/2:2"}
	if len(src.calls) != len(wantCalls) {
		t.Fatalf("expected calls %v, got %v", wantCalls, src.calls)
	}
	for i := range wantCalls {
		if src.calls[i] != wantCalls[i] {
			t.Fatalf("call %d: got %q want %q", i, src.calls[i], wantCalls[i])
		}
	}
}
