// Package selector assembles room question sets: stratified random
// sampling from the bank according to requested per-topic and
// per-difficulty counts.
package selector

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"examhall/internal/exam"
)

// ErrOversubscribed is returned when the topic filter asks for more
// questions than the requested room size.
var ErrOversubscribed = errors.New("topic counts exceed the requested total")

// QuestionSource is the slice of the store the selector needs.
type QuestionSource interface {
	TopicsWithCounts(ctx context.Context) ([]exam.TopicCount, error)
	TopicIDByName(ctx context.Context, name string) (int64, error)
	RandomFilteredQuestions(ctx context.Context, topicIDs string, difficultyID int64, limit int) ([]exam.Question, error)
}

type Selector struct {
	src QuestionSource
}

func New(src QuestionSource) *Selector {
	return &Selector{src: src}
}

type quota struct {
	topicID int64
	name    string
	want    int
}

// Select samples up to total questions honoring the topic and difficulty
// filters ("name:count" tokens; empty or "#" means unfiltered). Unknown
// names are dropped and repeated names merge their counts. The result
// preserves topic-major, difficulty-inner order and may be shorter than
// total when the bank undersupplies a cell; an empty result means no cell
// matched.
func (s *Selector) Select(ctx context.Context, total int, topicFilter, difficultyFilter []string) ([]exam.Question, error) {
	topics, err := s.topicQuotas(ctx, total, topicFilter)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return []exam.Question{}, nil
	}

	sum := 0
	for _, t := range topics {
		sum += t.want
	}
	if sum > total {
		return nil, ErrOversubscribed
	}

	diffWant := map[int64]int{}
	for _, p := range parsePairs(difficultyFilter) {
		if id, ok := exam.DifficultyID(p.name); ok {
			diffWant[id] += p.want
		}
	}
	if hasFilter(difficultyFilter) && len(diffWant) == 0 {
		return []exam.Question{}, nil
	}

	selected := make([]exam.Question, 0, total)
	for _, t := range topics {
		var cells [3]int
		if len(diffWant) > 0 {
			remaining := t.want
			for id := exam.DifficultyEasy; id <= exam.DifficultyHard; id++ {
				want := min(remaining, diffWant[id])
				cells[id-1] = want
				remaining -= want
			}
		} else {
			// Unfiltered difficulties split the topic quota evenly,
			// remainder to easy.
			per := t.want / 3
			cells = [3]int{per + t.want%3, per, per}
		}

		topicIDs := strconv.FormatInt(t.topicID, 10)
		for i, want := range cells {
			if want == 0 {
				continue
			}
			questions, err := s.src.RandomFilteredQuestions(ctx, topicIDs, int64(i+1), want)
			if err != nil {
				return nil, err
			}
			selected = append(selected, questions...)
			if len(diffWant) > 0 {
				diffWant[int64(i+1)] -= len(questions)
			}
		}
	}

	return selected, nil
}

// topicQuotas resolves the topic filter into (id, wanted) quotas. With no
// filter, every known topic shares total evenly and the remainder goes to
// the first.
func (s *Selector) topicQuotas(ctx context.Context, total int, topicFilter []string) ([]quota, error) {
	pairs := parsePairs(topicFilter)
	if len(pairs) == 0 {
		if hasFilter(topicFilter) {
			return nil, nil
		}

		all, err := s.src.TopicsWithCounts(ctx)
		if err != nil {
			return nil, err
		}
		if len(all) == 0 {
			return nil, nil
		}

		per := total / len(all)
		rem := total % len(all)
		quotas := make([]quota, 0, len(all))
		for i, tc := range all {
			want := per
			if i == 0 {
				want += rem
			}
			if want == 0 {
				continue
			}
			quotas = append(quotas, quota{topicID: tc.ID, name: tc.Name, want: want})
		}
		return quotas, nil
	}

	// Tokens repeating a topic merge into one quota, like the difficulty
	// counts do; otherwise the same cell would be sampled twice and the
	// draws could overlap.
	quotas := make([]quota, 0, len(pairs))
	seen := make(map[int64]int, len(pairs))
	for _, p := range pairs {
		id, err := s.src.TopicIDByName(ctx, p.name)
		if errors.Is(err, exam.ErrTopicNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if at, ok := seen[id]; ok {
			quotas[at].want += p.want
			continue
		}
		seen[id] = len(quotas)
		quotas = append(quotas, quota{topicID: id, name: p.name, want: p.want})
	}
	return quotas, nil
}

type pair struct {
	name string
	want int
}

// parsePairs reads "name:count" tokens. Malformed tokens, non-positive
// counts, and the `#` placeholder are dropped.
func parsePairs(tokens []string) []pair {
	pairs := make([]pair, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" || tok == "#" {
			continue
		}
		name, countStr, ok := strings.Cut(tok, ":")
		if !ok {
			continue
		}
		count, err := strconv.Atoi(countStr)
		if err != nil || count <= 0 {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		pairs = append(pairs, pair{name: name, want: count})
	}
	return pairs
}

// hasFilter reports whether the tokens contain anything beyond the `#`
// placeholder.
func hasFilter(tokens []string) bool {
	for _, tok := range tokens {
		if tok != "" && tok != "#" {
			return true
		}
	}
	return false
}
