package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"examhall/internal/exam"
)

// cmdPractice has two modes: bare PRACTICE (or PRACTICE #) lists the
// topics with their question counts, PRACTICE <topic> draws one random
// question from that topic and arms the session for a bare ANSWER.
func (h *Handler) cmdPractice(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	topic := strings.TrimSpace(rest)
	if topic == "" || topic == "#" {
		topics, err := h.Store.TopicsWithCounts(ctx)
		if err != nil {
			return h.failFor(sess, err), false
		}
		if len(topics) == 0 {
			return "FAIL No topics available", false
		}
		entries := make([]string, 0, len(topics))
		for _, tc := range topics {
			entries = append(entries, fmt.Sprintf("%s:%d", tc.Name, tc.Count))
		}
		return "TOPICS " + strings.Join(entries, "|"), false
	}

	topicID, err := h.Store.TopicIDByName(ctx, topic)
	if err != nil {
		return h.failFor(sess, err), false
	}
	questions, err := h.Store.RandomFilteredQuestions(ctx, strconv.FormatInt(topicID, 10), 0, 1)
	if err != nil {
		return h.failFor(sess, err), false
	}
	if len(questions) == 0 {
		return "FAIL No question found", false
	}

	q := questions[0]
	sess.practiceQID = q.ID
	sess.practiceAnswer = q.Correct

	return fmt.Sprintf("PRACTICE_Q %d|%s|%s|%s|%s|%s|%s|%s",
		q.ID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.Correct, q.Topic), false
}

func (h *Handler) cmdTopics(ctx context.Context, sess *session, _, _ string) (string, bool) {
	topics, err := h.Store.TopicsWithCounts(ctx)
	if err != nil {
		return h.failFor(sess, err), false
	}
	if len(topics) == 0 {
		return "SUCCESS No topics", false
	}
	entries := make([]string, 0, len(topics))
	for _, tc := range topics {
		entries = append(entries, fmt.Sprintf("%s:%d", tc.Name, tc.Count))
	}
	return "SUCCESS " + strings.Join(entries, "|"), false
}

func (h *Handler) cmdDifficulties(ctx context.Context, sess *session, _, _ string) (string, bool) {
	counts, err := h.Store.DifficultiesWithCounts(ctx)
	if err != nil {
		return h.failFor(sess, err), false
	}
	entries := make([]string, 0, len(counts))
	for _, dc := range counts {
		entries = append(entries, fmt.Sprintf("%s:%d", dc.Name, dc.Count))
	}
	return "SUCCESS " + strings.Join(entries, "|"), false
}

// cmdDifficultiesForTopics passes the topic-id list through verbatim;
// the store treats anything that is not a plain comma-joined id list as
// matching nothing.
func (h *Handler) cmdDifficultiesForTopics(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	if rest == "" {
		return "FAIL Usage: GET_DIFFICULTIES_FOR_TOPICS <topicIds>", false
	}
	counts, err := h.Store.DifficultyCountsForTopics(ctx, rest)
	if err != nil {
		return h.failFor(sess, err), false
	}
	return fmt.Sprintf("SUCCESS easy:%d|medium:%d|hard:%d", counts[0], counts[1], counts[2]), false
}

func (h *Handler) cmdAddQuestion(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	const usage = "FAIL Usage: ADD_QUESTION <text>|<optA>|<optB>|<optC>|<optD>|<correct>|<topic>|<difficulty>"

	parts := strings.Split(rest, "|")
	if len(parts) != 8 {
		return usage, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for _, field := range parts[:5] {
		if field == "" {
			return usage, false
		}
	}
	if parts[6] == "" {
		return usage, false
	}
	if exam.NormalizeLetter(parts[5]) == "" {
		return "FAIL Correct answer must be A, B, C, or D", false
	}

	id, err := h.Store.AddQuestion(ctx, exam.QuestionDraft{
		Text:       parts[0],
		OptionA:    parts[1],
		OptionB:    parts[2],
		OptionC:    parts[3],
		OptionD:    parts[4],
		Correct:    exam.NormalizeLetter(parts[5]),
		Topic:      parts[6],
		Difficulty: parts[7],
		CreatedBy:  sess.userID,
	})
	if err != nil {
		return h.failFor(sess, err), false
	}

	h.audit("question %d added by %s", id, sess.username)
	return fmt.Sprintf("SUCCESS Question %d added", id), false
}

func (h *Handler) cmdSearchQuestions(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	const usage = "FAIL Usage: SEARCH_QUESTIONS <id|topic|difficulty> <value>"

	field, value, ok := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return usage, false
	}
	switch field {
	case "id", "topic", "difficulty":
	default:
		return usage, false
	}

	questions, err := h.Store.SearchQuestions(ctx, field, value)
	if err != nil {
		return h.failFor(sess, err), false
	}
	if len(questions) == 0 {
		return "FAIL No question found", false
	}

	entries := make([]string, 0, len(questions))
	for _, q := range questions {
		entries = append(entries, fmt.Sprintf("#%d [%s/%s] %s (correct %s)",
			q.ID, q.Topic, q.Difficulty, q.Text, q.Correct))
	}
	return "SUCCESS " + strings.Join(entries, "|"), false
}

func (h *Handler) cmdDeleteQuestion(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	args := strings.Fields(rest)
	if len(args) != 1 {
		return "FAIL Usage: DELETE_QUESTION <id>", false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "FAIL Usage: DELETE_QUESTION <id>", false
	}

	if err := h.Store.DeleteQuestion(ctx, id); err != nil {
		return h.failFor(sess, err), false
	}

	h.audit("question %d deleted by %s", id, sess.username)
	return "SUCCESS Question deleted", false
}
