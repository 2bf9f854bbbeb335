package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"examhall/internal/exam"
)

func (h *Handler) cmdCreate(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	const usage = "FAIL Usage: CREATE <name> <numQuestions> <duration> [TOPICS name:count ...] [DIFFICULTIES name:count ...]"

	args := strings.Fields(rest)
	if len(args) < 3 {
		return usage, false
	}
	name := args[0]
	numQ, err := strconv.Atoi(args[1])
	if err != nil {
		return usage, false
	}
	duration, err := strconv.Atoi(args[2])
	if err != nil {
		return usage, false
	}
	if numQ < 1 || numQ > exam.MaxRoomQuestions {
		return fmt.Sprintf("FAIL Question count must be between 1 and %d", exam.MaxRoomQuestions), false
	}
	if duration < exam.MinRoomSeconds || duration > exam.MaxRoomSeconds {
		return fmt.Sprintf("FAIL Duration must be between %d and %d seconds", exam.MinRoomSeconds, exam.MaxRoomSeconds), false
	}
	topics, difficulties, ok := splitFilters(args[3:])
	if !ok {
		return usage, false
	}

	if h.Rooms.Find(name) != nil {
		return "FAIL Room already exists", false
	}
	if h.Rooms.Full() {
		return "FAIL Room limit reached", false
	}

	questions, err := h.Selector.Select(ctx, numQ, topics, difficulties)
	if err != nil {
		return h.failFor(sess, err), false
	}
	if len(questions) == 0 {
		return "FAIL No questions match your criteria", false
	}

	ids := make([]int64, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	roomID, err := h.Store.CreateRoom(ctx, name, sess.userID, duration, ids)
	if err != nil {
		return h.failFor(sess, err), false
	}

	room := &exam.Room{
		ID:        roomID,
		Name:      name,
		OwnerID:   sess.userID,
		OwnerName: sess.username,
		Duration:  duration,
		Questions: questions,
	}
	if err := h.Rooms.Add(room); err != nil {
		return h.failFor(sess, err), false
	}
	h.setRoomsGauge()

	h.audit("room %s created by %s (%d questions, %ds)", name, sess.username, len(questions), duration)
	return fmt.Sprintf("SUCCESS Room %s created (%d questions)", name, len(questions)), false
}

func (h *Handler) cmdList(_ context.Context, _ *session, _, _ string) (string, bool) {
	entries := make([]string, 0, h.Rooms.Len())
	h.Rooms.Each(func(r *exam.Room) {
		entries = append(entries, fmt.Sprintf("- %s (Owner: %s, Q: %d, Time: %ds)",
			r.Name, r.OwnerName, r.NumQuestions(), r.Duration))
	})
	if len(entries) == 0 {
		return "SUCCESS No active rooms", false
	}
	return "SUCCESS " + strings.Join(entries, "|"), false
}

// cmdJoin starts or resumes an attempt. A participant who already
// submitted gets a fresh attempt with the old score pushed into history;
// one mid-attempt resumes against the original deadline.
func (h *Handler) cmdJoin(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	args := strings.Fields(rest)
	if len(args) != 1 {
		return "FAIL Usage: JOIN <room>", false
	}
	room := h.Rooms.Find(args[0])
	if room == nil {
		return "FAIL Room not found", false
	}

	now := h.now()
	p := room.FindParticipant(sess.username)
	switch {
	case p == nil:
		id, err := h.Store.SaveParticipant(ctx, room.ID, sess.userID, now)
		if err != nil {
			return h.failFor(sess, err), false
		}
		p = exam.NewParticipant(id, sess.userID, sess.username, room.NumQuestions(), now)
		room.AddParticipant(p)
	case p.InProgress():
		// Resume; the deadline does not move.
	default:
		p.ResetForAttempt(room.NumQuestions(), now)
		if _, err := h.Store.SaveParticipant(ctx, room.ID, sess.userID, now); err != nil {
			return h.failFor(sess, err), false
		}
	}

	if !room.Started {
		if err := h.Store.MarkRoomStarted(ctx, room.ID); err != nil {
			return h.failFor(sess, err), false
		}
		room.Started = true
	}

	h.audit("%s joined room %s", sess.username, room.Name)
	return fmt.Sprintf("SUCCESS Joined %d %d", room.NumQuestions(), room.Remaining(p, now)), false
}

func (h *Handler) cmdGetQuestion(_ context.Context, sess *session, rest, _ string) (string, bool) {
	args := strings.Fields(rest)
	if len(args) != 2 {
		return "FAIL Usage: GET_QUESTION <room> <index>", false
	}
	room := h.Rooms.Find(args[0])
	if room == nil {
		return "FAIL Room not found", false
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return "FAIL Usage: GET_QUESTION <room> <index>", false
	}
	p := room.FindParticipant(sess.username)
	if p == nil {
		return "FAIL Not in room", false
	}
	if index < 0 || index >= room.NumQuestions() {
		return "FAIL No question found", false
	}

	selected := byte(' ')
	if index < len(p.Answers) && p.Answers[index] != exam.Unanswered {
		selected = p.Answers[index]
	}
	return formatRoomQuestion(index, room.Questions[index], selected), false
}

// cmdAnswer serves two commands that share a verb. The raw line decides:
// one space is a practice answer (ANSWER <letter>), three or more is an
// in-room answer (ANSWER <room> <index> <letter>).
func (h *Handler) cmdAnswer(_ context.Context, sess *session, rest, line string) (string, bool) {
	switch spaces := strings.Count(line, " "); {
	case spaces == 1:
		return h.practiceAnswer(sess, rest), false
	case spaces >= 3:
		return h.roomAnswer(sess, rest), false
	default:
		return "FAIL Usage: ANSWER <letter> | ANSWER <room> <index> <letter>", false
	}
}

func (h *Handler) practiceAnswer(sess *session, letter string) string {
	if sess.practiceAnswer == "" {
		return "FAIL No active practice question"
	}
	correct := sess.practiceAnswer
	sess.practiceQID = 0
	sess.practiceAnswer = ""

	if exam.NormalizeLetter(letter) == correct {
		return "CORRECT"
	}
	return "WRONG|" + correct
}

// roomAnswer records a selection in the participant's answer vector.
// Out-of-range indexes, bad letters, unjoined users, and answers landing
// after submission are dropped without complaint so a laggy client
// cannot distinguish them from success.
func (h *Handler) roomAnswer(sess *session, rest string) string {
	args := strings.Fields(rest)
	if len(args) != 3 {
		return "FAIL Usage: ANSWER <letter> | ANSWER <room> <index> <letter>"
	}
	room := h.Rooms.Find(args[0])
	if room == nil {
		return "FAIL Room not found"
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return "FAIL Usage: ANSWER <letter> | ANSWER <room> <index> <letter>"
	}
	if p := room.FindParticipant(sess.username); p != nil {
		p.RecordAnswer(index, args[2])
	}
	return "SUCCESS Answer recorded"
}

// cmdSubmit finalizes the caller's attempt. The score and answer rows
// are persisted before the in-memory participant flips to submitted, so
// a store failure leaves the attempt open for a retry (or for the timer).
func (h *Handler) cmdSubmit(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	args := strings.Fields(rest)
	if len(args) != 2 {
		return "FAIL Usage: SUBMIT <room> <answers>", false
	}
	room := h.Rooms.Find(args[0])
	if room == nil {
		return "FAIL Room not found", false
	}
	p := room.FindParticipant(sess.username)
	if p == nil || !p.InProgress() {
		return "FAIL Not in room or submitted", false
	}

	p.ApplyAnswerString(args[1])

	now := h.now()
	total := room.NumQuestions()
	score := p.ScoreAgainst(room.Questions)
	records := p.AnswerRecords(room.Questions)
	if err := h.Store.SaveSubmission(ctx, p.ID, room.ID, records, score, total, score, now); err != nil {
		return h.failFor(sess, err), false
	}
	p.Score = score
	p.SubmitTime = now

	h.audit("%s submitted room %s: %d/%d", sess.username, room.Name, score, total)
	return fmt.Sprintf("SUCCESS Score: %d/%d", score, total), false
}

func (h *Handler) cmdResults(_ context.Context, _ *session, rest, _ string) (string, bool) {
	args := strings.Fields(rest)
	if len(args) != 1 {
		return "FAIL Usage: RESULTS <room>", false
	}
	room := h.Rooms.Find(args[0])
	if room == nil {
		return "FAIL Room not found", false
	}
	if len(room.Participants) == 0 {
		return "SUCCESS No participants yet", false
	}

	entries := make([]string, 0, len(room.Participants))
	for _, p := range room.Participants {
		entry := p.Username + ": "
		if p.InProgress() {
			entry += "in progress"
		} else {
			entry += fmt.Sprintf("%d/%d", p.Score, room.NumQuestions())
		}
		if len(p.History) > 0 {
			entry += " (previous: " + joinScores(p.History) + ")"
		}
		entries = append(entries, entry)
	}
	return "SUCCESS " + strings.Join(entries, "|"), false
}

func (h *Handler) cmdPreview(_ context.Context, sess *session, rest, _ string) (string, bool) {
	args := strings.Fields(rest)
	if len(args) != 1 {
		return "FAIL Usage: PREVIEW <room>", false
	}
	room := h.Rooms.Find(args[0])
	if room == nil {
		return "FAIL Room not found", false
	}
	if room.OwnerID != sess.userID {
		return "FAIL Not room owner", false
	}

	entries := make([]string, 0, room.NumQuestions())
	for i, q := range room.Questions {
		entries = append(entries, fmt.Sprintf("%d. %s A) %s B) %s C) %s D) %s [Correct: %s]",
			i+1, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.Correct))
	}
	return "SUCCESS " + strings.Join(entries, "|"), false
}

// cmdDeleteRoom removes the room from the registry and the store in one
// command; answers and results of its participants go with it.
func (h *Handler) cmdDeleteRoom(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	args := strings.Fields(rest)
	if len(args) != 1 {
		return "FAIL Usage: DELETE <room>", false
	}
	room := h.Rooms.Find(args[0])
	if room == nil {
		return "FAIL Room not found", false
	}
	if room.OwnerID != sess.userID {
		return "FAIL Not room owner", false
	}

	if err := h.Store.DeleteRoom(ctx, room.ID); err != nil {
		return h.failFor(sess, err), false
	}
	h.Rooms.Remove(room.Name)
	h.setRoomsGauge()

	h.audit("room %s deleted by %s", room.Name, sess.username)
	return "SUCCESS Room deleted", false
}

func (h *Handler) cmdLeaderboard(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	args := strings.Fields(rest)
	if len(args) != 1 {
		return "FAIL Usage: LEADERBOARD <room>", false
	}
	room := h.Rooms.Find(args[0])
	if room == nil {
		return "FAIL Room not found", false
	}

	rows, err := h.Store.Leaderboard(ctx, room.ID)
	if err != nil {
		return h.failFor(sess, err), false
	}
	entries := make([]string, 0, len(rows)+1)
	entries = append(entries, "LEADERBOARD "+room.Name)
	for i, row := range rows {
		entries = append(entries, fmt.Sprintf("%d. %s %d/%d", i+1, row.Username, row.Score, row.Total))
	}
	return strings.Join(entries, "|"), false
}

func (h *Handler) setRoomsGauge() {
	if h.Metrics != nil {
		h.Metrics.RoomsActive.Set(float64(h.Rooms.Len()))
	}
}
