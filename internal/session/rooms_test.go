package session

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCreateValidation(t *testing.T) {
	h := newTestHandler(t)
	seedBank(t, h)
	admin := loginAs(t, h, "bob", "admin")

	usage := "FAIL Usage: CREATE <name> <numQuestions> <duration> [TOPICS name:count ...] [DIFFICULTIES name:count ...]"
	mustReply(t, h, admin, "CREATE quiz1 2", usage)
	mustReply(t, h, admin, "CREATE quiz1 two 60", usage)
	mustReply(t, h, admin, "CREATE quiz1 2 sixty", usage)
	// Filter tokens are only legal after a TOPICS or DIFFICULTIES marker.
	mustReply(t, h, admin, "CREATE quiz1 2 60 databases:1", usage)

	mustReply(t, h, admin, "CREATE quiz1 0 60", "FAIL Question count must be between 1 and 50")
	mustReply(t, h, admin, "CREATE quiz1 51 60", "FAIL Question count must be between 1 and 50")
	mustReply(t, h, admin, "CREATE quiz1 2 9", "FAIL Duration must be between 10 and 86400 seconds")
	mustReply(t, h, admin, "CREATE quiz1 2 86401", "FAIL Duration must be between 10 and 86400 seconds")
}

func TestCreateSelectsAndRegisters(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	admin := loginAs(t, h, "bob", "admin")

	// The bank undersupplies a 50-question request; CREATE takes what it
	// can get.
	mustReply(t, h, admin, "CREATE everything 50 60", "SUCCESS Room everything created (3 questions)")

	// One easy databases question plus one easy astronomy question, in
	// filter order. Each cell holds exactly one candidate, so the random
	// draw is forced.
	mustReply(t, h, admin, "CREATE filtered 2 60 TOPICS databases:1 astronomy:1 DIFFICULTIES easy:2",
		"SUCCESS Room filtered created (2 questions)")

	room := h.Rooms.Find("filtered")
	if room == nil {
		t.Fatalf("filtered room not registered")
	}
	if room.Duration != 60 || room.OwnerName != "bob" {
		t.Fatalf("room fields wrong: %+v", room)
	}
	if room.Questions[0].ID != bank.dbUnique.ID || room.Questions[1].ID != bank.astronomy.ID {
		t.Fatalf("stratified selection picked ids %d,%d, want %d,%d",
			room.Questions[0].ID, room.Questions[1].ID, bank.dbUnique.ID, bank.astronomy.ID)
	}

	mustReply(t, h, admin, "CREATE filtered 1 60", "FAIL Room already exists")
	mustReply(t, h, admin, "CREATE ghost 1 60 TOPICS quantum:1", "FAIL No questions match your criteria")
	mustReply(t, h, admin, "CREATE ghost 1 60 DIFFICULTIES insane:1", "FAIL No questions match your criteria")
	mustReply(t, h, admin, "CREATE ghost 1 60 TOPICS databases:2", "FAIL Topic counts exceed requested total")

	if got := testutil.ToFloat64(h.Metrics.RoomsActive); got != 2 {
		t.Fatalf("rooms gauge: got %v, want 2", got)
	}
}

func TestCreateMergesRepeatedTopicToken(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	admin := loginAs(t, h, "bob", "admin")

	// Repeating a topic merges into one databases:4 quota instead of two
	// overlapping samples of the same two-question topic, which would
	// duplicate ids in the snapshot and abort the room insert.
	mustReply(t, h, admin, "CREATE finals 4 60 TOPICS databases:2 databases:2",
		"SUCCESS Room finals created (2 questions)")

	room := h.Rooms.Find("finals")
	if room == nil {
		t.Fatalf("finals room not registered")
	}
	if len(room.Questions) != 2 || room.Questions[0].ID == room.Questions[1].ID {
		t.Fatalf("snapshot not two distinct questions: %+v", room.Questions)
	}
	if room.Questions[0].ID != bank.dbUnique.ID || room.Questions[1].ID != bank.dbFilter.ID {
		t.Fatalf("selection picked ids %d,%d, want %d,%d",
			room.Questions[0].ID, room.Questions[1].ID, bank.dbUnique.ID, bank.dbFilter.ID)
	}
}

func TestListRoomsFormat(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	admin := loginAs(t, h, "bob", "admin")

	mustReply(t, h, admin, "LIST", "SUCCESS No active rooms")

	makeRoom(t, h, "quiz1", admin, 60, bank.astronomy, bank.dbFilter)
	makeRoom(t, h, "quiz2", admin, 300, bank.dbUnique)
	mustReply(t, h, admin, "LIST",
		"SUCCESS - quiz1 (Owner: bob, Q: 2, Time: 60s)|- quiz2 (Owner: bob, Q: 1, Time: 300s)")
}

func TestJoinStartsResumesAndRestarts(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	admin := loginAs(t, h, "bob", "admin")
	room := makeRoom(t, h, "finals", admin, 60, bank.astronomy, bank.dbFilter)

	now := time.Unix(1700000000, 0).UTC()
	h.Clock = func() time.Time { return now }

	alice := loginAs(t, h, "alice", "student")
	mustReply(t, h, alice, "JOIN", "FAIL Usage: JOIN <room>")
	mustReply(t, h, alice, "JOIN nowhere", "FAIL Room not found")

	mustReply(t, h, alice, "JOIN finals", "SUCCESS Joined 2 60")
	if !room.Started {
		t.Fatalf("first join did not start the room")
	}
	mustReply(t, h, alice, "ANSWER finals 0 A", "SUCCESS Answer recorded")

	// Resuming keeps the vector and the original deadline.
	now = now.Add(20 * time.Second)
	mustReply(t, h, alice, "JOIN finals", "SUCCESS Joined 2 40")
	p := room.FindParticipant("alice")
	if string(p.Answers) != "A." {
		t.Fatalf("resume cleared the vector: %q", string(p.Answers))
	}

	// Joining again after a submit starts a fresh attempt; the old score
	// lands in history and the clock restarts.
	mustReply(t, h, alice, "SUBMIT finals AB", "SUCCESS Score: 2/2")
	now = now.Add(10 * time.Second)
	mustReply(t, h, alice, "JOIN finals", "SUCCESS Joined 2 60")
	if !p.InProgress() {
		t.Fatalf("re-join did not reopen the attempt")
	}
	if string(p.Answers) != ".." {
		t.Fatalf("re-join kept the old vector: %q", string(p.Answers))
	}
	if len(p.History) != 1 || p.History[0] != 2 {
		t.Fatalf("history after re-join: %v", p.History)
	}
	if len(room.Participants) != 1 {
		t.Fatalf("re-join duplicated the participant: %d", len(room.Participants))
	}
}

func TestGetQuestionRendering(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	admin := loginAs(t, h, "bob", "admin")
	makeRoom(t, h, "finals", admin, 600, bank.astronomy, bank.dbFilter)

	alice := loginAs(t, h, "alice", "student")
	mustReply(t, h, alice, "JOIN finals", "SUCCESS Joined 2 600")

	mustReply(t, h, alice, "GET_QUESTION finals 0",
		"Q1. Which planet is red?|A) Mars|B) Venus|C) Io|D) Luna|[Your Selection:  ]")

	// The slot tracks the latest recorded letter, uppercased.
	mustReply(t, h, alice, "ANSWER finals 0 b", "SUCCESS Answer recorded")
	mustReply(t, h, alice, "GET_QUESTION finals 0",
		"Q1. Which planet is red?|A) Mars|B) Venus|C) Io|D) Luna|[Your Selection: B]")

	mustReply(t, h, alice, "GET_QUESTION finals 5", "FAIL No question found")
	mustReply(t, h, alice, "GET_QUESTION finals -1", "FAIL No question found")
	mustReply(t, h, alice, "GET_QUESTION finals x", "FAIL Usage: GET_QUESTION <room> <index>")
	mustReply(t, h, alice, "GET_QUESTION nowhere 0", "FAIL Room not found")
	mustReply(t, h, admin, "GET_QUESTION finals 0", "FAIL Not in room")
}

func TestAnswerSharedVerb(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	admin := loginAs(t, h, "bob", "admin")
	room := makeRoom(t, h, "finals", admin, 600, bank.astronomy, bank.dbFilter)

	alice := loginAs(t, h, "alice", "student")
	mustReply(t, h, alice, "JOIN finals", "SUCCESS Joined 2 600")

	usage := "FAIL Usage: ANSWER <letter> | ANSWER <room> <index> <letter>"
	// Two spaces is neither the practice nor the in-room form.
	mustReply(t, h, alice, "ANSWER finals A", usage)
	// One space with no practice question armed.
	mustReply(t, h, alice, "ANSWER A", "FAIL No active practice question")

	mustReply(t, h, alice, "ANSWER finals 0 A", "SUCCESS Answer recorded")
	// Out-of-range indexes and bad letters are dropped without complaint.
	mustReply(t, h, alice, "ANSWER finals 9 A", "SUCCESS Answer recorded")
	mustReply(t, h, alice, "ANSWER finals 1 E", "SUCCESS Answer recorded")
	// So is an answer from a user who never joined.
	mustReply(t, h, admin, "ANSWER finals 0 C", "SUCCESS Answer recorded")

	p := room.FindParticipant("alice")
	if string(p.Answers) != "A." {
		t.Fatalf("vector after dropped writes: %q", string(p.Answers))
	}

	mustReply(t, h, alice, "ANSWER nowhere 0 A", "FAIL Room not found")
	mustReply(t, h, alice, "ANSWER finals x A", usage)
}

func TestSubmitScoresAndPersists(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	admin := loginAs(t, h, "bob", "admin")
	room := makeRoom(t, h, "finals", admin, 600, bank.astronomy, bank.dbFilter)

	alice := loginAs(t, h, "alice", "student")
	mustReply(t, h, alice, "JOIN finals", "SUCCESS Joined 2 600")
	mustReply(t, h, alice, "ANSWER finals 0 A", "SUCCESS Answer recorded")

	mustReply(t, h, alice, "SUBMIT finals", "FAIL Usage: SUBMIT <room> <answers>")
	mustReply(t, h, alice, "SUBMIT nowhere AB", "FAIL Room not found")

	// An answer string of the wrong length is ignored; the recorded
	// vector scores as-is.
	mustReply(t, h, alice, "SUBMIT finals A", "SUCCESS Score: 1/2")
	mustReply(t, h, alice, "SUBMIT finals AB", "FAIL Not in room or submitted")
	mustReply(t, h, admin, "SUBMIT finals AB", "FAIL Not in room or submitted")

	ctx := context.Background()
	p := room.FindParticipant("alice")
	answers, err := h.Store.ParticipantAnswers(ctx, p.ID, 2)
	if err != nil {
		t.Fatalf("ParticipantAnswers failed: %v", err)
	}
	if string(answers) != "A." {
		t.Fatalf("persisted vector: %q", string(answers))
	}
	board, err := h.Store.Leaderboard(ctx, room.ID)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(board) != 1 || board[0].Username != "alice" || board[0].Score != 1 || board[0].Total != 2 {
		t.Fatalf("result row: %+v", board)
	}

	// A full-length answer string overlays the vector; lowercase letters
	// count.
	carol := loginAs(t, h, "carol", "student")
	mustReply(t, h, carol, "JOIN finals", "SUCCESS Joined 2 600")
	mustReply(t, h, carol, "SUBMIT finals aB", "SUCCESS Score: 2/2")
}

func TestResultsSummarizesAttempts(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	admin := loginAs(t, h, "bob", "admin")
	makeRoom(t, h, "finals", admin, 600, bank.astronomy, bank.dbFilter)

	mustReply(t, h, admin, "RESULTS", "FAIL Usage: RESULTS <room>")
	mustReply(t, h, admin, "RESULTS nowhere", "FAIL Room not found")
	mustReply(t, h, admin, "RESULTS finals", "SUCCESS No participants yet")

	alice := loginAs(t, h, "alice", "student")
	mustReply(t, h, alice, "JOIN finals", "SUCCESS Joined 2 600")
	mustReply(t, h, admin, "RESULTS finals", "SUCCESS alice: in progress")

	mustReply(t, h, alice, "SUBMIT finals AB", "SUCCESS Score: 2/2")
	mustReply(t, h, admin, "RESULTS finals", "SUCCESS alice: 2/2")

	mustReply(t, h, alice, "JOIN finals", "SUCCESS Joined 2 600")
	mustReply(t, h, admin, "RESULTS finals", "SUCCESS alice: in progress (previous: 2)")

	// '.' slots in the answer string stay unanswered.
	mustReply(t, h, alice, "SUBMIT finals A.", "SUCCESS Score: 1/2")
	mustReply(t, h, admin, "RESULTS finals", "SUCCESS alice: 1/2 (previous: 2)")

	mustReply(t, h, alice, "JOIN finals", "SUCCESS Joined 2 600")
	mustReply(t, h, admin, "RESULTS finals", "SUCCESS alice: in progress (previous: 2, 1)")
}

func TestPreviewOwnerOnly(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	bob := loginAs(t, h, "bob", "admin")
	carol := loginAs(t, h, "carol", "admin")
	makeRoom(t, h, "finals", bob, 600, bank.astronomy, bank.dbFilter)

	mustReply(t, h, bob, "PREVIEW", "FAIL Usage: PREVIEW <room>")
	mustReply(t, h, bob, "PREVIEW nowhere", "FAIL Room not found")
	mustReply(t, h, carol, "PREVIEW finals", "FAIL Not room owner")

	mustReply(t, h, bob, "PREVIEW finals",
		"SUCCESS 1. Which planet is red? A) Mars B) Venus C) Io D) Luna [Correct: A]"+
			"|2. Which clause filters rows? A) ORDER BY B) WHERE C) GROUP BY D) JOIN [Correct: B]")
}

func TestDeleteRoomFreesNameAndRows(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	bob := loginAs(t, h, "bob", "admin")
	carol := loginAs(t, h, "carol", "admin")
	room := makeRoom(t, h, "finals", bob, 600, bank.astronomy, bank.dbFilter)

	alice := loginAs(t, h, "alice", "student")
	mustReply(t, h, alice, "JOIN finals", "SUCCESS Joined 2 600")
	mustReply(t, h, alice, "SUBMIT finals AB", "SUCCESS Score: 2/2")

	mustReply(t, h, bob, "DELETE", "FAIL Usage: DELETE <room>")
	mustReply(t, h, bob, "DELETE nowhere", "FAIL Room not found")
	mustReply(t, h, carol, "DELETE finals", "FAIL Not room owner")

	roomID := room.ID
	mustReply(t, h, bob, "DELETE finals", "SUCCESS Room deleted")
	mustReply(t, h, alice, "JOIN finals", "FAIL Room not found")
	mustReply(t, h, bob, "LIST", "SUCCESS No active rooms")
	if got := testutil.ToFloat64(h.Metrics.RoomsActive); got != 0 {
		t.Fatalf("rooms gauge after delete: %v", got)
	}

	// Participant rows went with the room.
	board, err := h.Store.Leaderboard(context.Background(), roomID)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(board) != 0 {
		t.Fatalf("results survived the delete: %+v", board)
	}

	// The name is immediately reusable.
	mustReply(t, h, bob, "CREATE finals 1 60", "SUCCESS Room finals created (1 questions)")
}

func TestLeaderboardOrdersEntries(t *testing.T) {
	h := newTestHandler(t)
	bank := seedBank(t, h)
	admin := loginAs(t, h, "bob", "admin")
	makeRoom(t, h, "finals", admin, 600, bank.astronomy, bank.dbFilter)

	now := time.Unix(1700000000, 0).UTC()
	h.Clock = func() time.Time { return now }

	submit := func(name, answers string, want string) {
		t.Helper()
		sess := loginAs(t, h, name, "student")
		mustReply(t, h, sess, "JOIN finals", "SUCCESS Joined 2 600")
		mustReply(t, h, sess, "SUBMIT finals "+answers, want)
	}

	submit("ada", "AB", "SUCCESS Score: 2/2")
	now = now.Add(5 * time.Second)
	submit("dana", "AB", "SUCCESS Score: 2/2")
	submit("ben", "AC", "SUCCESS Score: 1/2")
	submit("cy", "CD", "SUCCESS Score: 0/2")

	mustReply(t, h, admin, "LEADERBOARD", "FAIL Usage: LEADERBOARD <room>")
	mustReply(t, h, admin, "LEADERBOARD nowhere", "FAIL Room not found")

	// Best score first; the earlier submission wins the tie.
	mustReply(t, h, admin, "LEADERBOARD finals",
		"LEADERBOARD finals|1. ada 2/2|2. dana 2/2|3. ben 1/2|4. cy 0/2")
}
