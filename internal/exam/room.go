package exam

import "time"

const (
	// ScorePending marks a participant who has not submitted yet.
	ScorePending = -1
	// Unanswered fills answer vector slots holding no selection.
	Unanswered byte = '.'
	// MaxRoomQuestions caps the size of one test.
	MaxRoomQuestions = 50
	// MinRoomSeconds and MaxRoomSeconds bound a room's duration.
	MinRoomSeconds = 10
	MaxRoomSeconds = 86400
	// MaxHistory bounds the per-participant list of prior attempt scores.
	MaxHistory = 10
	// SubmitGrace pads the deadline check so a SUBMIT racing the sweeper
	// near the deadline is not beaten by clock skew.
	SubmitGrace = 2 * time.Second
)

// Participant is one user's attempt inside one room: the live answer
// vector, the score once submitted, and the scores of prior attempts.
type Participant struct {
	ID         int64
	UserID     int64
	Username   string
	Answers    []byte
	Score      int
	StartTime  time.Time
	SubmitTime time.Time
	History    []int
}

func NewParticipant(id, userID int64, username string, numQuestions int, now time.Time) *Participant {
	return &Participant{
		ID:        id,
		UserID:    userID,
		Username:  username,
		Answers:   blankAnswers(numQuestions),
		Score:     ScorePending,
		StartTime: now,
	}
}

func blankAnswers(n int) []byte {
	answers := make([]byte, n)
	for i := range answers {
		answers[i] = Unanswered
	}
	return answers
}

// InProgress reports whether the participant may still change answers.
func (p *Participant) InProgress() bool {
	return p.Score == ScorePending
}

// RecordAnswer writes one slot of the vector. Writes after submission, to
// an out-of-range index, or with a bad letter are dropped; callers treat
// all three as a silent no-op.
func (p *Participant) RecordAnswer(index int, letter string) bool {
	if !p.InProgress() {
		return false
	}
	if index < 0 || index >= len(p.Answers) {
		return false
	}
	normalized := NormalizeLetter(letter)
	if normalized == "" {
		return false
	}
	p.Answers[index] = normalized[0]
	return true
}

// ApplyAnswerString overlays a submit-time answer string onto the vector.
// Only a string covering every slot is trusted; valid letters are
// uppercased, anything else clears the slot.
func (p *Participant) ApplyAnswerString(s string) {
	if len(s) != len(p.Answers) {
		return
	}
	for i := 0; i < len(s); i++ {
		if letter := NormalizeLetter(string(s[i])); letter != "" {
			p.Answers[i] = letter[0]
		} else {
			p.Answers[i] = Unanswered
		}
	}
}

// ScoreAgainst counts answered slots whose uppercased letter matches the
// stored correct letter.
func (p *Participant) ScoreAgainst(questions []Question) int {
	score := 0
	for i := range questions {
		if i >= len(p.Answers) {
			break
		}
		slot := p.Answers[i]
		if slot == Unanswered {
			continue
		}
		if slot >= 'a' && slot <= 'z' {
			slot -= 'a' - 'A'
		}
		if correct := questions[i].Correct; len(correct) == 1 && slot == correct[0] {
			score++
		}
	}
	return score
}

// AnswerRecords builds the persistable rows for the answered slots of the
// vector. Unanswered slots produce no row.
func (p *Participant) AnswerRecords(questions []Question) []AnswerRecord {
	records := make([]AnswerRecord, 0, len(questions))
	for i := range questions {
		if i >= len(p.Answers) {
			break
		}
		slot := p.Answers[i]
		if slot == Unanswered {
			continue
		}
		if slot >= 'a' && slot <= 'z' {
			slot -= 'a' - 'A'
		}
		selected := string(slot)
		records = append(records, AnswerRecord{
			QuestionID: questions[i].ID,
			Selected:   selected,
			Correct:    selected == questions[i].Correct,
		})
	}
	return records
}

// ResetForAttempt starts a fresh attempt after a completed one: the old
// score moves into the bounded history and the vector is cleared.
func (p *Participant) ResetForAttempt(numQuestions int, now time.Time) {
	if p.Score != ScorePending {
		p.History = append(p.History, p.Score)
		if len(p.History) > MaxHistory {
			p.History = p.History[len(p.History)-MaxHistory:]
		}
	}
	p.Answers = blankAnswers(numQuestions)
	p.Score = ScorePending
	p.StartTime = now
	p.SubmitTime = time.Time{}
}

// Room is one live test: the immutable question snapshot taken at
// creation plus every participant who joined.
type Room struct {
	ID           int64
	Name         string
	OwnerID      int64
	OwnerName    string
	Duration     int // seconds
	Started      bool
	Questions    []Question
	Participants []*Participant
}

func (r *Room) NumQuestions() int {
	return len(r.Questions)
}

// FindParticipant looks a participant up by username.
func (r *Room) FindParticipant(username string) *Participant {
	for _, p := range r.Participants {
		if p.Username == username {
			return p
		}
	}
	return nil
}

func (r *Room) AddParticipant(p *Participant) {
	r.Participants = append(r.Participants, p)
}

// Remaining reports the whole seconds the participant still has, never
// below zero.
func (r *Room) Remaining(p *Participant, now time.Time) int {
	elapsed := int(now.Sub(p.StartTime).Seconds())
	if remaining := r.Duration - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}

// Expired reports whether the participant ran past the room duration
// plus the submit grace.
func (r *Room) Expired(p *Participant, now time.Time) bool {
	if p.StartTime.IsZero() {
		return false
	}
	deadline := p.StartTime.Add(time.Duration(r.Duration)*time.Second + SubmitGrace)
	return !now.Before(deadline)
}

// LeaderboardRow is one line of a room's top-ten table.
type LeaderboardRow struct {
	Username    string
	Score       int
	Total       int
	SubmittedAt time.Time
}

// ParticipantRecord is the durable slice of participant state used to
// rebuild a room after restart.
type ParticipantRecord struct {
	ID       int64
	UserID   int64
	Username string
	Score    int
	JoinedAt time.Time
}

// AnswerRecord is one scored slot persisted at submit time.
type AnswerRecord struct {
	QuestionID int64
	Selected   string
	Correct    bool
}
