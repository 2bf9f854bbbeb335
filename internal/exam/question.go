package exam

import "strings"

// Question is one multiple-choice entry of the bank. Topic and Difficulty
// carry the joined names when the originating query populates them.
type Question struct {
	ID           int64
	Text         string
	OptionA      string
	OptionB      string
	OptionC      string
	OptionD      string
	Correct      string
	TopicID      int64
	DifficultyID int64
	Topic        string
	Difficulty   string
}

// Options returns the four option texts in letter order.
func (q Question) Options() [4]string {
	return [4]string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// QuestionDraft is a question before ids are assigned: the payload of an
// ADD_QUESTION command or of a bank import.
type QuestionDraft struct {
	Text       string
	OptionA    string
	OptionB    string
	OptionC    string
	OptionD    string
	Correct    string
	Topic      string
	Difficulty string
	CreatedBy  int64
}

// NormalizeLetter uppercases a single answer letter, rejecting anything
// outside A..D.
func NormalizeLetter(s string) string {
	letter := strings.ToUpper(strings.TrimSpace(s))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'D' {
		return ""
	}
	return letter
}
