package session

import (
	"fmt"
	"strconv"
	"strings"

	"examhall/internal/exam"
)

// formatRoomQuestion renders one room question for a participant. The
// selection slot shows a space while unanswered so the client's display
// width stays stable.
func formatRoomQuestion(index int, q exam.Question, selected byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Q%d. %s", index+1, q.Text)
	for i, opt := range q.Options() {
		fmt.Fprintf(&b, "|%c) %s", 'A'+i, opt)
	}
	fmt.Fprintf(&b, "|[Your Selection: %c]", selected)
	return b.String()
}

func joinScores(scores []int) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ", ")
}

// splitFilters separates the trailing CREATE arguments into the TOPICS
// and DIFFICULTIES token groups. Tokens before either marker make the
// command malformed.
func splitFilters(args []string) (topics, difficulties []string, ok bool) {
	var current *[]string
	for _, arg := range args {
		switch arg {
		case "TOPICS":
			current = &topics
		case "DIFFICULTIES":
			current = &difficulties
		default:
			if current == nil {
				return nil, nil, false
			}
			*current = append(*current, arg)
		}
	}
	return topics, difficulties, true
}
