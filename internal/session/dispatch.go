package session

import "context"

// handlerFunc receives the request with the verb already cut off (rest)
// and, for commands whose parsing depends on raw spacing, the full line.
// The bool result asks Serve to close the connection after replying.
type handlerFunc func(h *Handler, ctx context.Context, sess *session, rest, line string) (string, bool)

type command struct {
	run   handlerFunc
	auth  bool // requires a logged-in session
	admin bool // additionally requires the admin role
}

var commands = map[string]command{
	"REGISTER": {run: (*Handler).cmdRegister},
	"LOGIN":    {run: (*Handler).cmdLogin},
	"EXIT":     {run: (*Handler).cmdExit},

	"CREATE":       {run: (*Handler).cmdCreate, auth: true, admin: true},
	"LIST":         {run: (*Handler).cmdList, auth: true},
	"JOIN":         {run: (*Handler).cmdJoin, auth: true},
	"GET_QUESTION": {run: (*Handler).cmdGetQuestion, auth: true},
	"ANSWER":       {run: (*Handler).cmdAnswer, auth: true},
	"SUBMIT":       {run: (*Handler).cmdSubmit, auth: true},
	"RESULTS":      {run: (*Handler).cmdResults, auth: true},
	"PREVIEW":      {run: (*Handler).cmdPreview, auth: true, admin: true},
	"DELETE":       {run: (*Handler).cmdDeleteRoom, auth: true, admin: true},
	"LEADERBOARD":  {run: (*Handler).cmdLeaderboard, auth: true},

	"PRACTICE":                    {run: (*Handler).cmdPractice, auth: true},
	"GET_TOPICS":                  {run: (*Handler).cmdTopics, auth: true},
	"GET_DIFFICULTIES":            {run: (*Handler).cmdDifficulties, auth: true},
	"GET_DIFFICULTIES_FOR_TOPICS": {run: (*Handler).cmdDifficultiesForTopics, auth: true},
	"ADD_QUESTION":                {run: (*Handler).cmdAddQuestion, auth: true, admin: true},
	"SEARCH_QUESTIONS":            {run: (*Handler).cmdSearchQuestions, auth: true, admin: true},
	"DELETE_QUESTION":             {run: (*Handler).cmdDeleteQuestion, auth: true, admin: true},
}
