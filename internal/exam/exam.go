// Package exam holds the domain model of the testing service: the
// question bank types, rooms with their participants, and the in-memory
// registry of active rooms.
package exam

import "strings"

// Difficulty ids are assigned at schema seed time and never change.
const (
	DifficultyEasy   int64 = 1
	DifficultyMedium int64 = 2
	DifficultyHard   int64 = 3
)

// DifficultyNames lists the seeded difficulty names in id order.
var DifficultyNames = [...]string{"easy", "medium", "hard"}

// DifficultyID resolves a difficulty name (any case) to its fixed id.
func DifficultyID(name string) (int64, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return 0, false
}

// DifficultyName returns the seeded name for an id, or "" if unknown.
func DifficultyName(id int64) string {
	if id < 1 || int(id) > len(DifficultyNames) {
		return ""
	}
	return DifficultyNames[id-1]
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// ParseRole accepts the two wire role names; anything else is rejected.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleAdmin):
		return RoleAdmin, true
	case string(RoleStudent):
		return RoleStudent, true
	}
	return "", false
}

// TopicCount pairs a topic with how many bank questions it holds.
type TopicCount struct {
	ID    int64
	Name  string
	Count int
}

// DifficultyCount pairs a difficulty name with a question count.
type DifficultyCount struct {
	Name  string
	Count int
}
