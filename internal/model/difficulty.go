package model

import (
	"fmt"
	"strings"
)

// Difficulty selects the target score and time budget of a round
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Level is the static configuration for a difficulty
type Level struct {
	TargetScore       int
	TimeBudgetSeconds int
}

var difficultyTable = map[Difficulty]Level{
	DifficultyEasy:   {TargetScore: 10, TimeBudgetSeconds: 40},
	DifficultyMedium: {TargetScore: 15, TimeBudgetSeconds: 40},
	DifficultyHard:   {TargetScore: 25, TimeBudgetSeconds: 40},
}

// Difficulties returns every difficulty, easiest first
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// ParseDifficulty maps user input onto a Difficulty
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
	return d, nil
}

// Valid reports whether d is one of the known difficulties
func (d Difficulty) Valid() bool {
	_, ok := difficultyTable[d]
	return ok
}

// Level resolves the difficulty. Panics on a value outside the enum,
// which can only come from a programming error.
func (d Difficulty) Level() Level {
	level, ok := difficultyTable[d]
	if !ok {
		panic(fmt.Sprintf("model: unresolvable difficulty %q", string(d)))
	}
	return level
}

// WinningScore is the number of go-clicks needed to win
func (d Difficulty) WinningScore() int {
	return d.Level().TargetScore + 1
}

func (d Difficulty) String() string {
	return string(d)
}

// Title is the display name, e.g. "Easy"
func (d Difficulty) Title() string {
	s := string(d)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
