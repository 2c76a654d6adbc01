package study

import (
	"fmt"
	"strings"
)

// Difficulty is the self-assessed difficulty of a task.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists the valid difficulties, easiest first.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty matches s case-insensitively against the known difficulties.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q (want Easy, Medium or Hard)", s)
}

// Valid reports whether d is one of Difficulties.
func (d Difficulty) Valid() bool {
	for _, v := range Difficulties {
		if d == v {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Task is a unit of study work. Values returned by the store are copies.
type Task struct {
	ID              int
	Name            string
	Subject         string
	Difficulty      Difficulty
	DurationMinutes int
	Status          Status
	Tip             string
}

// TaskInput carries the editable fields of a task, for add and edit.
type TaskInput struct {
	Name            string
	Subject         string
	Difficulty      Difficulty
	DurationMinutes int
	Tip             string
}

// normalize trims the text fields and validates the rest.
func (in TaskInput) normalize(op string) (TaskInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Tip = strings.TrimSpace(in.Tip)
	if in.Name == "" {
		return in, validationf(op, "task name is required")
	}
	if !in.Difficulty.Valid() {
		return in, validationf(op, "invalid difficulty %q", in.Difficulty)
	}
	if in.DurationMinutes <= 0 {
		return in, validationf(op, "duration must be a positive number of minutes, got %d", in.DurationMinutes)
	}
	return in, nil
}

// DefaultTasks is the seed list used when no [tasks] are configured.
func DefaultTasks() []TaskInput {
	return []TaskInput{
		{
			Name:            "Physics Problem Set Ch. 12",
			Subject:         "Physics",
			Difficulty:      DifficultyHard,
			DurationMinutes: 60,
			Tip:             "Break complex problems into smaller steps. Physics flows when you understand the fundamentals!",
		},
		{
			Name:            "Organic Chemistry Reactions",
			Subject:         "Chemistry",
			Difficulty:      DifficultyMedium,
			DurationMinutes: 45,
			Tip:             "Visualize molecular movements. Chemistry is like a dance of atoms!",
		},
		{
			Name:            "Calculus Integration Practice",
			Subject:         "Mathematics",
			Difficulty:      DifficultyMedium,
			DurationMinutes: 25,
			Tip:             "Integration is about finding areas under curves. Each problem builds your intuition!",
		},
		{
			Name:            "Cell Biology Review",
			Subject:         "Biology",
			Difficulty:      DifficultyEasy,
			DurationMinutes: 30,
			Tip:             "Think of cells as tiny factories. Each organelle has a specific job to do!",
		},
		{
			Name:            "IOQM Mock Test Analysis",
			Subject:         "IOQM",
			Difficulty:      DifficultyHard,
			DurationMinutes: 90,
			Tip:             "Analyze your mistakes thoroughly. Each error is a learning opportunity!",
		},
	}
}
