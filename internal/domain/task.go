package domain

import (
	"strings"
	"time"
)

// Mood is the emoji recorded on a task when it is created.
type Mood string

const (
	MoodSleepy  Mood = "😴"
	MoodNeutral Mood = "😐"
	MoodHappy   Mood = "😊"
	MoodLoved   Mood = "🥰"
	MoodSparkly Mood = "✨"

	// DefaultMood is used when no valid preference has been stored.
	DefaultMood = MoodHappy
)

var moods = []Mood{MoodSleepy, MoodNeutral, MoodHappy, MoodLoved, MoodSparkly}

// Moods returns the picker choices in display order.
func Moods() []Mood {
	out := make([]Mood, len(moods))
	copy(out, moods)
	return out
}

// Valid reports whether m is one of the picker choices.
func (m Mood) Valid() bool {
	for _, known := range moods {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMood validates a raw emoji.
func ParseMood(raw string) (Mood, error) {
	m := Mood(strings.TrimSpace(raw))
	if !m.Valid() {
		return "", ErrUnknownMood
	}
	return m, nil
}

// Task is the only persisted entity.
type Task struct {
	ID        string    `json:"id,omitempty"`
	Text      string    `json:"text"`
	Mood      Mood      `json:"mood"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Persisted reports whether the task has round-tripped through the store.
func (t Task) Persisted() bool {
	return t.ID != ""
}

// SameText compares task text the way duplicate detection does.
func SameText(a, b string) bool {
	return strings.ToLower(strings.TrimSpace(a)) == strings.ToLower(strings.TrimSpace(b))
}

// CloneTasks copies a snapshot so callers can't alias the owner's slice.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// FindTask returns the task with the given id from a snapshot.
func FindTask(tasks []Task, id string) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
