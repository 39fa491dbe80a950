// Package validate holds request-field validation rules shared by the HTTP
// handlers. Each rule returns an error describing the first violation.
package validate

import (
	"fmt"
	"regexp"
	"time"
)

// emotionRx keeps emotion labels to simple lowercase words.
var emotionRx = regexp.MustCompile(`^[a-z][a-z ]{0,49}$`)

const (
	maxNoteLen    = 1000
	maxContentLen = 4000
	maxTopicLen   = 50
)

// Emotion validates a mood or message emotion label.
func Emotion(v string) error {
	if v == "" {
		return fmt.Errorf("emotion is required")
	}
	if !emotionRx.MatchString(v) {
		return fmt.Errorf("emotion must be 1-50 lowercase letters")
	}
	return nil
}

// Intensity validates the 1-10 mood scale.
func Intensity(v int) error {
	if v < 1 || v > 10 {
		return fmt.Errorf("intensity must be between 1 and 10")
	}
	return nil
}

// Note validates the optional free-text note on a mood entry.
func Note(v *string) error {
	if v == nil {
		return nil
	}
	if len(*v) > maxNoteLen {
		return fmt.Errorf("note exceeds %d characters", maxNoteLen)
	}
	return nil
}

// Role validates a chat message role.
func Role(v string) error {
	if v != "user" && v != "assistant" {
		return fmt.Errorf("role must be 'user' or 'assistant'")
	}
	return nil
}

// Content validates chat message text.
func Content(v string) error {
	if v == "" {
		return fmt.Errorf("content is required")
	}
	if len(v) > maxContentLen {
		return fmt.Errorf("content exceeds %d characters", maxContentLen)
	}
	return nil
}

// Topics validates optional message topic tags.
func Topics(v []string) error {
	for _, t := range v {
		if t == "" || len(t) > maxTopicLen {
			return fmt.Errorf("topics must be 1-%d characters", maxTopicLen)
		}
	}
	return nil
}

// SourceType validates where a saved memory came from.
func SourceType(v string) error {
	if v != "chat" && v != "journal" {
		return fmt.Errorf("sourceType must be 'chat' or 'journal'")
	}
	return nil
}

// Day parses a date-only field in YYYY-MM-DD form.
func Day(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("day is required")
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("day must be YYYY-MM-DD")
	}
	return t, nil
}
