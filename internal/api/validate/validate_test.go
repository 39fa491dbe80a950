package validate

import (
	"strings"
	"testing"
	"time"
)

func TestEmotion(t *testing.T) {
	for _, ok := range []string{"calm", "a bit anxious", "hopeful"} {
		if err := Emotion(ok); err != nil {
			t.Errorf("Emotion(%q): unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"", "Calm", "ANGRY!", strings.Repeat("a", 51)} {
		if err := Emotion(bad); err == nil {
			t.Errorf("Emotion(%q): expected error", bad)
		}
	}
}

func TestIntensity(t *testing.T) {
	for _, ok := range []int{1, 5, 10} {
		if err := Intensity(ok); err != nil {
			t.Errorf("Intensity(%d): unexpected error %v", ok, err)
		}
	}
	for _, bad := range []int{0, -1, 11} {
		if err := Intensity(bad); err == nil {
			t.Errorf("Intensity(%d): expected error", bad)
		}
	}
}

func TestNote(t *testing.T) {
	if err := Note(nil); err != nil {
		t.Errorf("Note(nil): unexpected error %v", err)
	}
	short := "slept badly"
	if err := Note(&short); err != nil {
		t.Errorf("Note(short): unexpected error %v", err)
	}
	long := strings.Repeat("x", maxNoteLen+1)
	if err := Note(&long); err == nil {
		t.Error("Note(long): expected error")
	}
}

func TestRole(t *testing.T) {
	if err := Role("user"); err != nil {
		t.Errorf("Role(user): %v", err)
	}
	if err := Role("assistant"); err != nil {
		t.Errorf("Role(assistant): %v", err)
	}
	if err := Role("system"); err == nil {
		t.Error("Role(system): expected error")
	}
}

func TestSourceType(t *testing.T) {
	for _, ok := range []string{"chat", "journal"} {
		if err := SourceType(ok); err != nil {
			t.Errorf("SourceType(%q): %v", ok, err)
		}
	}
	if err := SourceType("dream"); err == nil {
		t.Error("SourceType(dream): expected error")
	}
}

func TestDay(t *testing.T) {
	got, err := Day("2026-08-26")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	want := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day: got %v want %v", got, want)
	}
	for _, bad := range []string{"", "26-08-2026", "2026-13-01", "yesterday"} {
		if _, err := Day(bad); err == nil {
			t.Errorf("Day(%q): expected error", bad)
		}
	}
}

func TestTopics(t *testing.T) {
	if err := Topics([]string{"work", "sleep"}); err != nil {
		t.Errorf("Topics: %v", err)
	}
	if err := Topics([]string{""}); err == nil {
		t.Error("Topics with empty tag: expected error")
	}
	if err := Topics([]string{strings.Repeat("t", maxTopicLen+1)}); err == nil {
		t.Error("Topics with oversized tag: expected error")
	}
}
