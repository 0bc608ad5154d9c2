package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Kind names how a trigger computes its next run.
type Kind string

// Trigger kinds.
const (
	KindDaily    Kind = "daily"
	KindWeekly   Kind = "weekly"
	KindInterval Kind = "interval"
)

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay reads "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseWeekday accepts English weekday names or their three-letter forms, any case.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(s)
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", s)
}

// Trigger is one registered schedule entry. Next is the instant it becomes due.
type Trigger struct {
	Name    string        `json:"name"`
	Kind    Kind          `json:"kind"`
	At      TimeOfDay     `json:"-"`
	Weekday time.Weekday  `json:"-"`
	Every   time.Duration `json:"-"`
	Next    time.Time     `json:"next_run"`
	LastRun time.Time     `json:"last_run,omitzero"`
}

// NextAfter returns the first firing instant strictly after now, in now's location.
// Interval triggers count from now, so periods missed while a job ran are not replayed.
func (t Trigger) NextAfter(now time.Time) time.Time {
	switch t.Kind {
	case KindInterval:
		return now.Add(t.Every)
	case KindWeekly:
		next := atClock(now, t.At)
		next = next.AddDate(0, 0, (int(t.Weekday)-int(now.Weekday())+7)%7)
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
		return next
	default:
		next := atClock(now, t.At)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
}

// Due reports whether the trigger should fire at now.
func (t Trigger) Due(now time.Time) bool {
	return !t.Next.IsZero() && !now.Before(t.Next)
}

// Describe renders the trigger's configuration for logs.
func (t Trigger) Describe() string {
	switch t.Kind {
	case KindInterval:
		return "every " + t.Every.String()
	case KindWeekly:
		return fmt.Sprintf("every %s at %s", t.Weekday, t.At)
	default:
		return "every day at " + t.At.String()
	}
}

func atClock(now time.Time, at TimeOfDay) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, at.Hour, at.Minute, 0, 0, now.Location())
}
