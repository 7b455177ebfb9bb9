package clock

import (
	"time"
)

const layout = "2006-01-02T15:04:05Z"

func Now() string {
	return time.Now().UTC().Format(layout)
}

// TimeOfDay formats t as HH:MM in the given location, UTC when loc is nil.
func TimeOfDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04")
}

// Location loads a named time zone and falls back to UTC on an empty name.
func Location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
