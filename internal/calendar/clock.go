// Package calendar holds the time arithmetic behind the calendar feed:
// recurrence expansion, daily view bounds and iCalendar export.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-medical-appointment/internal/domain/entity"
)

var ErrInvalidClockTime = errors.New("invalid clock time, use HH:MM or HH:MM:SS")

// ParseClockTime parses "HH:MM" or "HH:MM:SS". "24:00" is accepted as end of day.
func ParseClockTime(s string) (entity.ClockTime, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" || s == "24:00:00" {
		return entity.ClockTime(24 * time.Hour), nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		d := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
		return entity.ClockTime(d), nil
	}
	return 0, ErrInvalidClockTime
}

// FormatClockTime renders "HH:MM", or "HH:MM:SS" when the seconds are set,
// so that it parses back to the same value.
func FormatClockTime(c entity.ClockTime) string {
	d := time.Duration(c)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	if s := int(d % time.Minute / time.Second); s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// WithinDailyWindow reports whether [start, end) overlaps the [min, max) slice
// of any day it touches. Nil bounds default to the whole day.
func WithinDailyWindow(start, end time.Time, min, max *entity.ClockTime, loc *time.Location) bool {
	if min == nil && max == nil {
		return true
	}
	if loc == nil {
		loc = time.UTC
	}

	lo := time.Duration(0)
	if min != nil {
		lo = time.Duration(*min)
	}
	hi := 24 * time.Hour
	if max != nil {
		hi = time.Duration(*max)
	}

	for day := startOfDay(start, loc); day.Before(end); day = day.AddDate(0, 0, 1) {
		windowStart := day.Add(lo)
		windowEnd := day.Add(hi)
		if start.Before(windowEnd) && end.After(windowStart) {
			return true
		}
	}
	return false
}
