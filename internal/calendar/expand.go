package calendar

import (
	"errors"
	"fmt"
	"time"

	"go-medical-appointment/internal/domain/entity"

	"github.com/teambition/rrule-go"
)

const defaultMaxOccurrencesPerRule = 500

// ExpandConfig bounds availability expansion.
type ExpandConfig struct {
	RangeStart time.Time
	RangeEnd   time.Time
	// Location interprets each rule's HH:MM start. Nil means UTC.
	Location *time.Location
	// MaxOccurrencesPerRule caps each rule. Zero uses the default.
	MaxOccurrencesPerRule int
}

// ExpandAvailability turns recurring availability rules into concrete windows
// intersecting [RangeStart, RangeEnd), ordered as produced per rule.
func ExpandAvailability(rules []entity.DoctorAvailability, cfg ExpandConfig) ([]entity.AvailabilityWindow, error) {
	if !cfg.RangeEnd.After(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd must be after RangeStart")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxOccurrencesPerRule <= 0 {
		cfg.MaxOccurrencesPerRule = defaultMaxOccurrencesPerRule
	}

	windows := make([]entity.AvailabilityWindow, 0)
	for _, rule := range rules {
		occ, err := expandRule(rule, cfg)
		if err != nil {
			return nil, err
		}
		windows = append(windows, occ...)
	}
	return windows, nil
}

func expandRule(rule entity.DoctorAvailability, cfg ExpandConfig) ([]entity.AvailabilityWindow, error) {
	r, err := BuildRule(rule, cfg.Location)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(rule.DurationMinutes) * time.Minute
	// Widen the lower bound so windows that began before the range still count.
	starts := r.Between(cfg.RangeStart.Add(-duration), cfg.RangeEnd, true)

	out := make([]entity.AvailabilityWindow, 0, len(starts))
	for _, start := range starts {
		end := start.Add(duration)
		if !start.Before(cfg.RangeEnd) || !end.After(cfg.RangeStart) {
			continue
		}
		out = append(out, entity.AvailabilityWindow{
			AvailabilityID: rule.ID,
			DoctorID:       rule.DoctorID,
			Start:          start,
			End:            end,
		})
		if len(out) == cfg.MaxOccurrencesPerRule {
			break
		}
	}
	return out, nil
}

// BuildRule anchors the stored RRULE at valid_from + start_time and clamps it
// to valid_until.
func BuildRule(rule entity.DoctorAvailability, loc *time.Location) (*rrule.RRule, error) {
	if loc == nil {
		loc = time.UTC
	}

	opt, err := rrule.StrToROption(rule.RRule)
	if err != nil {
		return nil, fmt.Errorf("availability %d: invalid rrule %q: %w", rule.ID, rule.RRule, err)
	}

	clock, err := ParseClockTime(rule.StartTime)
	if err != nil {
		return nil, fmt.Errorf("availability %d: %w", rule.ID, err)
	}

	from := rule.ValidFrom
	opt.Dtstart = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc).Add(time.Duration(clock))

	if rule.ValidUntil != nil {
		u := *rule.ValidUntil
		until := time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 0, loc)
		if opt.Until.IsZero() || until.Before(opt.Until) {
			opt.Until = until
		}
	}

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("availability %d: %w", rule.ID, err)
	}
	return r, nil
}
