/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule turns weekly timetable rows into day schedules and resolves
// which slot is active at a given wall-clock minute.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/friendsincode/pirwatch/internal/models"
)

// TimeParseError reports a time-of-day string that is neither HH:MM nor HH:MM AM|PM.
type TimeParseError struct {
	Value  string
	Reason string
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("invalid time of day %q: %s", e.Value, e.Reason)
}

// ParseClock converts a 24-hour "HH:MM" or 12-hour "HH:MM AM|PM" string into
// minutes since midnight. The AM/PM marker is case-insensitive and may be
// separated from the digits by whitespace.
func ParseClock(raw string) (models.Minute, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return 0, &TimeParseError{Value: raw, Reason: "empty"}
	}

	meridiem := ""
	if strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM") {
		meridiem = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	hourText, minuteText, ok := strings.Cut(s, ":")
	if !ok {
		return 0, &TimeParseError{Value: raw, Reason: "missing ':' separator"}
	}
	hour, err := parseDigits(hourText, 1, 2)
	if err != nil {
		return 0, &TimeParseError{Value: raw, Reason: "bad hour: " + err.Error()}
	}
	minute, err := parseDigits(minuteText, 2, 2)
	if err != nil {
		return 0, &TimeParseError{Value: raw, Reason: "bad minute: " + err.Error()}
	}
	if minute > 59 {
		return 0, &TimeParseError{Value: raw, Reason: "minute out of range"}
	}

	switch meridiem {
	case "":
		if hour > 23 {
			return 0, &TimeParseError{Value: raw, Reason: "hour out of range"}
		}
	default:
		if hour < 1 || hour > 12 {
			return 0, &TimeParseError{Value: raw, Reason: "12-hour clock hour out of range"}
		}
		// 12 AM is midnight and 12 PM is noon.
		hour %= 12
		if meridiem == "PM" {
			hour += 12
		}
	}

	return models.Minute(hour*60 + minute), nil
}

func parseDigits(s string, minLen, maxLen int) (int, error) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, fmt.Errorf("expected %d-%d digits, got %q", minLen, maxLen, s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit in %q", s)
		}
	}
	return strconv.Atoi(s)
}

// MinuteOf returns the wall-clock minute of t in t's own location.
func MinuteOf(t time.Time) models.Minute {
	return models.Minute(t.Hour()*60 + t.Minute())
}

// DayName returns the English weekday name used to key schedules.
func DayName(t time.Time) string {
	return t.Weekday().String()
}
