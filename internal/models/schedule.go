/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"fmt"
	"time"
)

// MinutesPerDay is the length of a schedule day in minutes.
const MinutesPerDay = 24 * 60

// Minute is a wall-clock time of day expressed as minutes since midnight (0..1439).
type Minute int

// String formats the minute as HH:MM.
func (m Minute) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Valid reports whether m lies within a single day.
func (m Minute) Valid() bool {
	return m >= 0 && m < MinutesPerDay
}

// SlotRecord is a raw timetable row as handed over by a schedule source.
type SlotRecord struct {
	Location  string `json:"location" yaml:"location"`
	StartTime string `json:"start_time" yaml:"start"`
	EndTime   string `json:"end_time" yaml:"end"`
	DeviceRef string `json:"device" yaml:"device"`
	Line      int    `json:"line,omitempty" yaml:"-"`
}

// ScheduleSlot is one parsed row of a day's timetable. Slots are immutable once built.
type ScheduleSlot struct {
	Location  string `json:"location"`
	Start     Minute `json:"start"`
	End       Minute `json:"end"`
	StartText string `json:"start_text"`
	EndText   string `json:"end_text"`
	DeviceRef string `json:"device"`
}

// Overnight reports whether the slot crosses midnight.
func (s ScheduleSlot) Overnight() bool {
	return s.End < s.Start
}

// Contains reports whether now falls inside the slot. Both bounds are inclusive.
// An overnight slot covers [start, 24:00) and [00:00, end] of the same night.
func (s ScheduleSlot) Contains(now Minute) bool {
	start, end := int(s.Start), int(s.End)
	current := int(now)
	if end < start {
		end += MinutesPerDay
		if current < start {
			current += MinutesPerDay
		}
	}
	return current >= start && current <= end
}

// Description renders the slot range the way it was written in the schedule.
func (s ScheduleSlot) Description() string {
	start, end := s.StartText, s.EndText
	if start == "" {
		start = s.Start.String()
	}
	if end == "" {
		end = s.End.String()
	}
	return start + " - " + end
}

// DaySchedule is the ordered timetable for one weekday, kept in source order.
type DaySchedule struct {
	Day      string         `json:"day"`
	Slots    []ScheduleSlot `json:"slots"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// Empty reports whether the schedule has no usable slots.
func (d DaySchedule) Empty() bool {
	return len(d.Slots) == 0
}
