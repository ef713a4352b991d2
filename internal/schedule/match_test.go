/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"testing"

	"github.com/friendsincode/pirwatch/internal/models"
)

func mustClock(t *testing.T, s string) models.Minute {
	t.Helper()
	m, err := ParseClock(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func slot(t *testing.T, location, start, end string) models.ScheduleSlot {
	t.Helper()
	return models.ScheduleSlot{
		Location:  location,
		Start:     mustClock(t, start),
		End:       mustClock(t, end),
		StartText: start,
		EndText:   end,
		DeviceRef: "Charli PIR " + location,
	}
}

func TestResolveActiveSlotInclusiveBounds(t *testing.T) {
	day := models.DaySchedule{Day: "Monday", Slots: []models.ScheduleSlot{
		slot(t, "Kitchen", "08:00", "09:00"),
	}}

	for m := models.Minute(0); m < models.MinutesPerDay; m++ {
		_, ok := ResolveActiveSlot(day, m)
		want := m >= 480 && m <= 540
		if ok != want {
			t.Fatalf("ResolveActiveSlot at %s = %v, want %v", m, ok, want)
		}
	}
}

func TestResolveActiveSlotOvernight(t *testing.T) {
	day := models.DaySchedule{Day: "Monday", Slots: []models.ScheduleSlot{
		slot(t, "Room", "22:00", "06:00"),
	}}

	tests := []struct {
		at   string
		want bool
	}{
		{at: "23:59", want: true},
		{at: "00:00", want: true},
		{at: "05:59", want: true},
		{at: "06:01", want: false},
		{at: "21:59", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			got, ok := ResolveActiveSlot(day, mustClock(t, tt.at))
			if ok != tt.want {
				t.Fatalf("match at %s = %v, want %v", tt.at, ok, tt.want)
			}
			if ok && got.Location != "Room" {
				t.Fatalf("matched %q, want Room", got.Location)
			}
		})
	}
}

func TestResolveActiveSlotFirstMatchWinsInSourceOrder(t *testing.T) {
	day := models.DaySchedule{Day: "Tuesday", Slots: []models.ScheduleSlot{
		slot(t, "Office", "2:00 PM", "3:00 PM"),
		slot(t, "Kitchen", "9:00 AM", "10:00 AM"),
		slot(t, "Basement", "2:30 PM", "2:45 PM"),
	}}

	got, ok := ResolveActiveSlot(day, mustClock(t, "2:40 PM"))
	if !ok || got.Location != "Office" {
		t.Fatalf("ResolveActiveSlot = (%q, %v), want Office", got.Location, ok)
	}

	got, ok = ResolveActiveSlot(day, mustClock(t, "9:15 AM"))
	if !ok || got.Location != "Kitchen" {
		t.Fatalf("unsorted schedule: got (%q, %v), want Kitchen", got.Location, ok)
	}
}

func TestResolveActiveSlotNoMatch(t *testing.T) {
	day := models.DaySchedule{Day: "Sunday", Slots: []models.ScheduleSlot{
		slot(t, "Kitchen", "08:00", "09:00"),
	}}
	if _, ok := ResolveActiveSlot(day, mustClock(t, "12:00")); ok {
		t.Fatal("expected no active slot at noon")
	}
	if _, ok := ResolveActiveSlot(models.DaySchedule{}, 0); ok {
		t.Fatal("expected no active slot in empty schedule")
	}
}

func TestNextChange(t *testing.T) {
	day := models.DaySchedule{Day: "Monday", Slots: []models.ScheduleSlot{
		slot(t, "Room", "06:00", "08:00"),
		slot(t, "Kitchen", "08:00", "09:00"),
		slot(t, "Office", "09:00", "17:00"),
	}}

	next, ok := NextChange(day, mustClock(t, "08:30"))
	if !ok || next.Location != "Office" {
		t.Fatalf("NextChange at 08:30 = (%q, %v), want Office", next.Location, ok)
	}

	next, ok = NextChange(day, mustClock(t, "18:00"))
	if !ok || next.Location != "Room" {
		t.Fatalf("NextChange at 18:00 = (%q, %v), want wrap to Room", next.Location, ok)
	}

	if _, ok := NextChange(models.DaySchedule{}, 0); ok {
		t.Fatal("NextChange on empty schedule should report false")
	}
}
