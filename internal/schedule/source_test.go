/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/friendsincode/pirwatch/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCSVSourceReadsOriginalFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Monday.csv", "Device,Time\n"+
		"Charli PIR Room,10:00 PM - 6:00 AM\n"+
		"\n"+
		".\n"+
		"Charli PIR Kitchen, 7:00 AM - 8:00 AM\n"+
		"Hall Sensor 3,08:00 - 09:00,Office\n")

	src := NewCSVSource(dir)
	rows, err := src.ReadDaySchedule(context.Background(), "Monday")
	if err != nil {
		t.Fatalf("ReadDaySchedule: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	want := []models.SlotRecord{
		{Location: "Room", StartTime: "10:00 PM", EndTime: "6:00 AM", DeviceRef: "Charli PIR Room"},
		{Location: "Kitchen", StartTime: "7:00 AM", EndTime: "8:00 AM", DeviceRef: "Charli PIR Kitchen"},
		{Location: "Office", StartTime: "08:00", EndTime: "09:00", DeviceRef: "Hall Sensor 3"},
	}
	for i, w := range want {
		got := rows[i]
		got.Line = 0
		if got != w {
			t.Errorf("row %d = %+v, want %+v", i, got, w)
		}
	}
	if rows[0].Line != 2 {
		t.Errorf("first row line = %d, want 2", rows[0].Line)
	}
}

func TestCSVSourceMissingFileIsNotFound(t *testing.T) {
	src := NewCSVSource(t.TempDir())
	_, err := src.ReadDaySchedule(context.Background(), "Friday")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Kind != KindNotFound || loadErr.Day != "Friday" {
		t.Fatalf("err = %#v, want not_found LoadError for Friday", err)
	}
}

func TestCSVSourceMalformedRangeIsParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Tuesday.csv", "Device,Time\nCharli PIR Room,10:00 PM to 6:00 AM\n")

	_, err := NewCSVSource(dir).ReadDaySchedule(context.Background(), "Tuesday")
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Kind != KindParse {
		t.Fatalf("err = %v, want parse LoadError", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("parse error must not match ErrNotFound")
	}
}

func TestCSVSourceHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCSVSource(t.TempDir()).ReadDaySchedule(ctx, "Monday"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestYAMLSourceReadsWeek(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "week.yaml", `days:
  Monday:
    - device: Charli PIR Office
      start: "9:00 AM"
      end: "5:00 PM"
    - device: Sensor 7
      location: Basement
      start: "17:00"
      end: "18:00"
  sunday:
    - device: Charli PIR Room
      start: "10:00 PM"
      end: "8:00 AM"
`)

	src := NewYAMLSource(path)
	rows, err := src.ReadDaySchedule(context.Background(), "Monday")
	if err != nil {
		t.Fatalf("ReadDaySchedule: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Location != "Office" || rows[1].Location != "Basement" {
		t.Fatalf("locations = %q, %q", rows[0].Location, rows[1].Location)
	}

	rows, err = src.ReadDaySchedule(context.Background(), "Sunday")
	if err != nil {
		t.Fatalf("case-insensitive day lookup: %v", err)
	}
	if len(rows) != 1 || rows[0].StartTime != "10:00 PM" {
		t.Fatalf("sunday rows = %+v", rows)
	}

	if _, err := src.ReadDaySchedule(context.Background(), "Wednesday"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing day err = %v, want ErrNotFound", err)
	}
}

func TestYAMLSourceInvalidDocument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "week.yaml", "days: [this is: not, a map\n")
	_, err := NewYAMLSource(path).ReadDaySchedule(context.Background(), "Monday")
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Kind != KindParse {
		t.Fatalf("err = %v, want parse LoadError", err)
	}
}

func TestBuildSkipsRowsWithBadTimes(t *testing.T) {
	rows := []models.SlotRecord{
		{Location: "Room", StartTime: "10:00 PM", EndTime: "6:00 AM", DeviceRef: "Charli PIR Room", Line: 2},
		{Location: "Kitchen", StartTime: "breakfast", EndTime: "8:00 AM", DeviceRef: "Charli PIR Kitchen", Line: 3},
		{Location: "Office", StartTime: "09:00", EndTime: "25:00", DeviceRef: "Charli PIR Office", Line: 4},
		{Location: " Basement ", StartTime: "18:00", EndTime: "19:00", DeviceRef: "Charli PIR Basement", Line: 5},
	}

	loadedAt := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	day, rejected := Build("Monday", rows, loadedAt)
	if len(day.Slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(day.Slots))
	}
	if day.Slots[0].Location != "Room" || day.Slots[1].Location != "Basement" {
		t.Fatalf("slot order = %q, %q", day.Slots[0].Location, day.Slots[1].Location)
	}
	if !day.Slots[0].Overnight() {
		t.Fatal("expected first slot to be overnight")
	}
	if !day.LoadedAt.Equal(loadedAt) || day.Day != "Monday" {
		t.Fatalf("day metadata = %q %v", day.Day, day.LoadedAt)
	}

	if len(rejected) != 2 {
		t.Fatalf("rejected = %d, want 2", len(rejected))
	}
	for _, err := range rejected {
		var parseErr *TimeParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("rejected error %v is not a TimeParseError", err)
		}
	}
}

func TestLocationFromDevice(t *testing.T) {
	tests := map[string]string{
		"Charli PIR Room":     "Room",
		"Charli PIR WashRoom": "WashRoom",
		"  Kitchen  ":         "Kitchen",
		"":                    "",
	}
	for in, want := range tests {
		if got := LocationFromDevice(in); got != want {
			t.Errorf("LocationFromDevice(%q) = %q, want %q", in, got, want)
		}
	}
}
