/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"testing"
	"time"
)

func TestLoadLocationFixedOffsets(t *testing.T) {
	tests := []struct {
		zone       string
		wantOffset int
	}{
		{zone: "UTC", wantOffset: 0},
		{zone: "Z", wantOffset: 0},
		{zone: "+05:30", wantOffset: 5*3600 + 30*60},
		{zone: "-0800", wantOffset: -8 * 3600},
		{zone: "UTC+2", wantOffset: 2 * 3600},
		{zone: "gmt-03:30", wantOffset: -(3*3600 + 30*60)},
	}
	ref := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			loc, err := LoadLocation(tt.zone)
			if err != nil {
				t.Fatalf("LoadLocation(%q): %v", tt.zone, err)
			}
			_, offset := ref.In(loc).Zone()
			if offset != tt.wantOffset {
				t.Fatalf("offset = %d, want %d", offset, tt.wantOffset)
			}
		})
	}
}

func TestLoadLocationDefaultsToLocal(t *testing.T) {
	for _, zone := range []string{"", "  ", "local", "Local"} {
		loc, err := LoadLocation(zone)
		if err != nil {
			t.Fatalf("LoadLocation(%q): %v", zone, err)
		}
		if loc != time.Local {
			t.Fatalf("LoadLocation(%q) = %v, want time.Local", zone, loc)
		}
	}
}

func TestLoadLocationIANA(t *testing.T) {
	loc, err := LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Fatalf("loc = %q", loc.String())
	}
}

func TestLoadLocationRejectsGarbage(t *testing.T) {
	for _, zone := range []string{"Mars/Olympus_Mons", "+25:00", "UTC+3:75"} {
		if _, err := LoadLocation(zone); err == nil {
			t.Fatalf("LoadLocation(%q) succeeded, want error", zone)
		}
	}
}
