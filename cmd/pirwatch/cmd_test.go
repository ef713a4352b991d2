/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/friendsincode/pirwatch/internal/report"
	"github.com/friendsincode/pirwatch/internal/version"
)

func TestNormalizeDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"monday", "Monday", false},
		{" SUNDAY ", "Sunday", false},
		{"Funday", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeDay(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("normalizeDay(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestSampleRecordsCoverEveryStatus(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	sum := report.Summarize(sampleRecords(now))
	if sum.Total != 3 || sum.Success != 1 || sum.Error != 1 || sum.Away != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != version.Get().String() {
		t.Fatalf("output = %q", got)
	}
	if !strings.Contains(out.String(), version.Version) {
		t.Fatalf("output %q does not name version %s", out.String(), version.Version)
	}
}
