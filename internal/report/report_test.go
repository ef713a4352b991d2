/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package report

import (
	"strings"
	"testing"
	"time"

	"github.com/friendsincode/pirwatch/internal/models"
)

var testNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func successRecord(ts time.Time, cycle uint64) models.OutcomeRecord {
	return models.OutcomeRecord{
		Timestamp:    ts,
		Cycle:        cycle,
		Day:          "Monday",
		Location:     models.StringPtr("Kitchen"),
		Device:       models.StringPtr("Charli PIR Kitchen"),
		TimeSlot:     "2:00 PM - 3:00 PM",
		Status:       models.StatusSuccess,
		ResponseCode: models.IntPtr(200),
	}
}

func errorRecord(ts time.Time, cycle uint64) models.OutcomeRecord {
	return models.OutcomeRecord{
		Timestamp:   ts,
		Cycle:       cycle,
		Day:         "Monday",
		Location:    models.StringPtr("Office"),
		Device:      models.StringPtr("Charli PIR Office"),
		TimeSlot:    "3:00 PM - 4:00 PM",
		Status:      models.StatusError,
		ErrorDetail: models.StringPtr("Network timeout"),
	}
}

func awayRecord(ts time.Time, cycle uint64) models.OutcomeRecord {
	return models.OutcomeRecord{Timestamp: ts, Cycle: cycle, Day: "Monday", TimeSlot: models.NoActiveSlot, Status: models.StatusAway}
}

func TestRenderOneSuccessOneError(t *testing.T) {
	records := []models.OutcomeRecord{
		errorRecord(testNow.Add(-10*time.Minute), 2),
		successRecord(testNow.Add(-20*time.Minute), 1),
	}

	rep, err := Render(records, RenderOptions{
		PeriodStart: testNow.Add(-time.Hour),
		PeriodEnd:   testNow,
		NextReport:  testNow.Add(time.Hour),
		Location:    time.UTC,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if rep.Summary.Total != 2 || rep.Summary.Success != 1 || rep.Summary.Error != 1 || rep.Summary.Away != 0 {
		t.Fatalf("summary = %+v", rep.Summary)
	}
	if len(rep.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rep.Rows))
	}
	if rep.Rows[0].Cycle != 1 || rep.Rows[1].Cycle != 2 {
		t.Fatalf("rows not ascending: %d, %d", rep.Rows[0].Cycle, rep.Rows[1].Cycle)
	}
	if rep.Empty {
		t.Fatal("report marked empty")
	}
	if got := strings.Count(rep.HTML, "<tr><td>"); got != 2 {
		t.Fatalf("html table rows = %d, want 2", got)
	}
	if strings.Index(rep.HTML, "14:40:00") > strings.Index(rep.HTML, "14:50:00") {
		t.Fatal("html rows not in chronological order")
	}
	for _, want := range []string{"Network timeout", "Charli PIR Kitchen", "50.0%", "2026-10-19 16:00:00 UTC"} {
		if !strings.Contains(rep.HTML, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if records[0].Cycle != 2 {
		t.Fatal("Render reordered the caller's slice")
	}
}

func TestRenderEmptyWindow(t *testing.T) {
	rep, err := Render(nil, RenderOptions{PeriodEnd: testNow, Location: time.UTC})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !rep.Empty || rep.Summary.Total != 0 {
		t.Fatalf("unexpected report %+v", rep.Summary)
	}
	if !strings.Contains(rep.HTML, "No activity in this period") {
		t.Fatal("html lacks no-activity notice")
	}
	if !strings.Contains(rep.Text, "No activity in this period") {
		t.Fatal("text lacks no-activity notice")
	}
	if strings.Contains(rep.HTML, "<table") {
		t.Fatal("empty report rendered a table")
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	rec := errorRecord(testNow, 1)
	rec.ErrorDetail = models.StringPtr("<script>alert(1)</script>")
	rep, err := Render([]models.OutcomeRecord{rec}, RenderOptions{PeriodEnd: testNow, Location: time.UTC})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(rep.HTML, "<script>") {
		t.Fatal("error detail was not escaped")
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		records []models.OutcomeRecord
		want    Summary
	}{
		{"empty", nil, Summary{}},
		{"mixed", []models.OutcomeRecord{
			successRecord(testNow, 1),
			errorRecord(testNow, 2),
			awayRecord(testNow, 3),
			awayRecord(testNow, 4),
		}, Summary{Total: 4, Success: 1, Error: 1, Away: 2, SuccessRate: 25}},
		{"all success", []models.OutcomeRecord{successRecord(testNow, 1)}, Summary{Total: 1, Success: 1, SuccessRate: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.records); got != tt.want {
				t.Fatalf("Summarize = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSubjectAndShortSummary(t *testing.T) {
	if got := Subject(testNow); got != "PIR Sensor Report - 2026-10-19 15:00" {
		t.Fatalf("Subject = %q", got)
	}
	rep, _ := Render([]models.OutcomeRecord{successRecord(testNow, 1)}, RenderOptions{PeriodEnd: testNow, Location: time.UTC})
	if !strings.Contains(rep.ShortSummary(), "Success rate: 100.0%") {
		t.Fatalf("ShortSummary = %q", rep.ShortSummary())
	}
	empty, _ := Render(nil, RenderOptions{PeriodEnd: testNow, Location: time.UTC})
	if !strings.Contains(empty.ShortSummary(), "No activity") {
		t.Fatalf("ShortSummary = %q", empty.ShortSummary())
	}
}
