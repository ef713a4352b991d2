/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package report renders outcome windows and delivers them to report sinks.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/friendsincode/pirwatch/internal/models"
)

// Summary counts the outcomes of a report window.
type Summary struct {
	Total       int     `json:"total"`
	Success     int     `json:"success"`
	Error       int     `json:"error"`
	Away        int     `json:"away"`
	SuccessRate float64 `json:"success_rate"`
}

// Report is one rendered report, ready for delivery.
type Report struct {
	ID          uuid.UUID              `json:"id"`
	Subject     string                 `json:"subject"`
	GeneratedAt time.Time              `json:"generated_at"`
	PeriodStart time.Time              `json:"period_start"`
	PeriodEnd   time.Time              `json:"period_end"`
	NextReport  time.Time              `json:"next_report"`
	Summary     Summary                `json:"summary"`
	Rows        []models.OutcomeRecord `json:"rows"`
	HTML        string                 `json:"-"`
	Text        string                 `json:"-"`
	Empty       bool                   `json:"empty"`
}

// RenderOptions controls the report period and display timezone.
type RenderOptions struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	NextReport  time.Time
	Location    *time.Location
}

// Summarize counts records by status.
func Summarize(records []models.OutcomeRecord) Summary {
	s := Summary{Total: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case models.StatusSuccess:
			s.Success++
		case models.StatusError:
			s.Error++
		case models.StatusAway:
			s.Away++
		}
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Success) / float64(s.Total) * 100
	}
	return s
}

// Render builds the HTML and plain-text report for records. Rows are sorted
// by timestamp; the input slice is not modified.
func Render(records []models.OutcomeRecord, opts RenderOptions) (*Report, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	end := opts.PeriodEnd
	if end.IsZero() {
		end = time.Now()
	}

	rows := make([]models.OutcomeRecord, len(records))
	copy(rows, records)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})

	rep := &Report{
		ID:          uuid.New(),
		Subject:     Subject(end.In(loc)),
		GeneratedAt: end,
		PeriodStart: opts.PeriodStart,
		PeriodEnd:   end,
		NextReport:  opts.NextReport,
		Summary:     Summarize(rows),
		Rows:        rows,
		Empty:       len(rows) == 0,
	}

	view := newView(rep, loc)

	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	var text bytes.Buffer
	if err := textTemplate.Execute(&text, view); err != nil {
		return nil, fmt.Errorf("render text report: %w", err)
	}
	rep.HTML = html.String()
	rep.Text = text.String()
	return rep, nil
}

// Subject is the report title for the hour containing t.
func Subject(t time.Time) string {
	return fmt.Sprintf("PIR Sensor Report - %s %02d:00", t.Format("2006-01-02"), t.Hour())
}

// ShortSummary is a one-paragraph digest for chat sinks.
func (r *Report) ShortSummary() string {
	if r.Empty {
		return fmt.Sprintf("%s\nNo activity in this period.", r.Subject)
	}
	s := r.Summary
	return fmt.Sprintf("%s\nTotal: %d\nSuccessful: %d\nFailed: %d\nAway: %d\nSuccess rate: %.1f%%",
		r.Subject, s.Total, s.Success, s.Error, s.Away, s.SuccessRate)
}
