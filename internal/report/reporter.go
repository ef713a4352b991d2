/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/pirwatch/internal/models"
)

// RecordSource supplies the records of a trailing window.
type RecordSource interface {
	Window(d time.Duration) []models.OutcomeRecord
}

// ReporterOptions configures report timing.
type ReporterOptions struct {
	Window       time.Duration
	Interval     time.Duration
	InitialDelay time.Duration
	Location     *time.Location
	Now          func() time.Time

	// Delivered, when set, is called after a report reached every sink.
	Delivered func(*Report)
}

// Reporter periodically renders the trailing window and delivers it.
type Reporter struct {
	records RecordSource
	sink    Sink
	opts    ReporterOptions
	logger  zerolog.Logger

	mu       sync.RWMutex
	last     *Report
	lastOK   bool
	sent     int
	failures int
	nextAt   time.Time
}

// ReporterStatus is a snapshot of delivery history.
type ReporterStatus struct {
	Reports      int       `json:"reports"`
	Failures     int       `json:"failures"`
	LastReportID string    `json:"last_report_id,omitempty"`
	LastReportAt time.Time `json:"last_report_at,omitempty"`
	LastOK       bool      `json:"last_ok"`
	NextReport   time.Time `json:"next_report,omitempty"`
}

// NewReporter creates a reporter. Zero options fall back to an hourly
// one-hour report with a five minute initial delay.
func NewReporter(records RecordSource, sink Sink, opts ReporterOptions, logger zerolog.Logger) *Reporter {
	if opts.Window <= 0 {
		opts.Window = time.Hour
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.InitialDelay < 0 {
		opts.InitialDelay = 0
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reporter{
		records: records,
		sink:    sink,
		opts:    opts,
		logger:  logger.With().Str("component", "reporter").Logger(),
	}
}

// Run sends the first report after InitialDelay and then one every Interval
// until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) error {
	r.logger.Info().
		Dur("initial_delay", r.opts.InitialDelay).
		Dur("interval", r.opts.Interval).
		Dur("window", r.opts.Window).
		Str("sink", r.sink.Name()).
		Msg("reporter started")

	r.setNext(r.opts.Now().Add(r.opts.InitialDelay))
	timer := time.NewTimer(r.opts.InitialDelay)
	defer timer.Stop()
	defer r.setNext(time.Time{})

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reporter stopped")
			return ctx.Err()
		case <-timer.C:
			next := r.opts.Now().Add(r.opts.Interval)
			r.setNext(next)
			r.SendNow(ctx)
			wait := next.Sub(r.opts.Now())
			if wait < 0 {
				wait = 0
			}
			timer.Reset(wait)
		}
	}
}

// Preview renders the current window without delivering it. While Run is
// active the footer names the scheduled fire time; otherwise one Interval
// from now.
func (r *Reporter) Preview() (*Report, error) {
	now := r.opts.Now()
	next := r.nextReport()
	if next.IsZero() {
		next = now.Add(r.opts.Interval)
	}
	return Render(r.records.Window(r.opts.Window), RenderOptions{
		PeriodStart: now.Add(-r.opts.Window),
		PeriodEnd:   now,
		NextReport:  next,
		Location:    r.opts.Location,
	})
}

func (r *Reporter) setNext(t time.Time) {
	r.mu.Lock()
	r.nextAt = t
	r.mu.Unlock()
}

func (r *Reporter) nextReport() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextAt
}

// SendNow renders and delivers one report. Failures are logged and reported
// through the boolean, never returned or propagated.
func (r *Reporter) SendNow(ctx context.Context) (*Report, bool) {
	rep, err := r.Preview()
	if err != nil {
		r.logger.Error().Err(err).Msg("render report failed")
		r.recordResult(nil, false)
		return nil, false
	}
	ok := r.deliverSafely(ctx, rep)
	r.recordResult(rep, ok)
	if ok && r.opts.Delivered != nil {
		r.opts.Delivered(rep)
	}
	return rep, ok
}

// Status returns delivery counters.
func (r *Reporter) Status() ReporterStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := ReporterStatus{Reports: r.sent, Failures: r.failures, LastOK: r.lastOK, NextReport: r.nextAt}
	if r.last != nil {
		st.LastReportID = r.last.ID.String()
		st.LastReportAt = r.last.GeneratedAt
	}
	return st
}

func (r *Reporter) recordResult(rep *Report, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rep != nil {
		r.last = rep
	}
	r.lastOK = ok
	if ok {
		r.sent++
	} else {
		r.failures++
	}
}

// deliverSafely is the error boundary around a delivery.
func (r *Reporter) deliverSafely(ctx context.Context, rep *Report) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("report_id", rep.ID.String()).
				Str("panic", fmt.Sprint(rec)).
				Msg("report delivery panicked")
			ok = false
		}
	}()

	if err := r.sink.Deliver(ctx, rep); err != nil {
		r.logger.Error().Err(err).Str("report_id", rep.ID.String()).Msg("report delivery failed")
		return false
	}
	r.logger.Info().
		Str("report_id", rep.ID.String()).
		Int("records", rep.Summary.Total).
		Bool("empty", rep.Empty).
		Msg("report delivered")
	return true
}
