/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduler runs the polling cycle loop: load the day's schedule,
// resolve the active slot, fire its trigger and record one outcome.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/pirwatch/internal/models"
	"github.com/friendsincode/pirwatch/internal/schedule"
	"github.com/friendsincode/pirwatch/internal/telemetry"
	"github.com/friendsincode/pirwatch/internal/trigger"
)

// Defaults for Options left at zero.
const (
	DefaultInterval      = 300 * time.Second
	DefaultErrorBackoff  = 30 * time.Second
	DefaultShutdownGrace = 10 * time.Second
)

// Recorder receives exactly one record per cycle.
type Recorder interface {
	Append(rec models.OutcomeRecord)
}

// Options configures the controller.
type Options struct {
	Interval      time.Duration
	ErrorBackoff  time.Duration
	ShutdownGrace time.Duration
	Location      *time.Location
	Now           func() time.Time
}

// Controller owns the loaded day schedule and the cycle counter.
type Controller struct {
	source  schedule.Source
	trigger trigger.Trigger
	store   Recorder
	opts    Options
	logger  zerolog.Logger

	mu          sync.RWMutex
	running     bool
	cycles      uint64
	day         models.DaySchedule
	loaded      bool
	loadErr     error
	skipped     []error
	last        *models.OutcomeRecord
	lastCycleAt time.Time
}

// New constructs the controller.
func New(opts Options, source schedule.Source, trig trigger.Trigger, store Recorder, logger zerolog.Logger) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = DefaultErrorBackoff
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = DefaultShutdownGrace
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		source:  source,
		trigger: trig,
		store:   store,
		opts:    opts,
		logger:  logger.With().Str("component", "controller").Logger(),
	}
}

// Run executes cycles until ctx is cancelled. The first cycle starts
// immediately; the next one starts Interval after the previous completed,
// or ErrorBackoff after a failed cycle.
func (c *Controller) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.setRunning(true)
	defer c.setRunning(false)

	c.logger.Info().
		Dur("interval", c.opts.Interval).
		Dur("error_backoff", c.opts.ErrorBackoff).
		Str("timezone", c.opts.Location.String()).
		Msg("cycle loop started")

	for {
		wait := c.opts.Interval
		if _, err := c.RunCycle(ctx); err != nil {
			telemetry.CycleFailuresTotal.Inc()
			c.logger.Error().Err(err).Dur("backoff", c.opts.ErrorBackoff).Msg("cycle failed, backing off")
			wait = c.opts.ErrorBackoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info().Msg("cycle loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle performs one cycle and appends exactly one record. The error is
// non-nil when the cycle failed: the schedule could not be loaded, the
// trigger call returned an error, or the cycle panicked. A trigger that
// answers with a rejecting status and an unknown location are recorded as
// error outcomes without failing the cycle.
func (c *Controller) RunCycle(ctx context.Context) (rec models.OutcomeRecord, err error) {
	start := time.Now()
	now := c.opts.Now().In(c.opts.Location)

	c.mu.Lock()
	c.cycles++
	cycle := c.cycles
	c.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "scheduler", "cycle")
	defer span.End()

	rec = models.OutcomeRecord{
		Cycle:    cycle,
		Day:      schedule.DayName(now),
		TimeSlot: models.NoActiveSlot,
		Status:   models.StatusError,
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle %d panicked: %v", cycle, r)
			rec.Status = models.StatusError
			rec.ErrorDetail = models.StringPtr(err.Error())
			telemetry.RecordError(span, err)
		}
		c.finish(&rec, time.Since(start))
		telemetry.AddSpanAttributes(span, map[string]any{
			"cycle":    cycle,
			"day":      rec.Day,
			"status":   string(rec.Status),
			"location": rec.LocationOr(""),
		})
	}()

	err = c.runCycle(ctx, &rec, now)
	return rec, err
}

func (c *Controller) runCycle(ctx context.Context, rec *models.OutcomeRecord, now time.Time) error {
	day, err := c.ensureSchedule(ctx, rec.Day)
	if err != nil {
		rec.Status = models.StatusAway
		rec.ErrorDetail = models.StringPtr(err.Error())
		return fmt.Errorf("load %s schedule: %w", rec.Day, err)
	}

	slot, ok := schedule.ResolveActiveSlot(day, schedule.MinuteOf(now))
	if !ok {
		rec.Status = models.StatusAway
		return nil
	}
	rec.TimeSlot = slot.Description()
	rec.Location = models.StringPtr(slot.Location)
	rec.Device = models.StringPtr(slot.DeviceRef)

	location, ok := models.ParseLocation(slot.Location)
	if !ok {
		err := &trigger.UnknownLocationError{Location: slot.Location}
		rec.Status = models.StatusError
		rec.ErrorDetail = models.StringPtr(err.Error())
		return nil
	}

	res, err := c.fire(ctx, location)
	if res.ResponseCode != 0 {
		rec.ResponseCode = models.IntPtr(res.ResponseCode)
	}
	switch {
	case err != nil:
		rec.Status = models.StatusError
		rec.ErrorDetail = models.StringPtr(err.Error())
		return fmt.Errorf("trigger %s: %w", location, err)
	case !res.Succeeded:
		rec.Status = models.StatusError
		rec.ErrorDetail = models.StringPtr(fmt.Sprintf("trigger %s: HTTP %d", location, res.ResponseCode))
	default:
		rec.Status = models.StatusSuccess
	}
	return nil
}

// fire calls the trigger on a context that outlives ctx by ShutdownGrace so
// an in-flight request can finish during shutdown.
func (c *Controller) fire(ctx context.Context, location models.Location) (trigger.Result, error) {
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	stop := context.AfterFunc(ctx, func() {
		timer := time.NewTimer(c.opts.ShutdownGrace)
		defer timer.Stop()
		select {
		case <-timer.C:
			cancel()
		case <-callCtx.Done():
		}
	})
	defer stop()

	return c.trigger.Fire(callCtx, location)
}

// ensureSchedule returns the schedule for dayName, reloading it on the first
// cycle, on a day change, or after a failed load.
func (c *Controller) ensureSchedule(ctx context.Context, dayName string) (models.DaySchedule, error) {
	c.mu.RLock()
	if c.loaded && c.day.Day == dayName {
		day := c.day
		c.mu.RUnlock()
		return day, nil
	}
	c.mu.RUnlock()

	day, skipped, err := c.loadDay(ctx, dayName)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped = skipped
	if err != nil {
		c.day = models.DaySchedule{Day: dayName}
		c.loaded = false
		c.loadErr = err
		return c.day, err
	}
	c.day = day
	c.loaded = true
	c.loadErr = nil
	return day, nil
}

func (c *Controller) loadDay(ctx context.Context, dayName string) (models.DaySchedule, []error, error) {
	rows, err := c.source.ReadDaySchedule(ctx, dayName)
	if err != nil {
		result := "error"
		if errors.Is(err, schedule.ErrNotFound) {
			result = "not_found"
		}
		telemetry.ScheduleLoadsTotal.WithLabelValues(dayName, result).Inc()
		c.logger.Error().Err(err).Str("day", dayName).Msg("failed to load day schedule")
		return models.DaySchedule{}, nil, err
	}

	day, skipped := schedule.Build(dayName, rows, c.opts.Now().In(c.opts.Location))
	for _, rowErr := range skipped {
		c.logger.Warn().Err(rowErr).Str("day", dayName).Msg("skipping schedule row")
	}
	if len(skipped) > 0 {
		telemetry.ScheduleRowsRejectedTotal.WithLabelValues(dayName).Add(float64(len(skipped)))
	}
	telemetry.ScheduleLoadsTotal.WithLabelValues(dayName, "success").Inc()
	c.logger.Info().Str("day", dayName).Int("slots", len(day.Slots)).Int("skipped", len(skipped)).Msg("day schedule loaded")
	return day, skipped, nil
}

// finish stamps and stores the record. It runs exactly once per cycle.
func (c *Controller) finish(rec *models.OutcomeRecord, elapsed time.Duration) {
	rec.Timestamp = c.opts.Now().In(c.opts.Location)
	c.store.Append(*rec)

	c.mu.Lock()
	last := *rec
	c.last = &last
	c.lastCycleAt = rec.Timestamp
	c.mu.Unlock()

	telemetry.CyclesTotal.Inc()
	telemetry.CycleDuration.Observe(elapsed.Seconds())
	telemetry.OutcomesTotal.WithLabelValues(string(rec.Status), rec.LocationOr("none")).Inc()

	event := c.logger.Info()
	if rec.Status == models.StatusError {
		event = c.logger.Warn().Str("error", rec.ErrorOr(""))
	}
	event.
		Uint64("cycle", rec.Cycle).
		Str("day", rec.Day).
		Str("location", rec.LocationOr("")).
		Str("device", rec.DeviceOr("")).
		Str("time_slot", rec.TimeSlot).
		Str("status", string(rec.Status)).
		Msg("cycle complete")
}

func (c *Controller) setRunning(v bool) {
	c.mu.Lock()
	c.running = v
	c.mu.Unlock()
}
