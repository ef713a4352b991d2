/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/friendsincode/pirwatch/internal/telemetry"
)

// Sink delivers a rendered report somewhere.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, r *Report) error
}

// Verifier is implemented by sinks that can check their configuration
// without delivering anything.
type Verifier interface {
	Verify(ctx context.Context) error
}

// DeliveryError is a failed delivery to one sink.
type DeliveryError struct {
	Sink string
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver report via %s: %v", e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// LogSink writes the report summary to the log.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink that only logs.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "report_log").Logger()}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Deliver implements Sink.
func (s *LogSink) Deliver(_ context.Context, r *Report) error {
	s.logger.Info().
		Str("report_id", r.ID.String()).
		Str("subject", r.Subject).
		Int("total", r.Summary.Total).
		Int("success", r.Summary.Success).
		Int("error", r.Summary.Error).
		Int("away", r.Summary.Away).
		Float64("success_rate", r.Summary.SuccessRate).
		Bool("empty", r.Empty).
		Msg("report generated")
	return nil
}

// MultiSink fans a report out to every sink. One sink failing or panicking
// does not stop the others.
type MultiSink struct {
	sinks  []Sink
	logger zerolog.Logger
}

// NewMultiSink combines sinks.
func NewMultiSink(logger zerolog.Logger, sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: logger.With().Str("component", "report_sinks").Logger()}
}

// Name implements Sink.
func (m *MultiSink) Name() string { return "multi" }

// Sinks returns the combined sinks.
func (m *MultiSink) Sinks() []Sink {
	return m.sinks
}

// Deliver implements Sink. The returned error joins every DeliveryError.
func (m *MultiSink) Deliver(ctx context.Context, r *Report) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := deliverOne(ctx, sink, r); err != nil {
			m.logger.Warn().Err(err).Str("sink", sink.Name()).Str("report_id", r.ID.String()).Msg("report delivery failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Verify checks every sink that supports it.
func (m *MultiSink) Verify(ctx context.Context) error {
	var errs []error
	for _, sink := range m.sinks {
		v, ok := sink.(Verifier)
		if !ok {
			continue
		}
		if err := v.Verify(ctx); err != nil {
			errs = append(errs, &DeliveryError{Sink: sink.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

func deliverOne(ctx context.Context, sink Sink, r *Report) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "report", "deliver")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{"sink": sink.Name(), "report_id": r.ID.String()})

	defer func() {
		if rec := recover(); rec != nil {
			err = &DeliveryError{Sink: sink.Name(), Err: fmt.Errorf("panic: %v", rec)}
		}
		result := "success"
		if err != nil {
			result = "failed"
			telemetry.RecordError(span, err)
		}
		telemetry.ReportsTotal.WithLabelValues(sink.Name(), result).Inc()
	}()

	if derr := sink.Deliver(ctx, r); derr != nil {
		var de *DeliveryError
		if errors.As(derr, &de) {
			return derr
		}
		return &DeliveryError{Sink: sink.Name(), Err: derr}
	}
	return nil
}
