/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package trigger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/friendsincode/pirwatch/internal/models"
	"github.com/friendsincode/pirwatch/internal/telemetry"
)

const maxErrorBody = 512

// HTTPOptions configures the outbound form POST.
type HTTPOptions struct {
	Endpoint      string
	Timeout       time.Duration
	RatePerMinute int // 0 disables limiting
	UserAgent     string
}

// HTTPTrigger posts the location's sensor payload as a form to a fixed endpoint.
type HTTPTrigger struct {
	endpoint  string
	userAgent string
	devices   DeviceTable
	client    *http.Client
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// NewHTTPTrigger builds an HTTP trigger for the given device table.
func NewHTTPTrigger(opts HTTPOptions, devices DeviceTable, logger zerolog.Logger) (*HTTPTrigger, error) {
	u, err := url.Parse(opts.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid trigger endpoint %q", opts.Endpoint)
	}
	if len(devices) == 0 {
		return nil, errors.New("trigger device table is empty")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "pirwatch/1.0"
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), 1)
	}

	return &HTTPTrigger{
		endpoint:  opts.Endpoint,
		userAgent: opts.UserAgent,
		devices:   devices,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: telemetry.HTTPTransport(nil),
		},
		limiter: limiter,
		logger:  logger.With().Str("component", "trigger").Logger(),
	}, nil
}

// Devices exposes the dispatch table.
func (h *HTTPTrigger) Devices() DeviceTable {
	return h.devices
}

// Fire implements Trigger.
func (h *HTTPTrigger) Fire(ctx context.Context, location models.Location) (Result, error) {
	device, ok := h.devices.Lookup(location)
	if !ok {
		return Result{}, &UnknownLocationError{Location: location.String()}
	}

	ctx, span := telemetry.StartSpan(ctx, "trigger", "fire")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{
		"location": location.String(),
		"serial":   device.SerialNumber,
	})

	if err := h.limiter.Wait(ctx); err != nil {
		telemetry.RecordError(span, err)
		return Result{}, &Error{Location: location, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	start := time.Now()
	res, err := h.post(ctx, device)
	telemetry.TriggerDuration.WithLabelValues(location.String()).Observe(time.Since(start).Seconds())

	result := "success"
	if err != nil {
		result = "failed"
		telemetry.RecordError(span, err)
	}
	telemetry.TriggerRequestsTotal.WithLabelValues(location.String(), result).Inc()
	telemetry.AddSpanAttributes(span, map[string]any{"http.status_code": res.ResponseCode})

	return res, err
}

func (h *HTTPTrigger) post(ctx context.Context, device Device) (Result, error) {
	form := url.Values{}
	form.Set("SigfoxSensors", device.Sensors)
	form.Set("SerialNumber", device.SerialNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, &Error{Location: device.Location, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return Result{}, &Error{Location: device.Location, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	res := Result{ResponseCode: resp.StatusCode, Succeeded: resp.StatusCode < 400}
	if res.Succeeded {
		_, _ = io.Copy(io.Discard, resp.Body)
		h.logger.Debug().
			Str("location", device.Location.String()).
			Str("serial", device.SerialNumber).
			Int("status", resp.StatusCode).
			Msg("sensor trigger accepted")
		return res, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	h.logger.Warn().
		Str("location", device.Location.String()).
		Int("status", resp.StatusCode).
		Str("body", string(body)).
		Msg("sensor trigger rejected")
	return res, &Error{Location: device.Location, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
