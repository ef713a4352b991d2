/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package trigger fires the sensor action for a matched location.
package trigger

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/friendsincode/pirwatch/internal/models"
)

// DefaultSerialTemplate reproduces the serial numbers of the deployed PIR fixtures.
const DefaultSerialTemplate = "Charli PIR {{.Location}}"

// DefaultSensors is the SigfoxSensors value sent with every trigger.
const DefaultSensors = "motion"

// Result is what the remote endpoint answered.
type Result struct {
	ResponseCode int
	Succeeded    bool
}

// Trigger fires the action bound to a location. Implementations must be safe
// to call at most once per cycle and must not retry internally.
type Trigger interface {
	Fire(ctx context.Context, location models.Location) (Result, error)
}

// Func adapts a plain function to Trigger.
type Func func(ctx context.Context, location models.Location) (Result, error)

// Fire implements Trigger.
func (f Func) Fire(ctx context.Context, location models.Location) (Result, error) {
	return f(ctx, location)
}

// UnknownLocationError reports a schedule location no trigger is bound to.
type UnknownLocationError struct {
	Location string
}

func (e *UnknownLocationError) Error() string {
	return fmt.Sprintf("unknown location %q: no sensor is mapped to it", e.Location)
}

// Error is a failed trigger call. StatusCode is zero when no response arrived.
type Error struct {
	Location   models.Location
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("trigger %s: %v", e.Location, e.Err)
	case e.Body != "":
		return fmt.Sprintf("trigger %s: HTTP %d: %s", e.Location, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("trigger %s: HTTP %d", e.Location, e.StatusCode)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Device is the fixed payload sent for one location.
type Device struct {
	Location     models.Location `json:"location"`
	SerialNumber string          `json:"serial_number"`
	Sensors      string          `json:"sensors"`
}

// DeviceTable is the single dispatch table from location to sensor payload.
// Adding a location means adding one entry.
type DeviceTable map[models.Location]Device

// NewDeviceTable renders a device for every known location. The serial
// template receives {{.Location}}.
func NewDeviceTable(serialTemplate, sensors string) (DeviceTable, error) {
	if serialTemplate == "" {
		serialTemplate = DefaultSerialTemplate
	}
	if sensors == "" {
		sensors = DefaultSensors
	}

	tmpl, err := template.New("serial").Option("missingkey=error").Parse(serialTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse serial template: %w", err)
	}

	table := make(DeviceTable, len(models.AllLocations()))
	for _, loc := range models.AllLocations() {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, struct{ Location string }{Location: loc.String()}); err != nil {
			return nil, fmt.Errorf("render serial for %s: %w", loc, err)
		}
		table[loc] = Device{Location: loc, SerialNumber: buf.String(), Sensors: sensors}
	}
	return table, nil
}

// Lookup returns the device bound to location.
func (t DeviceTable) Lookup(location models.Location) (Device, bool) {
	d, ok := t[location]
	return d, ok
}
