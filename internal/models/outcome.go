/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// Status is the result class of one polling cycle.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusAway    Status = "away"
)

// NoActiveSlot is the slot description used when nothing was scheduled.
const NoActiveSlot = "no active slot"

// OutcomeRecord is the recorded result of one polling cycle.
type OutcomeRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Cycle        uint64    `json:"cycle"`
	Day          string    `json:"day"`
	Location     *string   `json:"location"`
	Device       *string   `json:"device"`
	TimeSlot     string    `json:"time_slot"`
	Status       Status    `json:"status"`
	ResponseCode *int      `json:"response_code"`
	ErrorDetail  *string   `json:"error_detail"`
}

// LocationOr returns the location or fallback when none was matched.
func (r OutcomeRecord) LocationOr(fallback string) string {
	if r.Location == nil || *r.Location == "" {
		return fallback
	}
	return *r.Location
}

// DeviceOr returns the device or fallback when none was matched.
func (r OutcomeRecord) DeviceOr(fallback string) string {
	if r.Device == nil || *r.Device == "" {
		return fallback
	}
	return *r.Device
}

// ErrorOr returns the error detail or fallback.
func (r OutcomeRecord) ErrorOr(fallback string) string {
	if r.ErrorDetail == nil || *r.ErrorDetail == "" {
		return fallback
	}
	return *r.ErrorDetail
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
