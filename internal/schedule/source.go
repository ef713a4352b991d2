/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/friendsincode/pirwatch/internal/models"
)

// ErrNotFound matches LoadErrors for a missing schedule file or day.
var ErrNotFound = errors.New("schedule not found")

// LoadErrorKind classifies schedule load failures.
type LoadErrorKind string

const (
	KindNotFound LoadErrorKind = "not_found"
	KindParse    LoadErrorKind = "parse"
)

// LoadError is returned by a Source that cannot produce a day's rows.
type LoadError struct {
	Kind LoadErrorKind
	Day  string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s schedule from %s (%s): %v", e.Day, e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) match not-found load errors.
func (e *LoadError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

// Source yields the ordered timetable rows for a weekday.
type Source interface {
	ReadDaySchedule(ctx context.Context, day string) ([]models.SlotRecord, error)
}
