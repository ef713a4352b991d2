/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/friendsincode/pirwatch/internal/models"
)

// RowError ties a rejected row to its position in the source.
type RowError struct {
	Line   int
	Device string
	Err    error
}

func (e *RowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("row %d (%s): %v", e.Line, e.Device, e.Err)
	}
	return fmt.Sprintf("row %s: %v", e.Device, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Build parses raw rows into a DaySchedule. Rows whose times cannot be parsed
// are skipped and reported; the remaining rows keep their source order.
func Build(day string, rows []models.SlotRecord, loadedAt time.Time) (models.DaySchedule, []error) {
	out := models.DaySchedule{
		Day:      day,
		Slots:    make([]models.ScheduleSlot, 0, len(rows)),
		LoadedAt: loadedAt,
	}

	var rejected []error
	for _, row := range rows {
		start, err := ParseClock(row.StartTime)
		if err != nil {
			rejected = append(rejected, &RowError{Line: row.Line, Device: row.DeviceRef, Err: err})
			continue
		}
		end, err := ParseClock(row.EndTime)
		if err != nil {
			rejected = append(rejected, &RowError{Line: row.Line, Device: row.DeviceRef, Err: err})
			continue
		}

		out.Slots = append(out.Slots, models.ScheduleSlot{
			Location:  strings.TrimSpace(row.Location),
			Start:     start,
			End:       end,
			StartText: strings.TrimSpace(row.StartTime),
			EndText:   strings.TrimSpace(row.EndTime),
			DeviceRef: strings.TrimSpace(row.DeviceRef),
		})
	}

	return out, rejected
}

// LocationFromDevice extracts the location from a device name such as
// "Charli PIR Kitchen", which is its last word.
func LocationFromDevice(device string) string {
	fields := strings.Fields(device)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
