/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import "github.com/friendsincode/pirwatch/internal/models"

// ResolveActiveSlot returns the first slot, in source order, that contains now.
// Overlapping slots are allowed; the earlier row wins. The boolean is false
// when no slot is active, which is the normal idle case.
func ResolveActiveSlot(day models.DaySchedule, now models.Minute) (models.ScheduleSlot, bool) {
	for _, slot := range day.Slots {
		if slot.Contains(now) {
			return slot, true
		}
	}
	return models.ScheduleSlot{}, false
}

// NextChange returns the first slot in source order that starts after now.
// When nothing else starts today it wraps to the first slot of the schedule.
func NextChange(day models.DaySchedule, now models.Minute) (models.ScheduleSlot, bool) {
	if len(day.Slots) == 0 {
		return models.ScheduleSlot{}, false
	}
	for _, slot := range day.Slots {
		if slot.Start > now {
			return slot, true
		}
	}
	return day.Slots[0], true
}
