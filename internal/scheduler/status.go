/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduler

import (
	"time"

	"github.com/friendsincode/pirwatch/internal/models"
	"github.com/friendsincode/pirwatch/internal/schedule"
)

// SlotView is a schedule slot as shown to operators.
type SlotView struct {
	Location  string `json:"location"`
	Device    string `json:"device"`
	Start     string `json:"start"`
	End       string `json:"end"`
	TimeSlot  string `json:"time_slot"`
	Overnight bool   `json:"overnight"`
}

// NewSlotView converts a slot for display.
func NewSlotView(s models.ScheduleSlot) SlotView {
	return SlotView{
		Location:  s.Location,
		Device:    s.DeviceRef,
		Start:     s.Start.String(),
		End:       s.End.String(),
		TimeSlot:  s.Description(),
		Overnight: s.Overnight(),
	}
}

// Status is a point-in-time snapshot of the controller.
type Status struct {
	Running        bool                  `json:"running"`
	Cycles         uint64                `json:"cycles"`
	Timezone       string                `json:"timezone"`
	Now            time.Time             `json:"now"`
	Day            string                `json:"day"`
	ScheduleLoaded bool                  `json:"schedule_loaded"`
	ScheduleError  string                `json:"schedule_error,omitempty"`
	Slots          int                   `json:"slots"`
	SkippedRows    int                   `json:"skipped_rows"`
	CurrentSlot    *SlotView             `json:"current_slot"`
	NextChange     *SlotView             `json:"next_change"`
	LastOutcome    *models.OutcomeRecord `json:"last_outcome"`
	LastCycleAt    *time.Time            `json:"last_cycle_at"`
}

// Status reports the controller state against the current time.
func (c *Controller) Status() Status {
	now := c.opts.Now().In(c.opts.Location)

	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Status{
		Running:        c.running,
		Cycles:         c.cycles,
		Timezone:       c.opts.Location.String(),
		Now:            now,
		Day:            c.day.Day,
		ScheduleLoaded: c.loaded,
		Slots:          len(c.day.Slots),
		SkippedRows:    len(c.skipped),
	}
	if c.loadErr != nil {
		st.ScheduleError = c.loadErr.Error()
	}
	if c.last != nil {
		last := *c.last
		st.LastOutcome = &last
		at := c.lastCycleAt
		st.LastCycleAt = &at
	}
	if c.loaded {
		minute := schedule.MinuteOf(now)
		if slot, ok := schedule.ResolveActiveSlot(c.day, minute); ok {
			v := NewSlotView(slot)
			st.CurrentSlot = &v
		}
		if slot, ok := schedule.NextChange(c.day, minute); ok {
			v := NewSlotView(slot)
			st.NextChange = &v
		}
	}
	return st
}

// Schedule returns the loaded day schedule and the rows skipped when it was
// built. ok is false until a schedule has been loaded.
func (c *Controller) Schedule() (day models.DaySchedule, skipped []error, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	day = c.day
	day.Slots = append([]models.ScheduleSlot(nil), c.day.Slots...)
	skipped = append([]error(nil), c.skipped...)
	return day, skipped, c.loaded
}
