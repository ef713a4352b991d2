/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/friendsincode/pirwatch/internal/models"
)

// icalNamespace seeds the deterministic event UIDs.
var icalNamespace = uuid.MustParse("3f1d5c7e-2a4b-4c8d-9e0f-6a7b8c9d0e1f")

// ExportICalResult contains the iCal export data.
type ExportICalResult struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportToICal renders the slots of day as events on the calendar date of
// date, interpreted in loc. Overnight slots end on the following date.
func ExportToICal(day models.DaySchedule, date time.Time, loc *time.Location) *ExportICalResult {
	if loc == nil {
		loc = time.UTC
	}
	date = date.In(loc)
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

	var buf bytes.Buffer
	buf.WriteString("BEGIN:VCALENDAR\r\n")
	buf.WriteString("VERSION:2.0\r\n")
	buf.WriteString("PRODID:-//pirwatch//Sensor Schedule//EN\r\n")
	buf.WriteString(fmt.Sprintf("X-WR-CALNAME:%s PIR Schedule\r\n", escapeICalText(day.Day)))
	buf.WriteString("CALSCALE:GREGORIAN\r\n")
	buf.WriteString("METHOD:PUBLISH\r\n")

	stamp := formatICalTime(time.Now())
	for i, slot := range day.Slots {
		start := midnight.Add(time.Duration(slot.Start) * time.Minute)
		end := midnight.Add(time.Duration(slot.End) * time.Minute)
		if slot.Overnight() {
			end = end.AddDate(0, 0, 1)
		}
		uid := uuid.NewSHA1(icalNamespace, []byte(fmt.Sprintf("%s|%d|%s|%s", midnight.Format("2006-01-02"), i, slot.Location, slot.Description())))

		buf.WriteString("BEGIN:VEVENT\r\n")
		buf.WriteString(fmt.Sprintf("UID:%s@pirwatch\r\n", uid))
		buf.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp))
		buf.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICalTime(start)))
		buf.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICalTime(end)))
		buf.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICalText(slot.Location)))
		if slot.DeviceRef != "" {
			buf.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICalText(slot.DeviceRef+" ("+slot.Description()+")")))
		}
		buf.WriteString("END:VEVENT\r\n")
	}

	buf.WriteString("END:VCALENDAR\r\n")

	return &ExportICalResult{
		Data:        buf.Bytes(),
		Filename:    fmt.Sprintf("pir-schedule-%s-%s.ics", strings.ToLower(day.Day), midnight.Format("2006-01-02")),
		ContentType: "text/calendar; charset=utf-8",
	}
}

func formatICalTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func escapeICalText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
