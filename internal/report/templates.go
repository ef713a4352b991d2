/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package report

import (
	htmltemplate "html/template"
	"strconv"
	texttemplate "text/template"
	"time"

	"github.com/friendsincode/pirwatch/internal/models"
)

const displayNA = "N/A"

type rowView struct {
	Time     string
	Cycle    uint64
	Day      string
	Location string
	Device   string
	TimeSlot string
	Status   string
	Class    string
	Response string
	Detail   string
}

type reportView struct {
	Subject     string
	Period      string
	NextReport  string
	Summary     Summary
	Rows        []rowView
	Empty       bool
	GeneratedAt string
}

const timeLayout = "2006-01-02 15:04:05 MST"

func newView(r *Report, loc *time.Location) reportView {
	v := reportView{
		Subject:     r.Subject,
		Summary:     r.Summary,
		Empty:       r.Empty,
		GeneratedAt: r.GeneratedAt.In(loc).Format(timeLayout),
		Period:      formatPeriod(r.PeriodStart, r.PeriodEnd, loc),
		NextReport:  displayNA,
	}
	if !r.NextReport.IsZero() {
		v.NextReport = r.NextReport.In(loc).Format(timeLayout)
	}
	for _, rec := range r.Rows {
		v.Rows = append(v.Rows, newRowView(rec, loc))
	}
	return v
}

func formatPeriod(start, end time.Time, loc *time.Location) string {
	if start.IsZero() {
		return "until " + end.In(loc).Format(timeLayout)
	}
	return start.In(loc).Format(timeLayout) + " - " + end.In(loc).Format(timeLayout)
}

func newRowView(rec models.OutcomeRecord, loc *time.Location) rowView {
	row := rowView{
		Time:     rec.Timestamp.In(loc).Format("15:04:05"),
		Cycle:    rec.Cycle,
		Day:      rec.Day,
		Location: rec.LocationOr(displayNA),
		Device:   rec.DeviceOr(displayNA),
		TimeSlot: rec.TimeSlot,
		Response: displayNA,
		Detail:   rec.ErrorOr(""),
	}
	if row.TimeSlot == "" {
		row.TimeSlot = models.NoActiveSlot
	}
	if rec.ResponseCode != nil {
		row.Response = strconv.Itoa(*rec.ResponseCode)
	}
	switch rec.Status {
	case models.StatusSuccess:
		row.Status, row.Class = "Success", "success"
	case models.StatusError:
		row.Status, row.Class = "Failed", "error"
	default:
		row.Status, row.Class = "Away", "away"
		if rec.ResponseCode == nil {
			row.Response = "Skipped"
		}
	}
	return row
}

var htmlTemplate = htmltemplate.Must(htmltemplate.New("report.html").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Subject}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.header { background-color: #4CAF50; color: white; padding: 15px; border-radius: 5px; }
.summary { background-color: #f9f9f9; padding: 15px; margin: 10px 0; border-radius: 5px; }
.outcomes { width: 100%; border-collapse: collapse; margin: 10px 0; }
.outcomes th, .outcomes td { border: 1px solid #ddd; padding: 8px; text-align: left; }
.outcomes th { background-color: #f2f2f2; }
.success { color: #4CAF50; font-weight: bold; }
.error { color: #f44336; font-weight: bold; }
.away { color: #ff9800; }
.no-activity { color: #ff9800; font-style: italic; }
.footer { margin-top: 20px; padding: 10px; background-color: #e3f2fd; border-radius: 5px; }
</style>
</head>
<body>
<div class="header">
<h2>PIR Sensor Testing - Hourly Report</h2>
<p>Report Period: {{.Period}}</p>
</div>
<div class="summary">
<h3>Summary</h3>
<p><strong>Total Cycles:</strong> {{.Summary.Total}}</p>
<p><strong>Successful:</strong> <span class="success">{{.Summary.Success}}</span></p>
<p><strong>Failed:</strong> <span class="error">{{.Summary.Error}}</span></p>
<p><strong>Away:</strong> <span class="away">{{.Summary.Away}}</span></p>
<p><strong>Success Rate:</strong> {{printf "%.1f" .Summary.SuccessRate}}%</p>
</div>
{{- if .Empty}}
<p class="no-activity">No activity in this period: no cycles were recorded.</p>
{{- else}}
<h3>Details</h3>
<table class="outcomes">
<tr><th>Time</th><th>Cycle #</th><th>Day</th><th>Location</th><th>Device</th><th>Time Slot</th><th>Status</th><th>Response</th><th>Error</th></tr>
{{- range .Rows}}
<tr><td>{{.Time}}</td><td>{{.Cycle}}</td><td>{{.Day}}</td><td>{{.Location}}</td><td>{{.Device}}</td><td>{{.TimeSlot}}</td><td class="{{.Class}}">{{.Status}}</td><td>{{.Response}}</td><td>{{.Detail}}</td></tr>
{{- end}}
</table>
{{- end}}
<div class="footer">
<p><strong>Generated:</strong> {{.GeneratedAt}}</p>
<p><strong>Next Report:</strong> {{.NextReport}}</p>
</div>
</body>
</html>
`))

var textTemplate = texttemplate.Must(texttemplate.New("report.txt").Parse(`{{.Subject}}
Report Period: {{.Period}}

Total Cycles: {{.Summary.Total}}
Successful:   {{.Summary.Success}}
Failed:       {{.Summary.Error}}
Away:         {{.Summary.Away}}
Success Rate: {{printf "%.1f" .Summary.SuccessRate}}%
{{if .Empty}}
No activity in this period: no cycles were recorded.
{{else}}
{{range .Rows}}{{.Time}}  #{{.Cycle}}  {{.Day}}  {{.Location}}  {{.Device}}  {{.TimeSlot}}  {{.Status}}  {{.Response}}{{if .Detail}}  {{.Detail}}{{end}}
{{end}}{{end}}
Next Report: {{.NextReport}}
`))
