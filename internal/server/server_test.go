/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/pirwatch/internal/config"
	"github.com/friendsincode/pirwatch/internal/events"
	"github.com/friendsincode/pirwatch/internal/logbuffer"
	"github.com/friendsincode/pirwatch/internal/schedule"
)

type testEnv struct {
	srv      *Server
	triggers *atomic.Int32
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	var hits atomic.Int32
	sensor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(sensor.Close)

	dir := t.TempDir()
	today := schedule.DayName(time.Now().UTC())
	csv := "Device,Time\nCharli PIR Kitchen,00:00 - 23:59\nBroken Row,25:00 - 26:00\n"
	if err := os.WriteFile(filepath.Join(dir, today+".csv"), []byte(csv), 0o600); err != nil {
		t.Fatalf("write schedule: %v", err)
	}

	cfg := &config.Config{
		Environment:           "test",
		HTTPBind:              "127.0.0.1",
		HTTPPort:              0,
		Timezone:              "UTC",
		Location:              time.UTC,
		ScheduleFormat:        config.ScheduleCSV,
		ScheduleDir:           dir,
		PollInterval:          time.Hour,
		ErrorBackoff:          time.Second,
		ShutdownGrace:         time.Second,
		ReportWindow:          time.Hour,
		ReportInterval:        time.Hour,
		ReportInitialDelay:    time.Hour,
		Retention:             24 * time.Hour,
		TriggerURL:            sensor.URL,
		TriggerSerialTemplate: "Charli PIR {{.Location}}",
		TriggerSensors:        "motion",
		TriggerTimeout:        5 * time.Second,
	}

	srv, err := New(cfg, logbuffer.New(100), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	deadline := time.Now().Add(3 * time.Second)
	for srv.store.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first cycle did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return &testEnv{srv: srv, triggers: &hits}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestServerRunsFirstCycleImmediately(t *testing.T) {
	env := newTestServer(t)

	if env.triggers.Load() != 1 {
		t.Fatalf("sensor endpoint hit %d times, want 1", env.triggers.Load())
	}

	rr := env.get(t, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rr.Code)
	}
	var health map[string]any
	decode(t, rr, &health)
	if health["status"] != "ok" {
		t.Fatalf("healthz = %v", health)
	}
}

func TestOutcomesEndpoint(t *testing.T) {
	env := newTestServer(t)

	rr := env.get(t, "/api/v1/outcomes?window=1h")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Count    int `json:"count"`
		Outcomes []struct {
			Cycle    uint64  `json:"cycle"`
			Status   string  `json:"status"`
			Location *string `json:"location"`
		} `json:"outcomes"`
	}
	decode(t, rr, &body)
	if body.Count != 1 || body.Outcomes[0].Status != "success" || body.Outcomes[0].Location == nil || *body.Outcomes[0].Location != "Kitchen" {
		t.Fatalf("outcomes = %+v", body)
	}

	if rr := env.get(t, "/api/v1/outcomes?status=error"); !strings.Contains(rr.Body.String(), `"count":0`) {
		t.Fatalf("filtered outcomes = %s", rr.Body.String())
	}
	if rr := env.get(t, "/api/v1/outcomes?window=never"); rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid window status = %d", rr.Code)
	}
}

func TestScheduleEndpointListsSkippedRows(t *testing.T) {
	env := newTestServer(t)

	var body scheduleResponse
	decode(t, env.get(t, "/api/v1/schedule"), &body)
	if !body.Loaded || len(body.Slots) != 1 || body.Slots[0].Location != "Kitchen" {
		t.Fatalf("schedule = %+v", body)
	}
	if len(body.Skipped) != 1 || !strings.Contains(body.Skipped[0], "Broken Row") {
		t.Fatalf("skipped = %v", body.Skipped)
	}
}

func TestStatusAndSummaryEndpoints(t *testing.T) {
	env := newTestServer(t)

	var status struct {
		Controller struct {
			Cycles      uint64 `json:"cycles"`
			Running     bool   `json:"running"`
			CurrentSlot *struct {
				Location string `json:"location"`
			} `json:"current_slot"`
		} `json:"controller"`
		Retained int `json:"retained"`
	}
	decode(t, env.get(t, "/api/v1/status"), &status)
	if status.Controller.Cycles != 1 || status.Retained != 1 {
		t.Fatalf("status = %+v", status)
	}
	if status.Controller.CurrentSlot == nil || status.Controller.CurrentSlot.Location != "Kitchen" {
		t.Fatalf("current slot = %+v", status.Controller.CurrentSlot)
	}

	var summary struct {
		Total   int `json:"total"`
		Success int `json:"success"`
	}
	decode(t, env.get(t, "/api/v1/outcomes/summary"), &summary)
	if summary.Total != 1 || summary.Success != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestReportPreviewAndSend(t *testing.T) {
	env := newTestServer(t)

	rr := env.get(t, "/api/v1/report/preview")
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("content type = %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "Charli PIR Kitchen") {
		t.Fatal("preview does not list the recorded cycle")
	}

	text := env.get(t, "/api/v1/report/preview?format=text")
	if !strings.Contains(text.Body.String(), "Total Cycles: 1") {
		t.Fatalf("text preview = %q", text.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/report/send", nil)
	sent := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(sent, req)
	if sent.Code != http.StatusOK || !strings.Contains(sent.Body.String(), `"delivered":true`) {
		t.Fatalf("send = %d %s", sent.Code, sent.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestServer(t)
	rr := env.get(t, "/metrics")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "pirwatch_cycles_total") {
		t.Fatalf("metrics = %d", rr.Code)
	}
}

func TestNewFailsOnBadTriggerURL(t *testing.T) {
	cfg := &config.Config{
		Location:       time.UTC,
		ScheduleFormat: config.ScheduleCSV,
		ScheduleDir:    t.TempDir(),
		Retention:      time.Hour,
		TriggerURL:     "not a url",
	}
	if _, err := New(cfg, nil, zerolog.Nop()); err == nil {
		t.Fatal("expected error for invalid trigger URL")
	}
}

func TestEventStreamDeliversReportEvents(t *testing.T) {
	env := newTestServer(t)

	ts := httptest.NewServer(env.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	for env.srv.bus.Subscribers(events.EventReportSent) == 0 {
		if ctx.Err() != nil {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	send, err := http.Post(ts.URL+"/api/v1/report/send", "application/json", nil)
	if err != nil {
		t.Fatalf("send report: %v", err)
	}
	send.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if scanner.Text() == "event: report.sent" {
			return
		}
	}
	t.Fatalf("report.sent event not received: %v", scanner.Err())
}

func TestScheduleICalExport(t *testing.T) {
	env := newTestServer(t)

	rr := env.get(t, "/api/v1/schedule.ics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/calendar") {
		t.Fatalf("content type = %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "SUMMARY:Kitchen") {
		t.Fatalf("calendar = %q", rr.Body.String())
	}
}

func TestLogsEndpoint(t *testing.T) {
	env := newTestServer(t)
	env.srv.LogBuffer().Add(logbuffer.LogEntry{
		Timestamp: time.Now(),
		Level:     "warn",
		Component: "controller",
		Message:   "cycle complete",
	})

	rr := env.get(t, "/api/v1/logs?level=warn&component=controller")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Entries []struct {
			Message string `json:"message"`
		} `json:"entries"`
	}
	decode(t, rr, &body)
	if len(body.Entries) != 1 || body.Entries[0].Message != "cycle complete" {
		t.Fatalf("entries = %+v", body.Entries)
	}

	if rr := env.get(t, "/api/v1/logs?since=yesterday-ish"); rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid since status = %d", rr.Code)
	}
}
