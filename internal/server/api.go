/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/pirwatch/internal/config"
	"github.com/friendsincode/pirwatch/internal/events"
	"github.com/friendsincode/pirwatch/internal/logbuffer"
	"github.com/friendsincode/pirwatch/internal/models"
	"github.com/friendsincode/pirwatch/internal/outcomes"
	"github.com/friendsincode/pirwatch/internal/report"
	"github.com/friendsincode/pirwatch/internal/schedule"
	"github.com/friendsincode/pirwatch/internal/scheduler"
	"github.com/friendsincode/pirwatch/internal/version"
)

type handlers struct {
	controller *scheduler.Controller
	store      *outcomes.Store
	reporter   *report.Reporter
	logs       *logbuffer.Buffer
	bus        *events.Bus
	location   *time.Location
	logger     zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	st := h.controller.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": st.Running,
		"cycles":  st.Cycles,
	})
}

func (h *handlers) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"controller": h.controller.Status(),
		"reporter":   h.reporter.Status(),
		"retained":   h.store.Len(),
		"retention":  h.store.Retention().String(),
		"version":    version.Version,
	})
}

type scheduleResponse struct {
	Day      string               `json:"day"`
	Loaded   bool                 `json:"loaded"`
	LoadedAt *time.Time           `json:"loaded_at,omitempty"`
	Slots    []scheduler.SlotView `json:"slots"`
	Skipped  []string             `json:"skipped"`
}

func (h *handlers) schedule(w http.ResponseWriter, r *http.Request) {
	day, skipped, ok := h.controller.Schedule()
	resp := scheduleResponse{
		Day:     day.Day,
		Loaded:  ok,
		Slots:   make([]scheduler.SlotView, 0, len(day.Slots)),
		Skipped: make([]string, 0, len(skipped)),
	}
	if ok && !day.LoadedAt.IsZero() {
		at := day.LoadedAt
		resp.LoadedAt = &at
	}
	for _, slot := range day.Slots {
		resp.Slots = append(resp.Slots, scheduler.NewSlotView(slot))
	}
	for _, err := range skipped {
		resp.Skipped = append(resp.Skipped, err.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) scheduleICal(w http.ResponseWriter, r *http.Request) {
	day, _, ok := h.controller.Schedule()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "schedule_not_loaded")
		return
	}
	res := schedule.ExportToICal(day, time.Now(), h.location)
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	_, _ = w.Write(res.Data)
}

// windowRecords returns the records selected by the optional window query
// parameter, or every retained record.
func (h *handlers) windowRecords(r *http.Request) ([]models.OutcomeRecord, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("window"))
	if raw == "" {
		return h.store.Retained(), true
	}
	d, err := config.ParseDuration(raw)
	if err != nil || d <= 0 {
		return nil, false
	}
	return h.store.Window(d), true
}

func (h *handlers) outcomes(w http.ResponseWriter, r *http.Request) {
	records, ok := h.windowRecords(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_window")
		return
	}

	status := models.Status(strings.ToLower(r.URL.Query().Get("status")))
	location := r.URL.Query().Get("location")
	filtered := make([]models.OutcomeRecord, 0, len(records))
	for _, rec := range records {
		if status != "" && rec.Status != status {
			continue
		}
		if location != "" && !strings.EqualFold(rec.LocationOr(""), location) {
			continue
		}
		filtered = append(filtered, rec)
	}

	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(filtered),
		"outcomes": filtered,
	})
}

func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	records, ok := h.windowRecords(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_window")
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(records))
}

func (h *handlers) reportPreview(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reporter.Preview()
	if err != nil {
		h.logger.Error().Err(err).Msg("render report preview failed")
		writeError(w, http.StatusInternalServerError, "render_failed")
		return
	}
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(rep.Text))
	case "json":
		writeJSON(w, http.StatusOK, rep)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(rep.HTML))
	}
}

func (h *handlers) reportSend(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.reporter.SendNow(r.Context())
	resp := map[string]any{"delivered": ok}
	if rep != nil {
		resp["id"] = rep.ID.String()
		resp["subject"] = rep.Subject
		resp["summary"] = rep.Summary
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (h *handlers) recentLogs(w http.ResponseWriter, r *http.Request) {
	if h.logs == nil {
		writeError(w, http.StatusNotFound, "log_buffer_disabled")
		return
	}
	q := r.URL.Query()
	params := logbuffer.QueryParams{
		Level:      q.Get("level"),
		Component:  q.Get("component"),
		Location:   q.Get("location"),
		Search:     q.Get("search"),
		Descending: q.Get("order") != "asc",
		Limit:      200,
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		params.Limit = limit
	}
	if since := q.Get("since"); since != "" {
		if d, err := config.ParseDuration(since); err == nil {
			params.Since = time.Now().Add(-d)
		} else if t, err := time.Parse(time.RFC3339, since); err == nil {
			params.Since = t
		} else {
			writeError(w, http.StatusBadRequest, "invalid_since")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": h.logs.Query(params),
		"stats":   h.logs.Stats(),
	})
}
