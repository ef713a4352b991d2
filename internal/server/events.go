/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/friendsincode/pirwatch/internal/events"
	"github.com/friendsincode/pirwatch/internal/models"
	"github.com/friendsincode/pirwatch/internal/outcomes"
	"github.com/friendsincode/pirwatch/internal/report"
)

// publishingRecorder stores each outcome and announces it on the bus.
type publishingRecorder struct {
	store *outcomes.Store
	bus   *events.Bus
}

func (p *publishingRecorder) Append(rec models.OutcomeRecord) {
	p.store.Append(rec)
	p.bus.Publish(events.EventCycleCompleted, events.Payload{"outcome": rec})
}

// publishReport announces a report that reached every sink.
func publishReport(bus *events.Bus) func(*report.Report) {
	return func(r *report.Report) {
		bus.Publish(events.EventReportSent, events.Payload{
			"id":      r.ID.String(),
			"subject": r.Subject,
			"summary": r.Summary,
		})
	}
}

const sseKeepAlive = 25 * time.Second

// eventStream serves cycle and report events as server-sent events.
func (h *handlers) eventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}

	// The stream outlives the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	cycles := h.bus.Subscribe(events.EventCycleCompleted)
	defer h.bus.Unsubscribe(events.EventCycleCompleted, cycles)
	reports := h.bus.Subscribe(events.EventReportSent)
	defer h.bus.Unsubscribe(events.EventReportSent, reports)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case payload := <-cycles:
			if err := writeEvent(w, events.EventCycleCompleted, payload); err != nil {
				h.logger.Debug().Err(err).Msg("event stream closed")
				return
			}
			flusher.Flush()
		case payload := <-reports:
			if err := writeEvent(w, events.EventReportSent, payload); err != nil {
				h.logger.Debug().Err(err).Msg("event stream closed")
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, eventType events.EventType, payload events.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
	return err
}
