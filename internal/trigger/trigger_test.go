/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package trigger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/pirwatch/internal/models"
)

func TestNewDeviceTableCoversEveryLocation(t *testing.T) {
	table, err := NewDeviceTable("", "")
	if err != nil {
		t.Fatalf("NewDeviceTable: %v", err)
	}
	for _, loc := range models.AllLocations() {
		d, ok := table.Lookup(loc)
		if !ok {
			t.Fatalf("no device for %s", loc)
		}
		if d.SerialNumber != "Charli PIR "+loc.String() {
			t.Errorf("serial for %s = %q", loc, d.SerialNumber)
		}
		if d.Sensors != DefaultSensors {
			t.Errorf("sensors for %s = %q", loc, d.Sensors)
		}
	}
}

func TestNewDeviceTableCustomTemplate(t *testing.T) {
	table, err := NewDeviceTable("PIR-{{.Location}}-01", "motion,lux")
	if err != nil {
		t.Fatalf("NewDeviceTable: %v", err)
	}
	d, _ := table.Lookup(models.LocationKitchen)
	if d.SerialNumber != "PIR-Kitchen-01" || d.Sensors != "motion,lux" {
		t.Fatalf("unexpected device %+v", d)
	}

	if _, err := NewDeviceTable("{{.Location", ""); err == nil {
		t.Fatal("expected template parse error")
	}
}

func newTestTrigger(t *testing.T, handler http.HandlerFunc) *HTTPTrigger {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	table, err := NewDeviceTable("", "")
	if err != nil {
		t.Fatalf("NewDeviceTable: %v", err)
	}
	trig, err := NewHTTPTrigger(HTTPOptions{Endpoint: srv.URL, Timeout: 2 * time.Second}, table, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHTTPTrigger: %v", err)
	}
	return trig
}

func TestHTTPTriggerPostsForm(t *testing.T) {
	var gotSerial, gotSensors, gotType string
	trig := newTestTrigger(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		gotType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotSerial = r.PostForm.Get("SerialNumber")
		gotSensors = r.PostForm.Get("SigfoxSensors")
		w.WriteHeader(http.StatusOK)
	})

	res, err := trig.Fire(context.Background(), models.LocationKitchen)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if !res.Succeeded || res.ResponseCode != http.StatusOK {
		t.Fatalf("unexpected result %+v", res)
	}
	if gotSerial != "Charli PIR Kitchen" || gotSensors != "motion" {
		t.Fatalf("form = serial %q sensors %q", gotSerial, gotSensors)
	}
	if !strings.HasPrefix(gotType, "application/x-www-form-urlencoded") {
		t.Fatalf("content type = %q", gotType)
	}
}

func TestHTTPTriggerRejectedStatus(t *testing.T) {
	trig := newTestTrigger(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sensor offline", http.StatusServiceUnavailable)
	})

	res, err := trig.Fire(context.Background(), models.LocationOffice)
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if res.Succeeded || res.ResponseCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected result %+v", res)
	}
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("error type = %T", err)
	}
	if terr.StatusCode != http.StatusServiceUnavailable || terr.Body != "sensor offline" {
		t.Fatalf("unexpected trigger error %+v", terr)
	}
}

func TestHTTPTriggerUnknownLocation(t *testing.T) {
	var calls atomic.Int32
	trig := newTestTrigger(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := trig.Fire(context.Background(), models.Location("Attic"))
	var unknown *UnknownLocationError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownLocationError", err)
	}
	if !strings.Contains(err.Error(), "Attic") {
		t.Fatalf("error %q does not name the location", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("endpoint called %d times", calls.Load())
	}
}

func TestHTTPTriggerTransportFailure(t *testing.T) {
	table, _ := NewDeviceTable("", "")
	trig, err := NewHTTPTrigger(HTTPOptions{Endpoint: "http://127.0.0.1:1", Timeout: time.Second}, table, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHTTPTrigger: %v", err)
	}
	res, err := trig.Fire(context.Background(), models.LocationRoom)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if res.ResponseCode != 0 || res.Succeeded {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestNewHTTPTriggerValidates(t *testing.T) {
	table, _ := NewDeviceTable("", "")
	if _, err := NewHTTPTrigger(HTTPOptions{Endpoint: "not a url"}, table, zerolog.Nop()); err == nil {
		t.Error("expected endpoint error")
	}
	if _, err := NewHTTPTrigger(HTTPOptions{Endpoint: "http://example.test"}, nil, zerolog.Nop()); err == nil {
		t.Error("expected empty table error")
	}
}

func TestFuncAdapter(t *testing.T) {
	var got models.Location
	var trig Trigger = Func(func(ctx context.Context, loc models.Location) (Result, error) {
		got = loc
		return Result{ResponseCode: 204, Succeeded: true}, nil
	})
	res, err := trig.Fire(context.Background(), models.LocationBasement)
	if err != nil || !res.Succeeded || got != models.LocationBasement {
		t.Fatalf("Func adapter: res=%+v err=%v got=%s", res, err, got)
	}
}
