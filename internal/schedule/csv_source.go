/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/friendsincode/pirwatch/internal/models"
)

// CSVSource reads one "<Day>.csv" file per weekday from Dir.
//
// The first line is a header. Each following row is
//
//	Device Name,Start - End[,Location]
//
// Blank rows and rows holding a single "." are ignored. Without the optional
// third column the location is the last word of the device name.
type CSVSource struct {
	Dir string
}

// NewCSVSource creates a CSV schedule source rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

// Path returns the file consulted for day.
func (s *CSVSource) Path(day string) string {
	return filepath.Join(s.Dir, day+".csv")
}

// ReadDaySchedule implements Source.
func (s *CSVSource) ReadDaySchedule(ctx context.Context, day string) ([]models.SlotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(day)
	f, err := os.Open(path)
	if err != nil {
		kind := KindParse
		if errors.Is(err, os.ErrNotExist) {
			kind = KindNotFound
		}
		return nil, &LoadError{Kind: kind, Day: day, Path: path, Err: err}
	}
	defer f.Close()

	rows, err := parseCSV(f)
	if err != nil {
		return nil, &LoadError{Kind: KindParse, Day: day, Path: path, Err: err}
	}
	return rows, nil
}

func parseCSV(r io.Reader) ([]models.SlotRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []models.SlotRecord
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}

		line, _ := reader.FieldPos(0)
		device := strings.TrimSpace(record[0])
		if len(record) == 1 && (device == "" || device == ".") {
			continue
		}
		if device == "" {
			return nil, fmt.Errorf("line %d: missing device name", line)
		}
		if len(record) < 2 || strings.TrimSpace(record[1]) == "" {
			return nil, fmt.Errorf("line %d: missing time range for %q", line, device)
		}

		start, end, ok := strings.Cut(record[1], "-")
		if !ok {
			return nil, fmt.Errorf("line %d: time range %q has no '-' separator", line, record[1])
		}

		location := LocationFromDevice(device)
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			location = strings.TrimSpace(record[2])
		}

		rows = append(rows, models.SlotRecord{
			Location:  location,
			StartTime: strings.TrimSpace(start),
			EndTime:   strings.TrimSpace(end),
			DeviceRef: device,
			Line:      line,
		})
	}
	return rows, nil
}
