/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/pirwatch/internal/models"
)

// YAMLSource reads a whole week from a single YAML document:
//
//	days:
//	  Monday:
//	    - device: Charli PIR Room
//	      start: "10:00 PM"
//	      end: "6:00 AM"
//
// The file is re-read on every call so edits apply at the next day rollover.
type YAMLSource struct {
	Path string
}

type yamlWeek struct {
	Days map[string][]models.SlotRecord `yaml:"days"`
}

// NewYAMLSource creates a YAML schedule source for path.
func NewYAMLSource(path string) *YAMLSource {
	return &YAMLSource{Path: path}
}

// ReadDaySchedule implements Source.
func (s *YAMLSource) ReadDaySchedule(ctx context.Context, day string) ([]models.SlotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		kind := KindParse
		if errors.Is(err, os.ErrNotExist) {
			kind = KindNotFound
		}
		return nil, &LoadError{Kind: kind, Day: day, Path: s.Path, Err: err}
	}

	var week yamlWeek
	if err := yaml.Unmarshal(data, &week); err != nil {
		return nil, &LoadError{Kind: KindParse, Day: day, Path: s.Path, Err: err}
	}

	for name, entries := range week.Days {
		if !strings.EqualFold(name, day) {
			continue
		}
		rows := make([]models.SlotRecord, 0, len(entries))
		for i, entry := range entries {
			if strings.TrimSpace(entry.DeviceRef) == "" && strings.TrimSpace(entry.Location) == "" {
				return nil, &LoadError{Kind: KindParse, Day: day, Path: s.Path, Err: fmt.Errorf("entry %d has neither device nor location", i+1)}
			}
			if entry.Location == "" {
				entry.Location = LocationFromDevice(entry.DeviceRef)
			}
			entry.Line = i + 1
			rows = append(rows, entry)
		}
		return rows, nil
	}

	return nil, &LoadError{Kind: KindNotFound, Day: day, Path: s.Path, Err: fmt.Errorf("no entries for %s", day)}
}
