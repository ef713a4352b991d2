/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/pirwatch/internal/models"
	"github.com/friendsincode/pirwatch/internal/schedule"
	"github.com/friendsincode/pirwatch/internal/server"
)

var (
	checkAt  string
	checkDay string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show which sensor would fire right now, without firing it",
	Long: `Resolve the active schedule slot for a moment in time and print it.

No trigger request is sent. Useful for validating a schedule file before
deploying it.

Examples:
  # What is active right now
  pirwatch check

  # What would be active at 23:30 on a Sunday
  pirwatch check --day Sunday --at 23:30
`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkAt, "at", "", "Time of day to check (HH:MM or HH:MM AM/PM); defaults to now")
	checkCmd.Flags().StringVar(&checkDay, "day", "", "Weekday to check; defaults to today")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	now := time.Now().In(cfg.Location)
	day := schedule.DayName(now)
	if checkDay != "" {
		var err error
		if day, err = normalizeDay(checkDay); err != nil {
			return err
		}
	}
	minute := schedule.MinuteOf(now)
	if checkAt != "" {
		m, err := schedule.ParseClock(checkAt)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		minute = m
	}

	sched, skipped, err := loadSchedule(cmd.Context(), day)
	if err != nil {
		return err
	}

	fmt.Printf("Day:       %s\n", day)
	fmt.Printf("Time:      %s (%s)\n", minute, cfg.Timezone)
	fmt.Printf("Slots:     %d (%d rows skipped)\n", len(sched.Slots), len(skipped))

	if slot, ok := schedule.ResolveActiveSlot(sched, minute); ok {
		fmt.Printf("Active:    %s  %s  [%s]\n", slot.Location, slot.Description(), slot.DeviceRef)
	} else {
		fmt.Printf("Active:    none (%s)\n", models.NoActiveSlot)
	}
	if next, ok := schedule.NextChange(sched, minute); ok {
		fmt.Printf("Next:      %s at %s\n", next.Location, next.StartText)
	}
	return nil
}

func loadSchedule(ctx context.Context, day string) (models.DaySchedule, []error, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := server.BuildSource(cfg).ReadDaySchedule(ctx, day)
	if err != nil {
		return models.DaySchedule{}, nil, fmt.Errorf("load %s schedule: %w", day, err)
	}
	sched, skipped := schedule.Build(day, rows, time.Now().In(cfg.Location))
	return sched, skipped, nil
}

func normalizeDay(raw string) (string, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(raw)) {
			return d.String(), nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", raw)
}
