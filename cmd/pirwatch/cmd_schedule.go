/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/pirwatch/internal/schedule"
)

var scheduleDay string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the parsed schedule for a weekday",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleDay, "day", "", "Weekday to print; defaults to today")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	day := schedule.DayName(time.Now().In(cfg.Location))
	if scheduleDay != "" {
		var err error
		if day, err = normalizeDay(scheduleDay); err != nil {
			return err
		}
	}

	sched, skipped, err := loadSchedule(cmd.Context(), day)
	if err != nil {
		return err
	}

	fmt.Printf("%s schedule (%s)\n\n", day, cfg.Timezone)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLOCATION\tSLOT\tOVERNIGHT\tDEVICE")
	for i, slot := range sched.Slots {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", i+1, slot.Location, slot.Description(), slot.Overnight(), slot.DeviceRef)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(skipped) > 0 {
		fmt.Printf("\n%d row(s) skipped:\n", len(skipped))
		for _, e := range skipped {
			fmt.Printf("  - %v\n", e)
		}
	}
	return nil
}
