/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/pirwatch/internal/models"
	"github.com/friendsincode/pirwatch/internal/report"
	"github.com/friendsincode/pirwatch/internal/server"
)

var (
	reportVerify bool
	reportSample bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Check report delivery settings and send a sample report",
	Long: `Exercise the configured report sinks without running the monitor.

Examples:
  # Check SMTP, Telegram and NATS connectivity
  pirwatch report --verify

  # Send a report built from sample cycle data to every sink
  pirwatch report --sample
`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportVerify, "verify", true, "Verify connectivity of every configured sink")
	reportCmd.Flags().BoolVar(&reportSample, "sample", false, "Deliver a report built from sample data")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sinks, closers, err := server.BuildSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()

	for _, s := range sinks.Sinks() {
		fmt.Printf("sink: %s\n", s.Name())
	}

	if reportVerify {
		if err := sinks.Verify(ctx); err != nil {
			return fmt.Errorf("verify sinks: %w", err)
		}
		fmt.Println("all sinks verified")
	}

	if !reportSample {
		return nil
	}

	now := time.Now().In(cfg.Location)
	rep, err := report.Render(sampleRecords(now), report.RenderOptions{
		PeriodStart: now.Add(-cfg.ReportWindow),
		PeriodEnd:   now,
		NextReport:  now.Add(cfg.ReportInterval),
		Location:    cfg.Location,
	})
	if err != nil {
		return fmt.Errorf("render sample report: %w", err)
	}
	if err := sinks.Deliver(ctx, rep); err != nil {
		return fmt.Errorf("deliver sample report: %w", err)
	}
	fmt.Printf("sample report %s delivered\n", rep.ID)
	return nil
}

// sampleRecords returns one success, one error and one away cycle.
func sampleRecords(now time.Time) []models.OutcomeRecord {
	day := now.Weekday().String()
	return []models.OutcomeRecord{
		{
			Timestamp:    now.Add(-20 * time.Minute),
			Cycle:        1,
			Day:          day,
			Location:     models.StringPtr("Kitchen"),
			Device:       models.StringPtr("Charli PIR Kitchen"),
			TimeSlot:     "7:00 AM - 8:00 AM",
			Status:       models.StatusSuccess,
			ResponseCode: models.IntPtr(200),
		},
		{
			Timestamp:    now.Add(-15 * time.Minute),
			Cycle:        2,
			Day:          day,
			Location:     models.StringPtr("Office"),
			Device:       models.StringPtr("Charli PIR Office"),
			TimeSlot:     "8:00 AM - 9:00 AM",
			Status:       models.StatusError,
			ResponseCode: models.IntPtr(503),
			ErrorDetail:  models.StringPtr("sensor endpoint returned 503"),
		},
		{
			Timestamp: now.Add(-10 * time.Minute),
			Cycle:     3,
			Day:       day,
			TimeSlot:  models.NoActiveSlot,
			Status:    models.StatusAway,
		},
	}
}
