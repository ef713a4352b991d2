/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/friendsincode/pirwatch/internal/config"
	"github.com/friendsincode/pirwatch/internal/report"
	"github.com/friendsincode/pirwatch/internal/schedule"
	"github.com/friendsincode/pirwatch/internal/trigger"
	"github.com/friendsincode/pirwatch/internal/version"
)

// BuildSource returns the schedule source selected by configuration.
func BuildSource(cfg *config.Config) schedule.Source {
	if cfg.ScheduleFormat == config.ScheduleYAML {
		return schedule.NewYAMLSource(cfg.ScheduleFile)
	}
	return schedule.NewCSVSource(cfg.ScheduleDir)
}

// BuildTrigger returns the HTTP sensor trigger for every known location.
func BuildTrigger(cfg *config.Config, logger zerolog.Logger) (*trigger.HTTPTrigger, error) {
	devices, err := trigger.NewDeviceTable(cfg.TriggerSerialTemplate, cfg.TriggerSensors)
	if err != nil {
		return nil, fmt.Errorf("build device table: %w", err)
	}
	return trigger.NewHTTPTrigger(trigger.HTTPOptions{
		Endpoint:      cfg.TriggerURL,
		Timeout:       cfg.TriggerTimeout,
		RatePerMinute: cfg.TriggerRatePerMinute,
		UserAgent:     "pirwatch/" + version.Version,
	}, devices, logger)
}

// BuildSinks combines the log sink with every configured delivery sink.
// The returned closers release sink connections.
func BuildSinks(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*report.MultiSink, []func() error, error) {
	sinks := []report.Sink{report.NewLogSink(logger)}
	var closers []func() error

	if cfg.SMTPEnabled() {
		smtpSink, err := report.NewSMTPSink(report.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			To:       cfg.ReportRecipients,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, smtpSink)
	} else {
		logger.Warn().Msg("e-mail credentials not configured - e-mail reporting disabled")
	}

	if cfg.TelegramBotToken != "" {
		tg, err := report.NewTelegramSink(report.TelegramConfig{
			Token:  cfg.TelegramBotToken,
			ChatID: cfg.TelegramChatID,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, tg)
	}

	if cfg.S3Bucket != "" {
		s3Sink, err := report.NewS3Sink(ctx, report.S3Config{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s3Sink)
	}

	if cfg.NATSURL != "" {
		natsCfg := report.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		natsCfg.Token = cfg.NATSToken
		natsCfg.Subject = cfg.NATSSubject
		natsSink, err := report.NewNATSSink(natsCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, natsSink)
		closers = append(closers, natsSink.Close)
	}

	return report.NewMultiSink(logger, sinks...), closers, nil
}
