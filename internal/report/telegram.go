/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramConfig configures chat delivery of report summaries.
type TelegramConfig struct {
	Token       string
	ChatID      int64
	APIEndpoint string // optional, tgbotapi.APIEndpoint format
	MaxElapsed  time.Duration
}

// Enabled reports whether a bot token and chat are configured.
func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

// TelegramSink posts the report summary to a chat.
type TelegramSink struct {
	cfg    TelegramConfig
	logger zerolog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegramSink creates a Telegram sink. The bot is authorised on first use.
func NewTelegramSink(cfg TelegramConfig, logger zerolog.Logger) (*TelegramSink, error) {
	if !cfg.Enabled() {
		return nil, errors.New("telegram not configured")
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = time.Minute
	}
	return &TelegramSink{cfg: cfg, logger: logger.With().Str("component", "report_telegram").Logger()}, nil
}

// Name implements Sink.
func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) client() (*tgbotapi.BotAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bot != nil {
		return s.bot, nil
	}

	var (
		bot *tgbotapi.BotAPI
		err error
	)
	if s.cfg.APIEndpoint != "" {
		bot, err = tgbotapi.NewBotAPIWithAPIEndpoint(s.cfg.Token, s.cfg.APIEndpoint)
	} else {
		bot, err = tgbotapi.NewBotAPI(s.cfg.Token)
	}
	if err != nil {
		return nil, fmt.Errorf("authorise telegram bot: %w", err)
	}
	s.logger.Info().Str("bot", bot.Self.UserName).Msg("telegram bot authorised")
	s.bot = bot
	return bot, nil
}

// Verify authorises the bot.
func (s *TelegramSink) Verify(_ context.Context) error {
	_, err := s.client()
	return err
}

// Deliver implements Sink.
func (s *TelegramSink) Deliver(ctx context.Context, r *Report) error {
	operation := func() error {
		bot, err := s.client()
		if err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(s.cfg.ChatID, r.ShortSummary())
		msg.DisableWebPagePreview = true
		if _, err := bot.Send(msg); err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = s.cfg.MaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return &DeliveryError{Sink: s.Name(), Err: err}
	}

	s.logger.Info().Int64("chat_id", s.cfg.ChatID).Str("report_id", r.ID.String()).Msg("report sent to telegram")
	return nil
}
