/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL     string
	Token   string
	Subject string
	// Connection options
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Subject:       "pirwatch.reports",
		MaxReconnects: -1, // Unlimited
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// natsMessage is the JSON envelope published for each report.
type natsMessage struct {
	EventType string    `json:"event_type"`
	Report    *Report   `json:"report"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
	MessageID string    `json:"message_id"`
}

func marshalNATSMessage(r *Report, nodeID string) ([]byte, error) {
	return json.Marshal(natsMessage{
		EventType: "report.generated",
		Report:    r,
		Timestamp: r.GeneratedAt,
		NodeID:    nodeID,
		MessageID: uuid.NewString(),
	})
}

// NATSSink publishes the report summary and rows as JSON on a subject.
type NATSSink struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	nodeID  string
	logger  zerolog.Logger
}

// NewNATSSink connects to NATS. The connection keeps retrying in the
// background when the server is not reachable yet.
func NewNATSSink(cfg NATSConfig, logger zerolog.Logger) (*NATSSink, error) {
	if cfg.URL == "" {
		return nil, errors.New("NATS URL not configured")
	}
	def := DefaultNATSConfig()
	if cfg.Subject == "" {
		cfg.Subject = def.Subject
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = def.ReconnectWait
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	logger = logger.With().Str("component", "report_nats").Logger()

	opts := []nats.Option{
		nats.Name("pirwatch"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSSink{
		conn:    conn,
		subject: cfg.Subject,
		timeout: cfg.Timeout,
		nodeID:  nodeID(),
		logger:  logger,
	}, nil
}

func nodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "pirwatch"
	}
	return host + "-" + uuid.NewString()[:8]
}

// Name implements Sink.
func (s *NATSSink) Name() string { return "nats" }

// Deliver implements Sink.
func (s *NATSSink) Deliver(ctx context.Context, r *Report) error {
	data, err := marshalNATSMessage(r, s.nodeID)
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Err: fmt.Errorf("marshal report: %w", err)}
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		return &DeliveryError{Sink: s.Name(), Err: fmt.Errorf("publish to %s: %w", s.subject, err)}
	}

	flushCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.conn.FlushWithContext(flushCtx); err != nil {
		return &DeliveryError{Sink: s.Name(), Err: fmt.Errorf("flush: %w", err)}
	}

	s.logger.Debug().Str("subject", s.subject).Str("report_id", r.ID.String()).Msg("report published")
	return nil
}

// Verify checks the server round trip.
func (s *NATSSink) Verify(ctx context.Context) error {
	flushCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.conn.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("NATS %s: %w", s.conn.Status(), err)
	}
	return nil
}

// Close drains and closes the connection.
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
