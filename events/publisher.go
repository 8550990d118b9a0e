// Package events publishes booking lifecycle events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSPublisher publishes JSON payloads on NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string, log *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("trainagenda"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc, log: log}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := Encode(payload)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	p.log.Debug("published event", zap.String("subject", subject))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.log.Warn("nats drain", zap.Error(err))
	}
}

// Encode is the wire encoding of every event payload.
func Encode(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Nop drops every event. It is used when NATS_URL is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
