// Package natsbus publishes timer events to NATS core subjects.
package natsbus

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/emom-timer/internal/events"
	"github.com/sweeney/emom-timer/internal/logic"
)

// Subject prefixes. The lower-cased event type or system event name is appended.
const (
	EventsPrefix = "emom.events"
	SystemPrefix = "emom.system"
)

// Config contains connection settings.
type Config struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns settings that reconnect forever.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "emom-timer",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Drain() error
}

// Publisher implements events.Publisher on top of a NATS connection.
type Publisher struct {
	nc conn
}

// Connect dials the server. While disconnected, nats.go buffers outgoing
// messages itself and flushes them on reconnect.
func Connect(cfg Config) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("nats error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	log.Info().Str("url", cfg.URL).Msg("nats connecting")
	return &Publisher{nc: nc}, nil
}

// EventSubject returns the subject a timer event is published on.
func EventSubject(t logic.EventType) string {
	return EventsPrefix + "." + strings.ToLower(string(t))
}

// SystemSubject returns the subject a system event is published on.
func SystemSubject(event string) string {
	return SystemPrefix + "." + strings.ToLower(event)
}

// Publish sends a timer event.
func (p *Publisher) Publish(event logic.Event) error {
	data, err := events.FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	if err := p.nc.Publish(EventSubject(event.Type), data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event.
func (p *Publisher) PublishSystem(event events.SystemEvent) error {
	data, err := events.FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	if err := p.nc.Publish(SystemSubject(event.Event), data); err != nil {
		return fmt.Errorf("nats publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the server connection is up.
func (p *Publisher) IsConnected() bool {
	return p.nc.IsConnected()
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}
