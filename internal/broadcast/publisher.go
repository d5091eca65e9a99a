// Package broadcast publishes timer events to room channels over NATS.
// Publishing is fire-and-forget: core NATS preserves per-subject ordering from
// a single connection, which is all the delivery guarantee the timer needs.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Envelope wraps every published event so subscribers can dispatch on the
// event name without knowing the payload shape.
type Envelope struct {
	EventID   string    `json:"eventId"`
	Event     string    `json:"event"`
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NATSPublisher publishes timer events to NATS subjects named after the room
// channel (room-{roomId}-timer).
type NATSPublisher struct {
	nc     *nats.Conn
	config Config
}

func NewNATSPublisher(cfg Config) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, config: cfg}, nil
}

// Publish sends one event to the channel subject. The channel doubles as the
// NATS subject, so subscribers address a room's timer stream directly.
func (p *NATSPublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := Envelope{
		EventID:   uuid.New().String(),
		Event:     event,
		Channel:   channel,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.nc.PublishMsg(&nats.Msg{
		Subject: channel,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{event},
			"Event-ID":   []string{env.EventID},
		},
	}); err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}

	log.Debug().
		Str("subject", channel).
		Str("event", event).
		Str("event_id", env.EventID).
		Msg("published timer event")
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
