package gateway

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/timer/events"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// RelayConfig holds NATS connection settings for the event relay.
type RelayConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultRelayConfig returns default relay configuration.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		URL:           nats.DefaultURL,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// EventRelay subscribes to room timer channels on NATS and forwards event
// frames to the connection manager. Subscriptions are demand-driven: a room's
// channel is subscribed while it has at least one WebSocket connection and
// dropped when the last one leaves.
type EventRelay struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	config            RelayConfig

	mu   sync.Mutex
	subs map[uuid.UUID]*nats.Subscription
}

// NewEventRelay connects to NATS and wires itself to the connection manager's
// room-count callback.
func NewEventRelay(cm *ConnectionManager, config RelayConfig) (*EventRelay, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
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

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	relay := &EventRelay{
		connectionManager: cm,
		nc:                nc,
		config:            config,
		subs:              make(map[uuid.UUID]*nats.Subscription),
	}
	cm.OnRoomCount(relay.handleRoomCount)

	return relay, nil
}

func (er *EventRelay) handleRoomCount(roomID uuid.UUID, count int) {
	if count > 0 {
		if err := er.subscribeRoom(roomID); err != nil {
			log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to subscribe room channel")
		}
		return
	}
	er.unsubscribeRoom(roomID)
}

func (er *EventRelay) subscribeRoom(roomID uuid.UUID) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	if _, ok := er.subs[roomID]; ok {
		return nil
	}

	channel := events.Channel(roomID.String())
	sub, err := er.nc.Subscribe(channel, func(msg *nats.Msg) {
		// The envelope is relayed verbatim; clients dispatch on its event name.
		er.connectionManager.BroadcastToRoom(roomID, msg.Data)

		log.Debug().
			Str("subject", msg.Subject).
			Str("event", msg.Header.Get("Event-Type")).
			Str("room_id", roomID.String()).
			Msg("relayed timer event")
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	er.subs[roomID] = sub
	log.Info().Str("channel", channel).Msg("subscribed to room timer channel")
	return nil
}

func (er *EventRelay) unsubscribeRoom(roomID uuid.UUID) {
	er.mu.Lock()
	defer er.mu.Unlock()

	sub, ok := er.subs[roomID]
	if !ok {
		return
	}
	if err := sub.Unsubscribe(); err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to unsubscribe room channel")
	}
	delete(er.subs, roomID)
	log.Info().Str("room_id", roomID.String()).Msg("unsubscribed from room timer channel")
}

// Stop gracefully shuts down the relay.
func (er *EventRelay) Stop() error {
	log.Info().Msg("stopping event relay")

	if er.nc != nil {
		er.nc.Close()
	}
	return nil
}
