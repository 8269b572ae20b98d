package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// EventConsumer subscribes to timer results published by other gateway
// instances and re-broadcasts them to the local WebSocket clients.
type EventConsumer struct {
	dispatch Dispatcher
	nc       *nats.Conn
	sub      *nats.Subscription
	config   NATSConfig
	originID string
}

// NewEventConsumer connects to NATS and returns a consumer for this instance.
func NewEventConsumer(dispatch Dispatcher, cfg NATSConfig, originID string) (*EventConsumer, error) {
	nc, err := connectNATS(cfg)
	if err != nil {
		return nil, err
	}

	return &EventConsumer{
		dispatch: dispatch,
		nc:       nc,
		config:   cfg,
		originID: originID,
	}, nil
}

// Start subscribes to the timer events subject tree.
func (ec *EventConsumer) Start() error {
	subject := fmt.Sprintf("%s.>", ec.config.SubjectPrefix)

	sub, err := ec.nc.Subscribe(subject, func(msg *nats.Msg) {
		ec.handleRemoteEvent(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	ec.sub = sub

	log.Info().
		Str("subject", subject).
		Str("origin_id", ec.originID).
		Msg("timer event consumer started")
	return nil
}

// handleRemoteEvent broadcasts one remote timer result to local connections.
// Events published by this instance are skipped; the local dispatch already
// delivered them.
func (ec *EventConsumer) handleRemoteEvent(data []byte) {
	var remote RemoteTimerEvent
	if err := json.Unmarshal(data, &remote); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal remote timer event")
		return
	}

	if remote.OriginID == ec.originID {
		return
	}

	payload := remote.Data
	ec.dispatch.Broadcast(&ServerMessage{
		Type:  MessageTypeTimer,
		Event: remote.Event,
		Data:  &payload,
	})

	log.Debug().
		Str("event", remote.Event).
		Str("origin_id", remote.OriginID).
		Msg("remote timer result broadcasted")
}

// Close unsubscribes and closes the NATS connection.
func (ec *EventConsumer) Close() {
	if ec.sub != nil {
		_ = ec.sub.Unsubscribe()
	}
	if ec.nc != nil {
		ec.nc.Close()
	}
}
