package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds the connection settings shared by the fan-out publisher
// and consumer.
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g. "timer.events"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default fan-out configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "timer.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

func connectNATS(cfg NATSConfig) (*nats.Conn, error) {
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
	return nc, nil
}

// NATSPublisher publishes timer results so that other gateway instances can
// broadcast them to their own clients. Results are ephemeral notifications,
// so plain core NATS is used; there is no replay.
type NATSPublisher struct {
	nc       *nats.Conn
	config   NATSConfig
	originID string
}

// NewNATSPublisher connects to NATS and returns a publisher stamped with this
// instance's origin ID.
func NewNATSPublisher(cfg NATSConfig, originID string) (*NATSPublisher, error) {
	nc, err := connectNATS(cfg)
	if err != nil {
		return nil, err
	}

	return &NATSPublisher{nc: nc, config: cfg, originID: originID}, nil
}

// PublishTimer publishes a timer result on the event's subject.
func (p *NATSPublisher) PublishTimer(event string, payload TimerPayload) error {
	remote := RemoteTimerEvent{
		OriginID:    p.originID,
		Event:       event,
		Data:        payload,
		PublishedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(remote)
	if err != nil {
		return fmt.Errorf("marshal timer event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.config.SubjectPrefix, event)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish timer event: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event", event).
		Msg("timer result published")
	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
