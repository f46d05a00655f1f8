package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// JetStreamConfig configures the optional NATS-backed Event Bus, so
// multiple chat-layer processes can subscribe to the same task's event
// stream.
type JetStreamConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxAge        time.Duration
}

// DefaultJetStreamConfig returns production-ready defaults.
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:           nats.DefaultURL,
		StreamName:    "SUPPLY_EVENTS",
		SubjectPrefix: "supply.events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		MaxAge:        7 * 24 * time.Hour,
	}
}

// NATSBus publishes every emitted Event to a JetStream stream on the
// subject "<prefix>.<event type>"; the task ID travels in the Task-Id
// header and the JSON payload, not in the subject. Publish
// failures are logged, never returned; Emit has no error return, per the
// Bus contract.
type NATSBus struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

// NewNATSBus connects to NATS and ensures the backing stream exists.
func NewNATSBus(config JetStreamConfig) (*NATSBus, error) {
	nc, err := nats.Connect(config.URL,
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("nats error")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("events: create jetstream context: %w", err)
	}

	b := &NATSBus{nc: nc, js: js, config: config}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return b, nil
}

func (b *NATSBus) ensureStream(ctx context.Context) error {
	streamConfig := jetstream.StreamConfig{
		Name:        b.config.StreamName,
		Description: "supply orchestration event stream",
		Subjects:    []string{b.config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      b.config.MaxAge,
		Storage:     jetstream.FileStorage,
	}
	if _, err := b.js.Stream(ctx, b.config.StreamName); err != nil {
		if _, err := b.js.CreateStream(ctx, streamConfig); err != nil {
			return fmt.Errorf("events: ensure stream: %w", err)
		}
	}
	return nil
}

// Emit implements Bus. It publishes best-effort: errors are logged, never
// surfaced to the caller, so a NATS outage never stalls the state machine.
func (b *NATSBus) Emit(e Event) {
	subject := fmt.Sprintf("%s.%s", b.config.SubjectPrefix, e.Type)
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("task_id", e.TaskID).Msg("marshal event for nats publish")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = b.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    payload,
		Header: nats.Header{
			"Task-Id":    []string{e.TaskID},
			"Event-Type": []string{string(e.Type)},
		},
	}, jetstream.WithExpectStream(b.config.StreamName))
	if err != nil {
		log.Error().Err(err).Str("task_id", e.TaskID).Str("event_type", string(e.Type)).Msg("publish event to nats")
	}
}

// Close disconnects from NATS.
func (b *NATSBus) Close() {
	if b != nil && b.nc != nil {
		b.nc.Close()
	}
}
