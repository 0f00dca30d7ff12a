package waitlist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	consumerName          = "waitlist-promoter"
	consumerMaxDeliver    = 5
	consumerAckWait       = 30 * time.Second
	consumerMaxAckPending = 64
	eventChannelBuffer    = 128
)

// Consumer subscribes to the game event stream and drives waitlist
// promotion off SlotFreed events. Promotion is idempotent, so redelivered
// events are harmless: an in-flight offer absorbs them.
type Consumer struct {
	app      *App
	js       jetstream.JetStream
	stream   string
	prefix   string
	consumer jetstream.Consumer
}

// NewConsumer creates a consumer bound to the given JetStream context.
// The subject prefix must match the publisher's.
func NewConsumer(app *App, js jetstream.JetStream, stream, subjectPrefix string) *Consumer {
	return &Consumer{
		app:    app,
		js:     js,
		stream: stream,
		prefix: subjectPrefix,
	}
}

func (c *Consumer) filterSubject() string {
	return fmt.Sprintf("%s.%s", c.prefix, events.TypeSlotFreed)
}

// EnsureConsumer creates or looks up the durable JetStream consumer
func (c *Consumer) EnsureConsumer(ctx context.Context) error {
	stream, err := c.js.Stream(ctx, c.stream)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	cfg := jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		Description:   "Waitlist promotion consumer for freed slots",
		FilterSubject: c.filterSubject(),
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    consumerMaxDeliver,
		AckWait:       consumerAckWait,
		MaxAckPending: consumerMaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}

	consumer, err := stream.Consumer(ctx, consumerName)
	if err != nil {
		consumer, err = stream.CreateConsumer(ctx, cfg)
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().Msg("created JetStream consumer for waitlist")
	} else {
		log.Info().Msg("using existing JetStream consumer for waitlist")
	}

	c.consumer = consumer
	return nil
}

// Run consumes SlotFreed events until ctx is cancelled
func (c *Consumer) Run(ctx context.Context) error {
	eventCh := make(chan jetstream.Msg, eventChannelBuffer)

	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case eventCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start JetStream consumer: %w", err)
	}
	defer consumeCtx.Stop()

	log.Info().Str("stream", c.stream).Msg("waitlist consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("waitlist consumer shutting down")
			return nil
		case msg := <-eventCh:
			if err := c.processEvent(ctx, msg); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process slot freed event")
				msg.Nak()
			} else {
				msg.Ack()
			}
		}
	}
}

func (c *Consumer) processEvent(ctx context.Context, msg jetstream.Msg) error {
	var env events.Envelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.EventType != events.TypeSlotFreed {
		return nil
	}

	var payload events.SlotFreedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal SlotFreed payload: %w", err)
	}

	log.Debug().
		Str("game_id", payload.GameID).
		Str("position", payload.Position).
		Msg("processing slot freed event")

	return c.app.HandleSlotFreed(ctx, payload)
}
