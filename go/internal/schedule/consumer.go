package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/mcdev12/matchday/go/internal/games"
	"github.com/mcdev12/matchday/go/internal/gamification"
)

const (
	consumerName          = "postgame-pipeline"
	consumerMaxDeliver    = 5
	consumerAckWait       = 60 * time.Second
	consumerMaxAckPending = 16
	eventChannelBuffer    = 32
)

// Consumer drives the post-game pipeline off GameFinished events: XP
// awards first, then the next recurring occurrence. Both steps are
// idempotent (the XP claim flag, the per-date schedule check), so
// redelivered events land safely.
type Consumer struct {
	scheduler *Scheduler
	xp        *gamification.Processor
	js        jetstream.JetStream
	stream    string
	prefix    string
	consumer  jetstream.Consumer
}

// NewConsumer creates a consumer bound to the given JetStream context.
// The subject prefix must match the publisher's.
func NewConsumer(scheduler *Scheduler, xp *gamification.Processor, js jetstream.JetStream, stream, subjectPrefix string) *Consumer {
	return &Consumer{
		scheduler: scheduler,
		xp:        xp,
		js:        js,
		stream:    stream,
		prefix:    subjectPrefix,
	}
}

func (c *Consumer) filterSubject() string {
	return fmt.Sprintf("%s.%s", c.prefix, events.TypeGameFinished)
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
		Description:   "Post-game XP and recurrence pipeline",
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
		log.Info().Msg("created JetStream consumer for post-game pipeline")
	} else {
		log.Info().Msg("using existing JetStream consumer for post-game pipeline")
	}

	c.consumer = consumer
	return nil
}

// Run consumes GameFinished events until ctx is cancelled
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

	log.Info().Str("stream", c.stream).Msg("post-game consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("post-game consumer shutting down")
			return nil
		case msg := <-eventCh:
			if err := c.processEvent(ctx, msg); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process game finished event")
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
	if env.EventType != events.TypeGameFinished {
		return nil
	}

	var payload events.GameFinishedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal GameFinished payload: %w", err)
	}
	gameID, err := uuid.Parse(payload.GameID)
	if err != nil {
		return fmt.Errorf("parse game id: %w", err)
	}

	if _, err := c.xp.ProcessGame(ctx, gameID); err != nil {
		if !errors.Is(err, games.ErrResultAlreadyProcessed) {
			return fmt.Errorf("process xp: %w", err)
		}
		log.Debug().Str("game_id", payload.GameID).Msg("xp already awarded for game")
	}

	result, err := c.scheduler.ScheduleNext(ctx, gameID)
	if err != nil {
		return fmt.Errorf("schedule next occurrence: %w", err)
	}

	log.Info().
		Str("game_id", payload.GameID).
		Str("outcome", string(result.Outcome)).
		Msg("post-game pipeline completed")
	return nil
}
