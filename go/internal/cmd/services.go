package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mcdev12/matchday/go/internal/confirmation"
	"github.com/mcdev12/matchday/go/internal/games"
	"github.com/mcdev12/matchday/go/internal/gamification"
	"github.com/mcdev12/matchday/go/internal/gateway"
	"github.com/mcdev12/matchday/go/internal/groups"
	"github.com/mcdev12/matchday/go/internal/notify"
	"github.com/mcdev12/matchday/go/internal/outbox"
	"github.com/mcdev12/matchday/go/internal/schedule"
	"github.com/mcdev12/matchday/go/internal/users"
	"github.com/mcdev12/matchday/go/internal/waitlist"
)

type Services struct {
	Games         *games.App
	Confirmations *confirmation.App
	Waitlist      *waitlist.App
	Users         *users.App
	Groups        *groups.App
	Scheduler     *schedule.Scheduler
	XP            *gamification.Processor
	WSHandler     *gateway.WebSocketHandler

	nc           *nats.Conn
	publisher    *outbox.JetStreamPublisher
	outboxWorker *outbox.Worker
	gatewayFeed  *gateway.EventConsumer
}

func setupServices(ctx context.Context, database *sql.DB, cfg *Config) (*Services, error) {
	clock := clockwork.NewRealClock()

	// Repository layer -> app layer, consumer-side interfaces throughout.
	gamesApp := games.NewApp(games.NewRepository(database), clock)
	usersApp := users.NewApp(users.NewRepository(database))
	groupsApp := groups.NewApp(groups.NewRepository(database))

	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	go connections.Start(ctx)

	waitlistApp := waitlist.NewApp(
		waitlist.NewRepository(database),
		gamesApp,
		notify.NewGatewayNotifier(connections),
		clock,
	)
	confirmationApp := confirmation.NewApp(confirmation.NewRepository(database), gamesApp, waitlistApp, clock)
	waitlistApp.SetConfirmer(confirmationApp)

	scheduleRepo := schedule.NewRepository(database)
	scheduler := schedule.NewScheduler(scheduleRepo, gamesApp, gamesApp, groupsApp, confirmationApp, clock)

	xp := gamification.NewProcessor(
		gamesApp,
		confirmationApp,
		usersApp,
		scheduleRepo,
		gamification.DefaultLevelTable(),
		clock,
	)

	// Outbox relay to JetStream.
	jsCfg := outbox.DefaultJetStreamConfig()
	jsCfg.URL = cfg.NATS.URL
	jsCfg.StreamName = cfg.NATS.Stream
	jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
	publisher, err := outbox.NewJetStreamPublisher(jsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox publisher: %w", err)
	}

	worker := outbox.NewWorker(database, outbox.NewRepository(database), publisher, outbox.Config{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxRetries:   cfg.Outbox.MaxRetries,
		RetryDelay:   cfg.Outbox.RetryDelay,
	})
	if err := worker.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start outbox worker: %w", err)
	}

	// Event consumers share one NATS connection.
	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	promoter := waitlist.NewConsumer(waitlistApp, js, cfg.NATS.Stream, cfg.NATS.SubjectPrefix)
	if err := promoter.EnsureConsumer(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure waitlist consumer: %w", err)
	}
	go func() {
		if err := promoter.Run(ctx); err != nil {
			log.Printf("waitlist consumer stopped: %v", err)
		}
	}()

	pipeline := schedule.NewConsumer(scheduler, xp, js, cfg.NATS.Stream, cfg.NATS.SubjectPrefix)
	if err := pipeline.EnsureConsumer(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure post-game consumer: %w", err)
	}
	go func() {
		if err := pipeline.Run(ctx); err != nil {
			log.Printf("post-game consumer stopped: %v", err)
		}
	}()

	sweeper := waitlist.NewSweeper(waitlistApp, clock, cfg.Waitlist.SweepInterval)
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("waitlist sweeper stopped: %v", err)
		}
	}()

	// Gateway fan-out of all game events to WebSocket subscribers.
	feedCfg := gateway.DefaultJetStreamConsumerConfig()
	feedCfg.URL = cfg.NATS.URL
	feedCfg.StreamName = cfg.NATS.Stream
	feedCfg.SubjectFilter = cfg.NATS.SubjectPrefix + ".>"
	feed, err := gateway.NewEventConsumer(connections, feedCfg)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create gateway consumer: %w", err)
	}
	go func() {
		if err := feed.Start(ctx); err != nil {
			log.Printf("gateway consumer stopped: %v", err)
		}
	}()

	return &Services{
		Games:         gamesApp,
		Confirmations: confirmationApp,
		Waitlist:      waitlistApp,
		Users:         usersApp,
		Groups:        groupsApp,
		Scheduler:     scheduler,
		XP:            xp,
		WSHandler:     gateway.NewWebSocketHandler(connections),
		nc:            nc,
		publisher:     publisher,
		outboxWorker:  worker,
		gatewayFeed:   feed,
	}, nil
}

func (s *Services) Close() {
	if err := s.outboxWorker.Stop(); err != nil {
		log.Printf("failed to stop outbox worker: %v", err)
	}
	if err := s.gatewayFeed.Stop(); err != nil {
		log.Printf("failed to stop gateway consumer: %v", err)
	}
	if err := s.publisher.Close(); err != nil {
		log.Printf("failed to close outbox publisher: %v", err)
	}
	s.nc.Close()
}
