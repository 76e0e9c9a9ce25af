package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Taskgate/internal/config/task-service"
	"github.com/NordCoder/Taskgate/internal/domain/task"
	"github.com/NordCoder/Taskgate/internal/outbox"
	"github.com/NordCoder/Taskgate/internal/repository/kafka"
	pg "github.com/NordCoder/Taskgate/internal/repository/postgres"
)

type events struct {
	// sink is what the usecase publishes to; nil disables events.
	sink task.Events
	// tx is set when sink is the outbox and writes must share its transaction.
	tx pg.Transactor
	// relay is nil unless the outbox is in use.
	relay *outbox.Runner
	close func() error
}

func initEvents(ctx context.Context, cfg *config.Config, db *pg.DB, logger *zap.Logger) events {
	if !cfg.Kafka.Enable {
		logger.Info("task events disabled")
		return events{close: func() error { return nil }}
	}

	if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, kafka.TopicSpec{Name: cfg.Kafka.Topic}, logger); err != nil {
		logger.Warn("ensure topic", zap.String("topic", cfg.Kafka.Topic), zap.Error(err))
	}

	p := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	}, logger)
	direct := kafka.NewTaskEvents(p, logger)

	if !cfg.Outbox.Enable {
		return events{sink: direct, close: p.Close}
	}

	repo := pg.NewOutboxRepo(db)
	relay := outbox.NewOutboxRunner(logger, repo, outbox.MakeGlobalOutboxHandler(direct), outbox.RunnerConfig{
		Workers:       cfg.Outbox.Workers,
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		InProgressTTL: cfg.Outbox.InProgressTTL,
	})
	logger.Info("task events via outbox", zap.Int("workers", cfg.Outbox.Workers))
	return events{
		sink:  outbox.NewTaskEvents(repo),
		tx:    pg.NewTransactor(db, logger),
		relay: relay,
		close: p.Close,
	}
}
