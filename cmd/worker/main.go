package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flyerflix/internal/adapter/repo"
	"flyerflix/internal/billing"
	"flyerflix/internal/domain"
	"flyerflix/internal/infra"
)

const eventPollInterval = 2 * time.Second

type eventWorker struct {
	ctx     context.Context
	events  domain.WebhookEventRepository
	applier *billing.Applier
	logger  infra.Logger
}

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	users := repo.NewUserRepository(runner)
	events := repo.NewWebhookEventRepository(runner)

	worker := &eventWorker{
		ctx:    ctx,
		events: events,
		applier: &billing.Applier{
			SQL:    runner,
			Users:  users,
			Logger: logger,
		},
		logger: logger,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *eventWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		event, err := w.events.NextPending(w.ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				time.Sleep(eventPollInterval)
				continue
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim event")
			time.Sleep(eventPollInterval)
			continue
		}

		w.handleEvent(event)
	}
}

func (w *eventWorker) handleEvent(event *domain.WebhookEvent) {
	w.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Msg("worker: picked event")

	if err := w.applier.Apply(w.ctx, event); err != nil {
		w.logger.Error().Err(err).Str("event_id", event.ID).Msg("worker: event failed")
		if markErr := w.events.MarkFailed(w.ctx, event.ID, err.Error()); markErr != nil {
			w.logger.Error().Err(markErr).Str("event_id", event.ID).Msg("worker: mark failed errored")
		}
		return
	}
	if err := w.events.MarkProcessed(w.ctx, event.ID); err != nil {
		w.logger.Error().Err(err).Str("event_id", event.ID).Msg("worker: mark processed errored")
	}
}
