package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"hotel_booking/internal/adapters/observability"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage"
	"hotel_booking/internal/worker"
)

func main() {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "worker", cfg.LogLevel)

	opts := worker.Options{}
	flagSet := pflag.NewFlagSet("worker", pflag.ContinueOnError)
	flagSet.DurationVar(&opts.Poll, "poll", cfg.WorkerPoll, "how often to look for due jobs")
	flagSet.IntVar(&opts.Batch, "batch", cfg.WorkerBatch, "max jobs claimed per poll")
	flagSet.IntVar(&opts.Workers, "workers", cfg.WorkerWorkers, "max jobs running at once")
	flagSet.DurationVar(&opts.Backoff, "backoff", 0, "delay before the first retry (doubles per attempt)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		log.Fatal().Err(err).Msg("bad flags")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observability.Serve()

	store, closeStore, err := storage.Open(ctx, cfg.StoreDriver, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store failed")
	}
	defer func() { _ = closeStore() }()

	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	cache := redisad.New(rdb)
	queue := redisad.NewQueue(rdb, cfg.QueueKey)
	clock := domain.RealClock()

	jobs := app.NewJobService(store, cache, app.NewReviewService(store, cache, clock))
	r := worker.New(queue, jobs, clock, opts)

	log.Info().
		Dur("poll", opts.Poll).
		Int("batch", opts.Batch).
		Int("workers", opts.Workers).
		Str("queue", cfg.QueueKey).
		Msg("worker starting")

	if err := r.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("worker failed")
	}
	log.Info().Msg("worker stopped")
}
