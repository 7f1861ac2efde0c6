package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/adapters/repo"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/config"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/db"
	loginfra "github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/log"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/metrics"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/queue"
)

// recap читает события прогресса из очереди и накапливает дневные
// сводки активности в Postgres.
func main() {
	cfg := config.Load()
	logger := loginfra.NewLogger(cfg.AppEnv, "recap")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	pool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("recap: нет подключения к БД")
	}
	defer pool.Close()
	snapshots := repo.NewPostgres(pool)

	var events domain.EventQueue
	switch cfg.Queue.Backend {
	case "rabbitmq":
		q, err := queue.NewRabbitEventQueue(cfg.Queue.AMQPURL, cfg.Queue.Exchange, cfg.Queue.Key)
		if err != nil {
			logger.Fatal().Err(err).Msg("recap: нет подключения к RabbitMQ")
		}
		defer q.Close()
		events = q
	default:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		events = queue.NewRedisEventQueue(client, cfg.Queue.Key)
	}

	logger.Info().Str("backend", cfg.Queue.Backend).Msg("recap: воркер запущен")
	for {
		event, err := events.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info().Msg("recap: остановка")
				return
			}
			logger.Error().Err(err).Msg("recap: ошибка чтения очереди")
			continue
		}
		if err := snapshots.UpsertRecap(ctx, event); err != nil {
			logger.Error().Err(err).
				Str("install", event.InstallID).
				Str("kind", event.Kind).
				Msg("recap: сводка не обновлена")
		}
	}
}
