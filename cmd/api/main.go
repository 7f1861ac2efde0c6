package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/adapters/api"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/adapters/fetcher"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/adapters/repo"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/config"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/db"
	httpinfra "github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/http"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/kvstore"
	loginfra "github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/log"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/metrics"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/queue"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/usecase/admin"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/usecase/loader"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/usecase/progress"
)

func main() {
	cfg := config.Load()
	logger := loginfra.NewLogger(cfg.AppEnv, "api")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store domain.KVStore
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = kvstore.NewRedis(redisClient)
	} else {
		logger.Warn().Msg("api: REDIS_ADDR не задан, состояние живёт в памяти процесса")
		store = kvstore.NewMemory()
	}

	var snapshots domain.SnapshotRepo
	if cfg.PGDSN != "" {
		pool, err := db.Connect(ctx, cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к БД")
		}
		defer pool.Close()
		snapshots = repo.NewPostgres(pool)
	}

	var events domain.EventQueue
	switch cfg.Queue.Backend {
	case "rabbitmq":
		q, err := queue.NewRabbitEventQueue(cfg.Queue.AMQPURL, cfg.Queue.Exchange, cfg.Queue.Key)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к RabbitMQ")
		}
		defer q.Close()
		events = q
	case "redis":
		if redisClient != nil {
			events = queue.NewRedisEventQueue(redisClient, cfg.Queue.Key)
		}
	}
	if events == nil {
		logger.Warn().Msg("api: очередь событий не настроена, события прогресса не публикуются")
	}

	contentFetcher := fetcher.NewHTTP(cfg.Content.URL, cfg.Content.Timeout)
	loaderSvc := loader.NewService(store, contentFetcher, logger)
	progressSvc := progress.NewService(store, events, nil, logger)
	adminSvc := admin.NewService(store, snapshots, nil, logger)

	server := httpinfra.NewServer(logger)
	handler := api.NewHandler(loaderSvc, progressSvc, adminSvc, snapshots, logger)
	handler.Mount(server.Router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api: graceful shutdown failed")
		}
	}()

	if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Fatal().Err(err).Msg("api: сервер остановился с ошибкой")
	}
}
