package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"America/Sao_Paulo"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Content struct {
		URL     string        `envconfig:"CONTENT_URL" default:"https://jonatanoficial-bit.github.io/IMVPEDIA-VIOLAO/packs/base/imports/content.json"`
		Timeout time.Duration `envconfig:"CONTENT_TIMEOUT" default:"10s"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Queue struct {
		Backend  string `envconfig:"EVENTS_QUEUE_BACKEND" default:"redis"`
		Key      string `envconfig:"EVENTS_QUEUE_KEY" default:"progress_events"`
		AMQPURL  string `envconfig:"EVENTS_AMQP_URL"`
		Exchange string `envconfig:"EVENTS_AMQP_EXCHANGE" default:""`
	} `envconfig:""`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
