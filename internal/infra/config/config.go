package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Amsterdam"`
	Port   int    `envconfig:"PORT" default:"8080"`

	// APIToken защищает HTTP API; пустое значение отключает проверку.
	APIToken string `envconfig:"API_TOKEN"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	RabbitURL string `envconfig:"RABBITMQ_URL"`

	OpenAI struct {
		APIKey  string        `envconfig:"OPENAI_API_KEY"`
		BaseURL string        `envconfig:"OPENAI_BASE_URL"`
		Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
		Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	} `envconfig:""`

	Queues struct {
		Compose string `envconfig:"COMPOSE_QUEUE_KEY" default:"compose_jobs"`
	} `envconfig:""`

	Limits struct {
		DraftsMax  int `envconfig:"DRAFTS_MAX_PER_REQUEST" default:"10"`
		SweepBatch int `envconfig:"PUBLISH_SWEEP_BATCH" default:"100"`
	} `envconfig:""`

	Publish struct {
		Timeout time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"30s"`
		RPS     int           `envconfig:"PUBLISH_RPS" default:"5"`
		// Webhooks задаёт адреса публикации по платформам,
		// например "linkedin:https://hook.local/li,threads:https://hook.local/th".
		Webhooks map[string]string `envconfig:"PUBLISH_WEBHOOKS"`
	} `envconfig:""`

	Telegram struct {
		Token     string `envconfig:"TG_BOT_TOKEN"`
		ChannelID int64  `envconfig:"TG_CHANNEL_ID"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
