package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"smm-planner/internal/adapters/publisher"
	"smm-planner/internal/adapters/repo"
	"smm-planner/internal/domain"
	"smm-planner/internal/infra/cache"
	"smm-planner/internal/infra/config"
	"smm-planner/internal/infra/db"
	applog "smm-planner/internal/infra/log"
	"smm-planner/internal/infra/metrics"
	publishusecase "smm-planner/internal/usecase/publish"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	publishService := publishusecase.NewService(
		repoAdapter,
		newPublisher(cfg, logger),
		newPublishLimiter(cfg.Publish.RPS),
		logger.With().Str("component", "publish").Logger(),
		cfg.Limits.SweepBatch,
	)

	// при нескольких репликах Redis гарантирует один проход в минуту
	var once domain.Cache
	if cfg.RedisAddr != "" {
		once = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	sweep := func() {
		run := func() error {
			return publishService.Tick(ctx)
		}
		var err error
		if once != nil {
			key := fmt.Sprintf("publish_sweep:%s", time.Now().UTC().Format("2006-01-02T15:04"))
			err = once.Once(key, time.Minute, run)
		} else {
			err = run()
		}
		if err != nil {
			logger.Error().Err(err).Msg("scheduler: проход публикации завершился ошибкой")
		}
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLog{logger.With().Str("component", "cron").Logger()}),
	))
	if _, err := c.AddFunc("@every 1m", sweep); err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось запланировать проход")
	}
	c.Start()
	logger.Info().Msg("scheduler: старт")

	<-ctx.Done()
	logger.Info().Msg("scheduler: остановка")
	<-c.Stop().Done()
}

func newPublisher(cfg config.AppConfig, logger zerolog.Logger) domain.Publisher {
	var fallback domain.Publisher
	if cfg.AppEnv == "dev" {
		fallback = publisher.NewDryRun(logger.With().Str("component", "publisher_dryrun").Logger())
	}
	registry := publisher.NewRegistry(fallback)
	if cfg.Telegram.Token != "" && cfg.Telegram.ChannelID != 0 {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("scheduler: не удалось создать telegram-бота")
		}
		registry.Register("telegram", publisher.NewTelegram(
			botAPI,
			cfg.Telegram.ChannelID,
			logger.With().Str("component", "publisher_telegram").Logger(),
		))
	}
	if len(cfg.Publish.Webhooks) > 0 {
		hook := publisher.NewWebhook(
			cfg.Publish.Webhooks,
			cfg.Publish.Timeout,
			logger.With().Str("component", "publisher_webhook").Logger(),
		)
		for platform := range cfg.Publish.Webhooks {
			registry.Register(platform, hook)
		}
	}
	return registry
}

func newPublishLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), rps)
}

// cronLog адаптирует zerolog к интерфейсу cron.Logger.
type cronLog struct {
	log zerolog.Logger
}

func (l cronLog) Info(msg string, keysAndValues ...any) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l cronLog) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
