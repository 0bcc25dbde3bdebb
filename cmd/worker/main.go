package main

import (
	"context"
	"errors"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"smm-planner/internal/adapters/generator"
	"smm-planner/internal/adapters/repo"
	"smm-planner/internal/domain"
	"smm-planner/internal/infra/config"
	"smm-planner/internal/infra/db"
	applog "smm-planner/internal/infra/log"
	"smm-planner/internal/infra/metrics"
	"smm-planner/internal/infra/openai"
	"smm-planner/internal/infra/queue"
	composeusecase "smm-planner/internal/usecase/compose"
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
		logger.Fatal().Err(err).Msg("worker: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	composeQueue := newComposeQueue(cfg, logger)

	var contentGenerator domain.ContentGenerator
	if cfg.OpenAI.APIKey != "" {
		openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
		contentGenerator = generator.NewOpenAI(
			openaiClient,
			cfg.OpenAI.Model,
			cfg.OpenAI.Timeout,
			logger.With().Str("component", "generator").Logger(),
		)
	} else {
		logger.Warn().Msg("worker: ключ OpenAI не задан, используем заглушку генератора")
		contentGenerator = generator.NewOpenAIStub()
	}

	selector := composeusecase.NewSelector(rand.New(rand.NewSource(time.Now().UnixNano())))
	composeService := composeusecase.NewService(
		repoAdapter,
		repoAdapter,
		contentGenerator,
		selector,
		logger.With().Str("component", "compose").Logger(),
	)

	worker := &jobWorker{
		log:      logger,
		queue:    composeQueue,
		statuses: repoAdapter,
		service:  composeService,
	}

	logger.Info().Msg("worker: запуск обработки очереди")
	worker.Run(ctx)
	logger.Info().Msg("worker: остановлен")
}

func newComposeQueue(cfg config.AppConfig, logger zerolog.Logger) domain.ComposeQueue {
	switch {
	case cfg.RabbitURL != "":
		q, err := queue.NewRabbitComposeQueue(cfg.RabbitURL, cfg.Queues.Compose)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: не удалось инициализировать очередь RabbitMQ")
		}
		return q
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return queue.NewRedisComposeQueue(client, cfg.Queues.Compose)
	default:
		logger.Fatal().Msg("worker: не настроена очередь задач (RABBITMQ_URL или REDIS_ADDR)")
		return nil
	}
}

type jobWorker struct {
	log      zerolog.Logger
	queue    domain.ComposeQueue
	statuses domain.ComposeJobStatusRepo
	service  *composeusecase.Service
}

const maxDeliveryAttempts = 5

type jobOutcome int

const (
	jobOutcomeCompleted jobOutcome = iota
	jobOutcomeRetry
)

func (w *jobWorker) Run(ctx context.Context) {
	for {
		job, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.log.Error().Err(err).Msg("worker: ошибка чтения очереди")
			time.Sleep(time.Second)
			continue
		}

		jobLog := w.log.With().
			Str("job_id", job.ID).
			Str("brand_id", job.BrandID.String()).
			Int("count", job.Count).
			Logger()

		if job.ID == "" {
			jobLog.Error().Msg("worker: получена задача без идентификатора, подтверждаем и пропускаем")
			if err := ack(true); err != nil {
				jobLog.Error().Err(err).Msg("worker: не удалось подтвердить задачу без идентификатора")
			}
			continue
		}

		done, attempt, err := w.statuses.EnsureComposeJob(job.ID)
		if err != nil {
			jobLog.Error().Err(err).Msg("worker: не удалось зарегистрировать задачу")
			if ackErr := ack(false); ackErr != nil {
				jobLog.Error().Err(ackErr).Msg("worker: не удалось вернуть задачу в очередь")
			}
			time.Sleep(time.Second)
			continue
		}

		jobLog = jobLog.With().Int("attempt", attempt).Logger()

		if done {
			jobLog.Info().Msg("worker: задача уже выполнена, подтверждаем")
			if err := ack(true); err != nil {
				jobLog.Error().Err(err).Msg("worker: не удалось подтвердить выполненную задачу")
			}
			continue
		}

		outcome := w.handleJob(ctx, job, jobLog)

		if outcome == jobOutcomeRetry && attempt < maxDeliveryAttempts {
			metrics.IncComposeJob("retried")
			jobLog.Warn().Msg("worker: задача завершилась ошибкой, повторим позже")
			if err := ack(false); err != nil {
				jobLog.Error().Err(err).Msg("worker: не удалось вернуть задачу после ошибки")
			}
			continue
		}

		if outcome == jobOutcomeRetry {
			metrics.IncComposeJob("dropped")
			jobLog.Error().Msg("worker: достигнут предел попыток, помечаем задачу выполненной")
		}

		if err := w.statuses.MarkComposeJobDone(job.ID); err != nil {
			jobLog.Error().Err(err).Msg("worker: не удалось пометить задачу выполненной")
			if ackErr := ack(false); ackErr != nil {
				jobLog.Error().Err(ackErr).Msg("worker: не удалось вернуть задачу после ошибки статуса")
			}
			time.Sleep(time.Second)
			continue
		}

		if err := ack(true); err != nil {
			jobLog.Error().Err(err).Msg("worker: не удалось подтвердить задачу")
		}
	}
}

func (w *jobWorker) handleJob(ctx context.Context, job domain.ComposeJob, jobLog zerolog.Logger) jobOutcome {
	count := job.Count
	if count <= 0 {
		count = 1
	}

	posts, err := w.service.Compose(ctx, job.BrandID, count)
	if err != nil {
		if errors.Is(err, domain.ErrBrandNotFound) {
			metrics.IncComposeJob("rejected")
			jobLog.Error().Err(err).Msg("worker: бренд не найден, задача отменена")
			return jobOutcomeCompleted
		}
		jobLog.Error().Err(err).Msg("worker: ошибка генерации черновиков")
		return jobOutcomeRetry
	}

	metrics.IncComposeJob("completed")
	jobLog.Info().Int("drafts", len(posts)).Msg("worker: черновики созданы")
	return jobOutcomeCompleted
}
