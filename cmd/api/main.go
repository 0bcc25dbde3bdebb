package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"smm-planner/internal/adapters/publisher"
	"smm-planner/internal/adapters/repo"
	"smm-planner/internal/domain"
	"smm-planner/internal/infra/config"
	"smm-planner/internal/infra/db"
	httpinfra "smm-planner/internal/infra/http"
	applog "smm-planner/internal/infra/log"
	"smm-planner/internal/infra/metrics"
	"smm-planner/internal/infra/queue"
	brandsusecase "smm-planner/internal/usecase/brands"
	publishusecase "smm-planner/internal/usecase/publish"
	scheduleusecase "smm-planner/internal/usecase/schedule"
)

const (
	defaultDraftCount   = 3
	defaultPreviewCount = 5
	maxPreviewCount     = 30
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
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	composeQueue := newComposeQueue(cfg, logger)

	brandService := brandsusecase.NewService(repoAdapter, cfg.TZ)
	scheduleService := scheduleusecase.NewService(repoAdapter)
	publishService := publishusecase.NewService(
		repoAdapter,
		newPublisher(cfg, logger),
		newPublishLimiter(cfg.Publish.RPS),
		logger.With().Str("component", "publish").Logger(),
		cfg.Limits.SweepBatch,
	)

	server := httpinfra.NewServer(logger.With().Str("component", "http").Logger())

	server.Router.Route("/api/v1", func(api chi.Router) {
		if cfg.APIToken != "" {
			api.Use(httpinfra.BearerAuthMiddleware(cfg.APIToken))
		}

		api.Post("/brands", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var req brandCreateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "некорректное тело запроса")
				return
			}
			brand := domain.Brand{
				Slug:      req.Slug,
				Name:      req.Name,
				Voice:     req.Voice,
				Tagline:   req.Tagline,
				Pillars:   req.Pillars,
				Platforms: req.Platforms,
				Timezone:  req.Timezone,
			}
			if req.Cadence != nil {
				brand.Cadence = *req.Cadence
			}
			if req.Settings != nil {
				brand.Settings = *req.Settings
			}
			created, err := brandService.Register(r.Context(), brand)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusCreated, created)
		})

		// в {brandID} принимаем и UUID, и slug
		api.Get("/brands/{brandID}", func(w http.ResponseWriter, r *http.Request) {
			brand, err := findBrand(r, brandService)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, brand)
		})

		api.Patch("/brands/{brandID}", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			brand, err := findBrand(r, brandService)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			var req brandUpdateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "некорректное тело запроса")
				return
			}
			updated, err := brandService.Update(r.Context(), brand.ID, domain.BrandPatch{
				Name:      req.Name,
				Voice:     req.Voice,
				Tagline:   req.Tagline,
				Pillars:   req.Pillars,
				Cadence:   req.Cadence,
				Platforms: req.Platforms,
				Timezone:  req.Timezone,
				Settings:  req.Settings,
			})
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		})

		api.Get("/brands/{brandID}/schedule", func(w http.ResponseWriter, r *http.Request) {
			brand, err := findBrand(r, brandService)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			count := queryInt(r, "count", defaultPreviewCount)
			if count < 1 {
				count = 1
			}
			if count > maxPreviewCount {
				count = maxPreviewCount
			}
			times, err := scheduleService.Preview(r.Context(), brand.ID, count)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"brand_id": brand.ID,
				"tz":       brand.Timezone,
				"times":    times,
			})
		})

		api.Put("/brands/{brandID}/cadence", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			brand, err := findBrand(r, brandService)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			var req domain.Cadence
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "некорректное тело запроса")
				return
			}
			updated, err := scheduleService.UpdateCadence(r.Context(), brand.ID, req)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		})

		api.Put("/brands/{brandID}/timezone", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			brand, err := findBrand(r, brandService)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			var req struct {
				Timezone string `json:"tz"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "некорректное тело запроса")
				return
			}
			updated, err := scheduleService.UpdateTimezone(r.Context(), brand.ID, req.Timezone)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		})

		api.Post("/brands/{brandID}/drafts", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			brand, err := findBrand(r, brandService)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			var req struct {
				Count int `json:"count"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, http.StatusBadRequest, "некорректное тело запроса")
				return
			}
			count := req.Count
			if count <= 0 {
				count = defaultDraftCount
			}
			if count > cfg.Limits.DraftsMax {
				count = cfg.Limits.DraftsMax
			}
			job := domain.ComposeJob{
				ID:          uuid.NewString(),
				BrandID:     brand.ID,
				Count:       count,
				RequestedAt: time.Now().UTC(),
			}
			if err := composeQueue.Enqueue(r.Context(), job); err != nil {
				logger.Error().Err(err).Str("brand", brand.Slug).Msg("api: не удалось поставить задачу генерации")
				writeError(w, http.StatusServiceUnavailable, "очередь генерации недоступна")
				return
			}
			metrics.IncComposeJob("enqueued")
			writeJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID, "count": count})
		})

		api.Get("/posts", func(w http.ResponseWriter, r *http.Request) {
			var filter domain.PostFilter
			if raw := r.URL.Query().Get("brand_id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					writeError(w, http.StatusBadRequest, "некорректный brand_id")
					return
				}
				filter.BrandID = &id
			}
			if raw := r.URL.Query().Get("status"); raw != "" {
				status := domain.PostStatus(raw)
				if !status.Valid() {
					writeError(w, http.StatusBadRequest, "некорректный статус")
					return
				}
				filter.Status = &status
			}
			filter.Limit = queryInt(r, "limit", 0)
			filter.Offset = queryInt(r, "offset", 0)
			posts, err := repoAdapter.ListPosts(filter)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
		})

		api.Get("/posts/{postID}", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "postID"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "некорректный идентификатор поста")
				return
			}
			post, err := repoAdapter.GetPost(id)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, post)
		})

		api.Patch("/posts/{postID}", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			id, err := uuid.Parse(chi.URLParam(r, "postID"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "некорректный идентификатор поста")
				return
			}
			var req postUpdateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "некорректное тело запроса")
				return
			}
			patch := domain.PostPatch{
				Text:             req.Text,
				Platforms:        req.Platforms,
				ScheduledAt:      req.ScheduledAt,
				ClearScheduledAt: req.ClearScheduledAt,
			}
			if req.Status != nil {
				status := domain.PostStatus(*req.Status)
				if !status.Valid() {
					writeError(w, http.StatusUnprocessableEntity, "некорректный статус")
					return
				}
				patch.Status = &status
			}
			post, err := repoAdapter.UpdatePost(id, patch)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, post)
		})

		api.Post("/posts/{postID}/approve", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "postID"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "некорректный идентификатор поста")
				return
			}
			post, err := publishService.Approve(r.Context(), id)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, post)
		})

		api.Post("/posts/{postID}/publish", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "postID"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "некорректный идентификатор поста")
				return
			}
			post, err := publishService.PublishNow(r.Context(), id)
			if err != nil {
				var platformErr *publishusecase.PlatformError
				if errors.As(err, &platformErr) {
					writeJSON(w, http.StatusBadGateway, map[string]any{
						"error":    "публикация не удалась",
						"platform": platformErr.Platform,
						"detail":   platformErr.Err.Error(),
					})
					return
				}
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, post)
		})
	})

	go func() {
		logger.Info().Int("port", cfg.Port).Msg("api: старт")
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func newComposeQueue(cfg config.AppConfig, logger zerolog.Logger) domain.ComposeQueue {
	switch {
	case cfg.RabbitURL != "":
		q, err := queue.NewRabbitComposeQueue(cfg.RabbitURL, cfg.Queues.Compose)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: не удалось инициализировать очередь RabbitMQ")
		}
		return q
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return queue.NewRedisComposeQueue(client, cfg.Queues.Compose)
	default:
		logger.Fatal().Msg("api: не настроена очередь задач (RABBITMQ_URL или REDIS_ADDR)")
		return nil
	}
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
			logger.Fatal().Err(err).Msg("api: не удалось создать telegram-бота")
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

func findBrand(r *http.Request, svc *brandsusecase.Service) (domain.Brand, error) {
	raw := chi.URLParam(r, "brandID")
	if id, err := uuid.Parse(raw); err == nil {
		return svc.Get(r.Context(), id)
	}
	return svc.GetBySlug(r.Context(), raw)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

type brandCreateRequest struct {
	Slug      string                `json:"slug"`
	Name      string                `json:"name"`
	Voice     string                `json:"voice"`
	Tagline   string                `json:"tagline"`
	Pillars   []string              `json:"pillars"`
	Cadence   *domain.Cadence       `json:"cadence"`
	Platforms []string              `json:"platforms"`
	Timezone  string                `json:"tz"`
	Settings  *domain.BrandSettings `json:"settings"`
}

type brandUpdateRequest struct {
	Name      *string               `json:"name"`
	Voice     *string               `json:"voice"`
	Tagline   *string               `json:"tagline"`
	Pillars   *[]string             `json:"pillars"`
	Cadence   *domain.Cadence       `json:"cadence"`
	Platforms *[]string             `json:"platforms"`
	Timezone  *string               `json:"tz"`
	Settings  *domain.BrandSettings `json:"settings"`
}

type postUpdateRequest struct {
	Text             *string    `json:"text"`
	Status           *string    `json:"status"`
	Platforms        *[]string  `json:"platforms"`
	ScheduledAt      *time.Time `json:"scheduled_at"`
	ClearScheduledAt bool       `json:"clear_scheduled_at"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeDomainError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrBrandNotFound), errors.Is(err, domain.ErrPostNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBrandExists), errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, brandsusecase.ErrIdentityRequired),
		errors.Is(err, brandsusecase.ErrSlugInvalid),
		errors.Is(err, scheduleusecase.ErrInvalidTimezone):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Error().Err(err).Msg("api: внутренняя ошибка")
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка")
	}
}
