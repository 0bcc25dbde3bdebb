package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ComposeJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "compose_jobs_total",
		Help: "Количество задач генерации черновиков по исходу",
	}, []string{"outcome"})

	DraftsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drafts_created_total",
		Help: "Количество созданных черновиков по брендам",
	}, []string{"brand"})

	ComposeBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "compose_build_seconds",
		Help:    "Время генерации партии черновиков",
		Buckets: prometheus.DefBuckets,
	})

	PublishAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_attempts_total",
		Help: "Количество попыток публикации по платформам и исходу",
	}, []string{"platform", "status"})

	PublishSweepSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "publish_sweep_seconds",
		Help:    "Длительность одного прохода публикации",
		Buckets: prometheus.DefBuckets,
	})

	PublishSweepDue = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "publish_sweep_due_posts",
		Help: "Количество постов к публикации на последнем проходе",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60, 120, 300, 600},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Длительность генерации ответа LLM",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Количество токенов, использованных LLM",
	}, []string{"model", "type"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ComposeJobsTotal,
		DraftsCreatedTotal,
		ComposeBuildSeconds,
		PublishAttemptsTotal,
		PublishSweepSeconds,
		PublishSweepDue,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration записывает длительность и токены генерации LLM.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}

// IncComposeJob увеличивает счётчик задач генерации с указанным исходом.
func IncComposeJob(outcome string) {
	ComposeJobsTotal.WithLabelValues(outcome).Inc()
}

// AddDraftsCreated увеличивает счётчик созданных черновиков бренда.
func AddDraftsCreated(brandSlug string, count int) {
	if count <= 0 {
		return
	}
	DraftsCreatedTotal.WithLabelValues(brandSlug).Add(float64(count))
}

// ObservePublishAttempt записывает попытку публикации на платформе.
func ObservePublishAttempt(platform string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PublishAttemptsTotal.WithLabelValues(platform, status).Inc()
}
