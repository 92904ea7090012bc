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
	ReviewsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reviews_submitted_total",
		Help: "Количество принятых отзывов",
	})
	ReviewsSpamTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_spam_total",
		Help: "Отзывы, помеченные как спам, по категориям",
	}, []string{"category"})
	SentimentFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentiment_fallback_total",
		Help: "Классификации, завершившиеся нейтральным фолбэком",
	})
	SentimentInferenceSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentiment_inference_seconds",
		Help:    "Время инференса модели тональности",
		Buckets: prometheus.DefBuckets,
	})
	SweepReviewsFlagged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sweep_reviews_flagged_total",
		Help: "Отзывы, помеченные спамом при повторной модерации",
	})
	PaymentCallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Колбэки платёжного шлюза по результату",
	}, []string{"result"})
	KeywordCacheMissTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "keyword_cache_miss_total",
		Help: "Промахи кэша спам-сигнатур",
	})
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ReviewsSubmittedTotal,
		ReviewsSpamTotal,
		SentimentFallbackTotal,
		SentimentInferenceSeconds,
		SweepReviewsFlagged,
		PaymentCallbacksTotal,
		KeywordCacheMissTotal,
		NetworkRequestDuration,
	)
}

// ObserveNetworkRequest фиксирует длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(time.Since(start).Seconds())
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

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics сервер запущен")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics сервер остановлен")
		}
	}()
}
