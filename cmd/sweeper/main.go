package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"beauty-shop/internal/adapters/repo"
	"beauty-shop/internal/adapters/spam"
	"beauty-shop/internal/domain"
	"beauty-shop/internal/infra/cache"
	"beauty-shop/internal/infra/config"
	"beauty-shop/internal/infra/db"
	applog "beauty-shop/internal/infra/log"
	"beauty-shop/internal/infra/metrics"
	"beauty-shop/internal/infra/queue"
	reviewsusecase "beauty-shop/internal/usecase/reviews"
)

// Воркер повторной модерации: читает задачи из очереди и прогоняет
// спам-детектор по ещё не помеченным отзывам. Задачи ставит админский
// сервис сигнатур после каждой мутации набора.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sweeper: нет подключения к БД")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	sweepQueue, err := queue.NewRabbitSweepQueue(cfg.AMQPURL, cfg.Queues.Sweep)
	if err != nil {
		log.Fatal().Err(err).Msg("sweeper: нет подключения к брокеру")
	}
	defer sweepQueue.Close()

	repoAdapter := repo.NewPostgres(pool)
	keywordStore := spam.NewKeywordStore(repoAdapter.Keywords, cache.NewRedis(redisClient), logger.With().Str("component", "keyword_store").Logger())
	detector := spam.NewDetector(keywordStore)
	reviewsSvc := reviewsusecase.NewService(repoAdapter.Reviews, noopClassifier{}, detector, logger.With().Str("component", "reviews").Logger())

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9091")

	log.Info().Str("queue", cfg.Queues.Sweep).Msg("sweeper: старт")
	for {
		job, err := sweepQueue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("sweeper: остановка")
				return
			}
			log.Error().Err(err).Msg("sweeper: ошибка чтения очереди")
			continue
		}

		flagged, err := reviewsSvc.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Str("reason", job.Reason).Msg("sweeper: проход не завершён")
			continue
		}
		log.Info().Str("reason", job.Reason).Int("flagged", flagged).Msg("sweeper: проход завершён")
	}
}

// noopClassifier удовлетворяет сервису отзывов: повторная модерация
// тональность не пересчитывает.
type noopClassifier struct{}

func (noopClassifier) Classify(context.Context, string) domain.SentimentResult {
	return domain.NeutralFallback()
}
