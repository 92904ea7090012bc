package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"beauty-shop/internal/domain"
	"beauty-shop/internal/infra/metrics"
)

// ErrEmptyComment возвращается при пустом комментарии: отзыв не создаётся.
var ErrEmptyComment = errors.New("пустой комментарий")

const defaultRating = 5

// Service оркестрирует приём отзывов: каждая отправка проходит через
// классификатор тональности и спам-детектор. Обе проверки best-effort
// и независимы: сбой одной не отменяет другую.
type Service struct {
	reviews    domain.ReviewRepo
	classifier domain.SentimentClassifier
	detector   domain.SpamDetector
	log        zerolog.Logger
}

// NewService создаёт сервис отзывов.
func NewService(reviews domain.ReviewRepo, classifier domain.SentimentClassifier, detector domain.SpamDetector, log zerolog.Logger) *Service {
	return &Service{reviews: reviews, classifier: classifier, detector: detector, log: log}
}

// Submit принимает отзыв. Спам-вердикт перекрывает метку классификатора:
// после сохранения тональность спам-отзыва переписывается на SPAM
// отдельным обновлением.
func (s *Service) Submit(ctx context.Context, userID, productID int64, comment string, rating int) (domain.Review, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return domain.Review{}, ErrEmptyComment
	}
	if rating == 0 {
		rating = defaultRating
	}

	sentiment := s.classifier.Classify(ctx, comment)

	verdict, err := s.detector.Evaluate(ctx, comment, rating)
	if err != nil {
		s.log.Error().Err(err).Msg("спам-проверка не удалась, отзыв принимаем без вердикта")
		verdict = domain.SpamVerdict{}
	}

	review := domain.Review{
		UserID:          userID,
		ProductID:       productID,
		Rating:          rating,
		Comment:         comment,
		Sentiment:       sentiment.Label,
		ConfidenceScore: sentiment.Confidence,
		IsApproved:      true,
		IsSpam:          verdict.IsSpam,
	}
	if verdict.IsSpam {
		review.SpamReason = verdict.Reason
	}

	saved, err := s.reviews.Create(ctx, review)
	if err != nil {
		return domain.Review{}, fmt.Errorf("сохранение отзыва: %w", err)
	}
	metrics.ReviewsSubmittedTotal.Inc()

	if verdict.IsSpam {
		if err := s.reviews.UpdateSentiment(ctx, saved.ID, domain.SentimentSpam); err != nil {
			return domain.Review{}, fmt.Errorf("пометка отзыва как SPAM: %w", err)
		}
		saved.Sentiment = domain.SentimentSpam
		metrics.ReviewsSpamTotal.WithLabelValues(string(verdict.Category)).Inc()
		s.log.Info().Int64("review_id", saved.ID).Str("reason", verdict.Reason).Msg("отзыв помечен как спам")
	}
	return saved, nil
}

// Sweep повторно прогоняет детектор по ещё не помеченным отзывам.
// Тональность заново не считается: свежедобавленные сигнатуры
// ретроактивно ловят старый спам без повторного инференса.
// Повторный запуск по уже помеченным отзывам ничего не меняет.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	pending, err := s.reviews.ListNotFlagged(ctx)
	if err != nil {
		return 0, fmt.Errorf("выборка отзывов: %w", err)
	}

	flagged := 0
	for _, review := range pending {
		if review.Comment == "" {
			continue
		}
		verdict, err := s.detector.Evaluate(ctx, review.Comment, review.Rating)
		if err != nil {
			return flagged, fmt.Errorf("проверка отзыва %d: %w", review.ID, err)
		}
		if !verdict.IsSpam {
			continue
		}
		if err := s.reviews.MarkSpam(ctx, review.ID, verdict.Reason); err != nil {
			return flagged, fmt.Errorf("пометка отзыва %d: %w", review.ID, err)
		}
		flagged++
		metrics.SweepReviewsFlagged.Inc()
	}
	return flagged, nil
}

// Stats — сводка для админского списка отзывов.
type Stats struct {
	TotalReviews  int
	SpamCount     int
	PositivePct   int
	NegativePct   int
	AverageRating float64
}

// BuildStats считает сводку по всем отзывам; спам исключается из
// тональности и среднего рейтинга.
func (s *Service) BuildStats(ctx context.Context) (Stats, error) {
	all, err := s.reviews.ListAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("выборка отзывов: %w", err)
	}

	stats := Stats{}
	ratingSum := 0
	pos := 0
	neg := 0
	for _, review := range all {
		if review.IsSpam {
			stats.SpamCount++
			continue
		}
		stats.TotalReviews++
		ratingSum += review.Rating
		switch review.Sentiment {
		case domain.SentimentPositive:
			pos++
		case domain.SentimentNegative:
			neg++
		}
	}
	if stats.TotalReviews > 0 {
		stats.PositivePct = int(math.Round(float64(pos) / float64(stats.TotalReviews) * 100))
		stats.NegativePct = int(math.Round(float64(neg) / float64(stats.TotalReviews) * 100))
		stats.AverageRating = math.Round(float64(ratingSum)/float64(stats.TotalReviews)*10) / 10
	}
	return stats, nil
}
