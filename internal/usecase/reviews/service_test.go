package reviews

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"beauty-shop/internal/domain"
)

type stubReviewRepo struct {
	nextID     int64
	created    []domain.Review
	sentiments map[int64]domain.Sentiment
	spamMarks  map[int64]string
}

func newStubReviewRepo() *stubReviewRepo {
	return &stubReviewRepo{sentiments: map[int64]domain.Sentiment{}, spamMarks: map[int64]string{}}
}

func (r *stubReviewRepo) Create(_ context.Context, review domain.Review) (domain.Review, error) {
	r.nextID++
	review.ID = r.nextID
	r.created = append(r.created, review)
	return review, nil
}

func (r *stubReviewRepo) UpdateSentiment(_ context.Context, id int64, sentiment domain.Sentiment) error {
	r.sentiments[id] = sentiment
	return nil
}

func (r *stubReviewRepo) MarkSpam(_ context.Context, id int64, reason string) error {
	r.spamMarks[id] = reason
	for i := range r.created {
		if r.created[i].ID == id {
			r.created[i].IsSpam = true
			r.created[i].SpamReason = reason
			r.created[i].Sentiment = domain.SentimentSpam
		}
	}
	return nil
}

func (r *stubReviewRepo) ListNotFlagged(context.Context) ([]domain.Review, error) {
	var out []domain.Review
	for _, review := range r.created {
		if !review.IsSpam {
			out = append(out, review)
		}
	}
	return out, nil
}

func (r *stubReviewRepo) ListAll(context.Context) ([]domain.Review, error) {
	return append([]domain.Review(nil), r.created...), nil
}

type stubClassifier struct {
	result domain.SentimentResult
	calls  int
}

func (c *stubClassifier) Classify(context.Context, string) domain.SentimentResult {
	c.calls++
	return c.result
}

type stubDetector struct {
	verdict domain.SpamVerdict
	err     error
	calls   int
}

func (d *stubDetector) Detect(context.Context, string) (domain.SpamVerdict, error) {
	return d.verdict, d.err
}

func (d *stubDetector) Evaluate(context.Context, string, int) (domain.SpamVerdict, error) {
	d.calls++
	return d.verdict, d.err
}

func TestSubmitEmptyComment(t *testing.T) {
	repo := newStubReviewRepo()
	svc := NewService(repo, &stubClassifier{}, &stubDetector{}, zerolog.Nop())

	_, err := svc.Submit(context.Background(), 1, 1, "   ", 5)
	if !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("ожидали ErrEmptyComment, получили %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("пустой комментарий не должен создавать запись")
	}
}

func TestSubmitCleanReview(t *testing.T) {
	repo := newStubReviewRepo()
	classifier := &stubClassifier{result: domain.SentimentResult{Label: domain.SentimentPositive, Confidence: 97.5}}
	svc := NewService(repo, classifier, &stubDetector{}, zerolog.Nop())

	review, err := svc.Submit(context.Background(), 1, 2, "Son lên màu rất đẹp", 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if review.Sentiment != domain.SentimentPositive || review.ConfidenceScore != 97.5 {
		t.Fatalf("ожидали результат классификатора, получили %+v", review)
	}
	if review.IsSpam || review.SpamReason != "" {
		t.Fatalf("чистый отзыв не должен помечаться спамом")
	}
	if len(repo.sentiments) != 0 {
		t.Fatalf("без спама второе обновление не выполняется")
	}
}

func TestSubmitSpamOverridesSentiment(t *testing.T) {
	repo := newStubReviewRepo()
	classifier := &stubClassifier{result: domain.SentimentResult{Label: domain.SentimentPositive, Confidence: 99.0}}
	detector := &stubDetector{verdict: domain.SpamVerdict{
		IsSpam:     true,
		Reason:     "содержит спам: \"vay tiền\"",
		Confidence: 95,
		Category:   domain.SpamCategoryFinance,
	}}
	svc := NewService(repo, classifier, detector, zerolog.Nop())

	review, err := svc.Submit(context.Background(), 1, 2, "vay tiền lãi suất thấp", 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if review.Sentiment != domain.SentimentSpam {
		t.Fatalf("спам-вердикт должен перекрывать тональность, получили %s", review.Sentiment)
	}
	if got := repo.sentiments[review.ID]; got != domain.SentimentSpam {
		t.Fatalf("ожидали второе обновление на SPAM, получили %s", got)
	}
	// первая запись хранит метку классификатора: перекрытие — отдельный шаг
	if repo.created[0].Sentiment != domain.SentimentPositive {
		t.Fatalf("первичная запись должна сохранять метку классификатора")
	}
	if !repo.created[0].IsSpam || repo.created[0].SpamReason == "" {
		t.Fatalf("спам-поля должны заполняться при создании")
	}
}

func TestSubmitDetectorFailureBestEffort(t *testing.T) {
	repo := newStubReviewRepo()
	classifier := &stubClassifier{result: domain.SentimentResult{Label: domain.SentimentNegative, Confidence: 88.0}}
	detector := &stubDetector{err: errors.New("база сигнатур недоступна")}
	svc := NewService(repo, classifier, detector, zerolog.Nop())

	review, err := svc.Submit(context.Background(), 1, 2, "kem bị kích ứng da", 2)
	if err != nil {
		t.Fatalf("сбой детектора не должен блокировать отзыв: %v", err)
	}
	if review.IsSpam {
		t.Fatalf("без вердикта отзыв не помечается")
	}
	if review.Sentiment != domain.SentimentNegative {
		t.Fatalf("тональность должна сохраниться, получили %s", review.Sentiment)
	}
	if classifier.calls != 1 {
		t.Fatalf("классификатор должен вызываться независимо от детектора")
	}
}

func TestSubmitDefaultRating(t *testing.T) {
	repo := newStubReviewRepo()
	svc := NewService(repo, &stubClassifier{result: domain.SentimentResult{Label: domain.SentimentNeutral, Confidence: 50}}, &stubDetector{}, zerolog.Nop())

	review, err := svc.Submit(context.Background(), 1, 2, "bình thường", 0)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if review.Rating != 5 {
		t.Fatalf("нулевой рейтинг должен заменяться на 5, получили %d", review.Rating)
	}
}

func TestSweepFlagsOldReviews(t *testing.T) {
	repo := newStubReviewRepo()
	detector := &stubDetector{}
	classifier := &stubClassifier{result: domain.SentimentResult{Label: domain.SentimentPositive, Confidence: 90}}
	svc := NewService(repo, classifier, detector, zerolog.Nop())

	// отзыв создан до появления сигнатуры
	if _, err := svc.Submit(context.Background(), 1, 2, "mua hàng inbox mình", 5); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	detector.verdict = domain.SpamVerdict{IsSpam: true, Reason: "содержит спам: \"inbox\"", Confidence: 60, Category: domain.SpamCategoryContact}
	flagged, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if flagged != 1 {
		t.Fatalf("ожидали одну пометку, получили %d", flagged)
	}
	if reason := repo.spamMarks[1]; reason == "" {
		t.Fatalf("отзыв должен получить причину спама")
	}
}

func TestSweepIdempotent(t *testing.T) {
	repo := newStubReviewRepo()
	detector := &stubDetector{verdict: domain.SpamVerdict{IsSpam: true, Reason: "содержит спам: \"zalo\"", Confidence: 85, Category: domain.SpamCategoryContact}}
	classifier := &stubClassifier{result: domain.SentimentResult{Label: domain.SentimentPositive, Confidence: 90}}
	svc := NewService(repo, classifier, detector, zerolog.Nop())

	if _, err := svc.Submit(context.Background(), 1, 2, "liên hệ zalo nhé", 5); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	evaluationsBefore := detector.calls
	flagged, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if flagged != 0 {
		t.Fatalf("уже помеченный отзыв не трогаем, получили %d", flagged)
	}
	if detector.calls != evaluationsBefore {
		t.Fatalf("помеченные отзывы не должны проверяться заново")
	}

	if flagged, _ := svc.Sweep(context.Background()); flagged != 0 {
		t.Fatalf("повторный проход не меняет состояние, получили %d", flagged)
	}
}

func TestBuildStats(t *testing.T) {
	repo := newStubReviewRepo()
	repo.created = []domain.Review{
		{ID: 1, Rating: 5, Sentiment: domain.SentimentPositive},
		{ID: 2, Rating: 4, Sentiment: domain.SentimentPositive},
		{ID: 3, Rating: 1, Sentiment: domain.SentimentNegative},
		{ID: 4, Rating: 5, Sentiment: domain.SentimentSpam, IsSpam: true},
	}
	svc := NewService(repo, &stubClassifier{}, &stubDetector{}, zerolog.Nop())

	stats, err := svc.BuildStats(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if stats.TotalReviews != 3 || stats.SpamCount != 1 {
		t.Fatalf("неверный подсчёт отзывов: %+v", stats)
	}
	if stats.PositivePct != 67 || stats.NegativePct != 33 {
		t.Fatalf("неверные проценты тональности: %+v", stats)
	}
	if stats.AverageRating != 3.3 {
		t.Fatalf("ожидали средний рейтинг 3.3, получили %v", stats.AverageRating)
	}
}
