package spam

import (
	"context"
	"errors"
	"strings"
	"testing"

	"beauty-shop/internal/domain"
)

type stubKeywords struct {
	keywords []domain.SpamKeyword
	err      error
}

func (s *stubKeywords) ActiveKeywords(context.Context) ([]domain.SpamKeyword, error) {
	return s.keywords, s.err
}

func newTestDetector(keywords ...domain.SpamKeyword) *Detector {
	return NewDetector(&stubKeywords{keywords: keywords})
}

func TestDetectKeywordMatch(t *testing.T) {
	d := newTestDetector(
		domain.SpamKeyword{Keyword: "vay tiền", Severity: 95, Category: domain.SpamCategoryFinance},
		domain.SpamKeyword{Keyword: "zalo", Severity: 85, Category: domain.SpamCategoryContact},
	)
	verdict, err := d.Detect(context.Background(), "Liên hệ Zalo để VAY TIỀN nhanh")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !verdict.IsSpam {
		t.Fatalf("ожидали спам-вердикт")
	}
	if verdict.Confidence != 95 {
		t.Fatalf("ожидали уверенность по severity сигнатуры, получили %d", verdict.Confidence)
	}
	if verdict.Category != domain.SpamCategoryFinance {
		t.Fatalf("ожидали категорию FINANCE, получили %s", verdict.Category)
	}
	if verdict.Reason != "vay tiền" {
		t.Fatalf("ожидали причину с сигнатурой, получили %q", verdict.Reason)
	}
}

func TestDetectKeywordWinsOverHeuristics(t *testing.T) {
	d := newTestDetector(domain.SpamKeyword{Keyword: "hàng giả", Severity: 70, Category: domain.SpamCategoryFake})
	verdict, err := d.Detect(context.Background(), "hàng giả hàng giả hàng giả")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Category != domain.SpamCategoryFake || verdict.Confidence != 70 {
		t.Fatalf("сигнатура должна срабатывать раньше эвристик: %+v", verdict)
	}
}

func TestDetectRepeatedWord(t *testing.T) {
	d := newTestDetector()
	verdict, err := d.Detect(context.Background(), "tuyệt vời tuyệt vời tuyệt vời")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !verdict.IsSpam || verdict.Category != domain.SpamCategoryRepeat {
		t.Fatalf("ожидали категорию REPEAT: %+v", verdict)
	}
	if verdict.Confidence != 90 {
		t.Fatalf("ожидали уверенность 90, получили %d", verdict.Confidence)
	}
	if !strings.Contains(verdict.Reason, "tuyệt") {
		t.Fatalf("причина должна называть повторённое слово: %q", verdict.Reason)
	}
}

func TestDetectShortWordsNotCounted(t *testing.T) {
	d := newTestDetector()
	verdict, err := d.Detect(context.Background(), "ok ok ok sản phẩm tốt")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.IsSpam {
		t.Fatalf("слова короче трёх символов не должны считаться повтором")
	}
}

func TestDetectSpecialCharacters(t *testing.T) {
	d := newTestDetector()
	verdict, err := d.Detect(context.Background(), "!!!???###!!! good")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !verdict.IsSpam || verdict.Confidence != 70 {
		t.Fatalf("ожидали срабатывание по спецсимволам: %+v", verdict)
	}
	if verdict.Category != domain.SpamCategoryOther {
		t.Fatalf("ожидали категорию OTHER, получили %s", verdict.Category)
	}
}

func TestDetectUppercase(t *testing.T) {
	d := newTestDetector()
	verdict, err := d.Detect(context.Background(), "HÀNG RẤT TỐT MUA NGAY")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !verdict.IsSpam || verdict.Confidence != 60 {
		t.Fatalf("ожидали срабатывание по заглавным: %+v", verdict)
	}
}

func TestDetectShortCommentSkipsHeuristics(t *testing.T) {
	d := newTestDetector()
	verdict, err := d.Detect(context.Background(), "OK!!")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.IsSpam {
		t.Fatalf("комментарии до шести символов не проверяются эвристиками")
	}
}

func TestDetectClean(t *testing.T) {
	d := newTestDetector(domain.SpamKeyword{Keyword: "vay tiền", Severity: 95, Category: domain.SpamCategoryFinance})
	verdict, err := d.Detect(context.Background(), "Son môi lên màu đẹp, sẽ mua lại")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.IsSpam || verdict.Confidence != 0 {
		t.Fatalf("ожидали чистый вердикт: %+v", verdict)
	}
}

func TestEvaluateFiveStarBoost(t *testing.T) {
	d := newTestDetector(domain.SpamKeyword{Keyword: "giảm giá sốc", Severity: 85, Category: domain.SpamCategoryContact})
	verdict, err := d.Evaluate(context.Background(), "giảm giá sốc mua ngay", 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Confidence != 95 {
		t.Fatalf("ожидали 85+10=95, получили %d", verdict.Confidence)
	}
	if !strings.Contains(verdict.Reason, "5 звёзд") {
		t.Fatalf("причина должна упоминать рейтинг: %q", verdict.Reason)
	}
}

func TestEvaluateBoostCapped(t *testing.T) {
	d := newTestDetector(domain.SpamKeyword{Keyword: "trúng thưởng", Severity: 100, Category: domain.SpamCategoryFinance})
	verdict, err := d.Evaluate(context.Background(), "bạn đã trúng thưởng", 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Confidence != 100 {
		t.Fatalf("уверенность не должна превышать 100, получили %d", verdict.Confidence)
	}
}

func TestEvaluateNoBoostBelowFloor(t *testing.T) {
	d := newTestDetector(domain.SpamKeyword{Keyword: "inbox", Severity: 60, Category: domain.SpamCategoryContact})
	verdict, err := d.Evaluate(context.Background(), "inbox mình nhé", 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Confidence != 60 {
		t.Fatalf("severity ниже 80 не усиливается, получили %d", verdict.Confidence)
	}
}

func TestEvaluateNoBoostLowRating(t *testing.T) {
	d := newTestDetector(domain.SpamKeyword{Keyword: "vay tiền", Severity: 95, Category: domain.SpamCategoryFinance})
	verdict, err := d.Evaluate(context.Background(), "vay tiền lãi thấp", 3)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Confidence != 95 {
		t.Fatalf("без пяти звёзд уверенность не меняется, получили %d", verdict.Confidence)
	}
}

func TestDetectProviderError(t *testing.T) {
	d := NewDetector(&stubKeywords{err: errors.New("база недоступна")})
	if _, err := d.Detect(context.Background(), "bình thường"); err == nil {
		t.Fatalf("ожидали ошибку провайдера сигнатур")
	}
}
