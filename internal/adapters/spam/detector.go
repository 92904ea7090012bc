package spam

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"beauty-shop/internal/domain"
)

const (
	repeatThreshold     = 3
	repeatMinRunes      = 3
	minHeuristicLength  = 5
	specialCharRatio    = 0.30
	uppercaseRatio      = 0.80
	repeatConfidence    = 90
	specialConfidence   = 70
	uppercaseConfidence = 60
	boostSeverityFloor  = 80
	boostAmount         = 10
	confidenceCap       = 100
	fiveStarRating      = 5
)

const specialChars = "!@#$%^&*()_+=[]{};:\"\\|,.<>?/~`"

// KeywordProvider отдаёт актуальный набор активных сигнатур.
type KeywordProvider interface {
	ActiveKeywords(ctx context.Context) ([]domain.SpamKeyword, error)
}

// Detector применяет правила спам-фильтра в фиксированном порядке:
// сигнатуры, повтор слов, доля спецсимволов, доля заглавных.
// Первое сработавшее правило завершает проверку.
type Detector struct {
	keywords KeywordProvider
}

var _ domain.SpamDetector = (*Detector)(nil)

// NewDetector создаёт детектор.
func NewDetector(keywords KeywordProvider) *Detector {
	return &Detector{keywords: keywords}
}

// Detect проверяет комментарий и возвращает вердикт.
func (d *Detector) Detect(ctx context.Context, comment string) (domain.SpamVerdict, error) {
	normalized := strings.ToLower(strings.TrimSpace(comment))

	keywords, err := d.keywords.ActiveKeywords(ctx)
	if err != nil {
		return domain.SpamVerdict{}, err
	}
	for _, kw := range keywords {
		if strings.Contains(normalized, strings.ToLower(kw.Keyword)) {
			return domain.SpamVerdict{
				IsSpam:     true,
				Reason:     kw.Keyword,
				Confidence: kw.Severity,
				Category:   kw.Category,
			}, nil
		}
	}

	if word, ok := repeatedWord(normalized); ok {
		return domain.SpamVerdict{
			IsSpam:     true,
			Reason:     fmt.Sprintf("повтор слова: %s", word),
			Confidence: repeatConfidence,
			Category:   domain.SpamCategoryRepeat,
		}, nil
	}

	length := utf8.RuneCountInString(comment)
	if length > minHeuristicLength {
		special := 0
		upper := 0
		for _, r := range comment {
			if strings.ContainsRune(specialChars, r) {
				special++
			}
			if unicode.IsUpper(r) {
				upper++
			}
		}
		if float64(special) > float64(length)*specialCharRatio {
			return domain.SpamVerdict{
				IsSpam:     true,
				Reason:     "слишком много спецсимволов",
				Confidence: specialConfidence,
				Category:   domain.SpamCategoryOther,
			}, nil
		}
		if float64(upper) > float64(length)*uppercaseRatio {
			return domain.SpamVerdict{
				IsSpam:     true,
				Reason:     "слишком много заглавных букв",
				Confidence: uppercaseConfidence,
				Category:   domain.SpamCategoryOther,
			}, nil
		}
	}

	return domain.SpamVerdict{}, nil
}

// Evaluate дополняет Detect поправкой на рейтинг: подозрительно
// восторженный пятизвёздочный спам получает +10 к уверенности.
func (d *Detector) Evaluate(ctx context.Context, comment string, rating int) (domain.SpamVerdict, error) {
	verdict, err := d.Detect(ctx, comment)
	if err != nil || !verdict.IsSpam {
		return verdict, err
	}

	if verdict.Category == "" {
		verdict.Category = domain.SpamCategoryOther
	}

	if rating == fiveStarRating && verdict.Confidence >= boostSeverityFloor {
		boosted := verdict.Confidence + boostAmount
		if boosted > confidenceCap {
			boosted = confidenceCap
		}
		verdict.Confidence = boosted
		verdict.Reason = fmt.Sprintf("5 звёзд + спам-сигнатура: %q", verdict.Reason)
	} else {
		verdict.Reason = fmt.Sprintf("содержит спам: %q", verdict.Reason)
	}
	return verdict, nil
}

// repeatedWord ищет первый токен длиннее двух символов, встречающийся
// не меньше трёх раз.
func repeatedWord(normalized string) (string, bool) {
	words := strings.Fields(normalized)
	if len(words) < 2 {
		return "", false
	}
	counts := make(map[string]int, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) >= repeatMinRunes {
			counts[w]++
		}
	}
	for _, w := range words {
		if counts[w] >= repeatThreshold {
			return w, true
		}
	}
	return "", false
}
