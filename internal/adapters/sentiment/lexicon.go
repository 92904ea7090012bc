package sentiment

import (
	"context"
	"strings"

	"beauty-shop/internal/infra/inference"
)

// Lexicon — словарная эвристика для dev-окружения без сервера инференса.
// Отдаёт сырые метки в формате модели, чтобы прогонять ту же конверсию.
type Lexicon struct{}

var _ Engine = (*Lexicon)(nil)

// NewLexicon создаёт движок.
func NewLexicon() *Lexicon {
	return &Lexicon{}
}

var positiveWords = []string{
	"tốt", "tuyệt vời", "thích", "đẹp", "hài lòng", "chất lượng", "mịn", "thơm",
}

var negativeWords = []string{
	"tệ", "xấu", "thất vọng", "kém", "giả", "kích ứng", "không tốt",
}

// Classify оценивает текст по балансу словарных попаданий.
func (l *Lexicon) Classify(_ context.Context, text string) (inference.Prediction, error) {
	lower := strings.ToLower(text)
	pos := 0
	neg := 0
	for _, w := range positiveWords {
		pos += strings.Count(lower, w)
	}
	for _, w := range negativeWords {
		neg += strings.Count(lower, w)
	}

	switch {
	case pos > neg:
		return inference.Prediction{Label: "LABEL_1", Score: score(pos, neg)}, nil
	case neg > pos:
		return inference.Prediction{Label: "LABEL_0", Score: score(neg, pos)}, nil
	default:
		return inference.Prediction{Label: "LABEL_2", Score: 0.5}, nil
	}
}

func score(winner, loser int) float64 {
	s := 0.5 + 0.1*float64(winner-loser)
	if s > 0.95 {
		s = 0.95
	}
	return s
}
