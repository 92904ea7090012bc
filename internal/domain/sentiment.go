package domain

// Sentiment — итоговая метка тональности отзыва.
type Sentiment string

const (
	SentimentPositive Sentiment = "POS"
	SentimentNegative Sentiment = "NEG"
	SentimentNeutral  Sentiment = "NEU"
	SentimentSpam     Sentiment = "SPAM"
)

// SentimentResult содержит метку и уверенность модели в процентах.
type SentimentResult struct {
	Label      Sentiment
	Confidence float64
}

// NeutralFallback возвращает безопасный результат, когда модель недоступна
// или текст не поддаётся классификации.
func NeutralFallback() SentimentResult {
	return SentimentResult{Label: SentimentNeutral, Confidence: 50.0}
}

// SentimentFromModelLabel приводит сырую метку модели к доменной.
// Незнакомые метки безопасно сводятся к нейтральной.
func SentimentFromModelLabel(raw string) Sentiment {
	switch raw {
	case "LABEL_1", "POS":
		return SentimentPositive
	case "LABEL_0", "NEG":
		return SentimentNegative
	case "LABEL_2", "NEU":
		return SentimentNeutral
	default:
		return SentimentNeutral
	}
}
