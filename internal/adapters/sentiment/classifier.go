package sentiment

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"beauty-shop/internal/domain"
	"beauty-shop/internal/infra/inference"
	"beauty-shop/internal/infra/metrics"
)

// Контекстное окно модели: более длинный текст обрезается перед инференсом.
const maxInputRunes = 512

const minInputRunes = 3

// Engine — движок классификации текста.
type Engine interface {
	Classify(ctx context.Context, text string) (inference.Prediction, error)
}

// Loader создаёт движок. Вызывается не более одного раза за процесс.
type Loader func() (Engine, error)

// Classifier оборачивает движок ленивой инициализацией под sync.Once.
// Неудачная загрузка переводит классификатор в постоянный нейтральный
// фолбэк без повторных попыток; сбой отдельного инференса также сводится
// к фолбэку — классификация никогда не блокирует отправку отзыва.
type Classifier struct {
	load   Loader
	once   sync.Once
	engine Engine
	log    zerolog.Logger
}

var _ domain.SentimentClassifier = (*Classifier)(nil)

// NewClassifier создаёт классификатор с отложенной загрузкой модели.
func NewClassifier(load Loader, log zerolog.Logger) *Classifier {
	return &Classifier{load: load, log: log}
}

// Classify возвращает тональность текста. Пустой или слишком короткий
// текст считается неопределённым, а не ошибочным.
func (c *Classifier) Classify(ctx context.Context, text string) domain.SentimentResult {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minInputRunes {
		return domain.NeutralFallback()
	}

	c.once.Do(func() {
		engine, err := c.load()
		if err != nil {
			c.log.Error().Err(err).Msg("модель тональности не загрузилась, работаем в фолбэке")
			return
		}
		c.engine = engine
	})
	if c.engine == nil {
		metrics.SentimentFallbackTotal.Inc()
		return domain.NeutralFallback()
	}

	if runes := []rune(text); len(runes) > maxInputRunes {
		text = string(runes[:maxInputRunes])
	}

	start := time.Now()
	pred, err := c.engine.Classify(ctx, text)
	metrics.SentimentInferenceSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		c.log.Warn().Err(err).Msg("инференс тональности не удался")
		metrics.SentimentFallbackTotal.Inc()
		return domain.NeutralFallback()
	}

	return domain.SentimentResult{
		Label:      domain.SentimentFromModelLabel(pred.Label),
		Confidence: math.Round(pred.Score*100*100) / 100,
	}
}
