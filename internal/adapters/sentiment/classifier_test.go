package sentiment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"beauty-shop/internal/domain"
	"beauty-shop/internal/infra/inference"
)

type stubEngine struct {
	pred     inference.Prediction
	err      error
	lastText string
	calls    int
}

func (s *stubEngine) Classify(_ context.Context, text string) (inference.Prediction, error) {
	s.calls++
	s.lastText = text
	return s.pred, s.err
}

func newTestClassifier(engine Engine, loadErr error) (*Classifier, *int) {
	loads := 0
	load := func() (Engine, error) {
		loads++
		if loadErr != nil {
			return nil, loadErr
		}
		return engine, nil
	}
	return NewClassifier(load, zerolog.Nop()), &loads
}

func TestClassifyShortTextFallback(t *testing.T) {
	engine := &stubEngine{}
	c, loads := newTestClassifier(engine, nil)

	for _, text := range []string{"", "ab", "  a  "} {
		res := c.Classify(context.Background(), text)
		if res.Label != domain.SentimentNeutral || res.Confidence != 50.0 {
			t.Fatalf("для %q ожидали (NEU, 50.0), получили (%s, %v)", text, res.Label, res.Confidence)
		}
	}
	if *loads != 0 {
		t.Fatalf("короткий текст не должен инициировать загрузку модели")
	}
	if engine.calls != 0 {
		t.Fatalf("короткий текст не должен доходить до инференса")
	}
}

func TestClassifyMapsLabels(t *testing.T) {
	cases := []struct {
		raw   string
		want  domain.Sentiment
		score float64
		conf  float64
	}{
		{"LABEL_1", domain.SentimentPositive, 0.98765, 98.77},
		{"LABEL_0", domain.SentimentNegative, 0.755, 75.5},
		{"LABEL_2", domain.SentimentNeutral, 0.5, 50.0},
		{"POS", domain.SentimentPositive, 0.9, 90.0},
		{"MYSTERY", domain.SentimentNeutral, 0.6, 60.0},
	}
	for _, tc := range cases {
		engine := &stubEngine{pred: inference.Prediction{Label: tc.raw, Score: tc.score}}
		c, _ := newTestClassifier(engine, nil)
		res := c.Classify(context.Background(), "son môi lên màu đẹp")
		if res.Label != tc.want {
			t.Fatalf("метка %q: ожидали %s, получили %s", tc.raw, tc.want, res.Label)
		}
		if res.Confidence != tc.conf {
			t.Fatalf("метка %q: ожидали уверенность %v, получили %v", tc.raw, tc.conf, res.Confidence)
		}
	}
}

func TestClassifyLoadsOnce(t *testing.T) {
	engine := &stubEngine{pred: inference.Prediction{Label: "LABEL_1", Score: 0.9}}
	c, loads := newTestClassifier(engine, nil)

	for i := 0; i < 5; i++ {
		c.Classify(context.Background(), "rất hài lòng")
	}
	if *loads != 1 {
		t.Fatalf("ожидали одну загрузку модели, получили %d", *loads)
	}
	if engine.calls != 5 {
		t.Fatalf("ожидали 5 инференсов, получили %d", engine.calls)
	}
}

func TestClassifyLoadFailurePermanentFallback(t *testing.T) {
	c, loads := newTestClassifier(nil, errors.New("модель не найдена"))

	for i := 0; i < 3; i++ {
		res := c.Classify(context.Background(), "kem dưỡng ẩm tốt")
		if res.Label != domain.SentimentNeutral || res.Confidence != 50.0 {
			t.Fatalf("ожидали фолбэк (NEU, 50.0), получили (%s, %v)", res.Label, res.Confidence)
		}
	}
	if *loads != 1 {
		t.Fatalf("после неудачи загрузка не повторяется, получили %d попыток", *loads)
	}
}

func TestClassifyInferenceErrorFallback(t *testing.T) {
	engine := &stubEngine{err: errors.New("таймаут инференса")}
	c, _ := newTestClassifier(engine, nil)

	res := c.Classify(context.Background(), "sữa rửa mặt dịu nhẹ")
	if res.Label != domain.SentimentNeutral || res.Confidence != 50.0 {
		t.Fatalf("ожидали фолбэк, получили (%s, %v)", res.Label, res.Confidence)
	}
}

func TestClassifyTruncatesLongText(t *testing.T) {
	engine := &stubEngine{pred: inference.Prediction{Label: "LABEL_2", Score: 0.5}}
	c, _ := newTestClassifier(engine, nil)

	c.Classify(context.Background(), strings.Repeat("т", 600))
	if got := utf8.RuneCountInString(engine.lastText); got != 512 {
		t.Fatalf("ожидали обрезку до 512 символов, получили %d", got)
	}
}

func TestLexiconLabels(t *testing.T) {
	lex := NewLexicon()
	pred, err := lex.Classify(context.Background(), "sản phẩm tốt, rất hài lòng")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if pred.Label != "LABEL_1" {
		t.Fatalf("ожидали LABEL_1, получили %s", pred.Label)
	}

	pred, _ = lex.Classify(context.Background(), "quá tệ, rất thất vọng")
	if pred.Label != "LABEL_0" {
		t.Fatalf("ожидали LABEL_0, получили %s", pred.Label)
	}

	pred, _ = lex.Classify(context.Background(), "giao hàng đúng hẹn")
	if pred.Label != "LABEL_2" || pred.Score != 0.5 {
		t.Fatalf("ожидали нейтральный (LABEL_2, 0.5), получили (%s, %v)", pred.Label, pred.Score)
	}
}
