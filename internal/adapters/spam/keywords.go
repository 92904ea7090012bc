package spam

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"beauty-shop/internal/domain"
	"beauty-shop/internal/infra/metrics"
)

const (
	cacheKey = "spam_keywords_active"
	cacheTTL = 5 * time.Minute
)

// KeywordStore отдаёт активные спам-сигнатуры через сквозной кэш.
// Недоступный кэш не фатален: чтение уходит напрямую в репозиторий.
type KeywordStore struct {
	repo  domain.SpamKeywordRepo
	cache domain.Cache
	log   zerolog.Logger
}

// NewKeywordStore создаёт хранилище сигнатур.
func NewKeywordStore(repo domain.SpamKeywordRepo, cache domain.Cache, log zerolog.Logger) *KeywordStore {
	return &KeywordStore{repo: repo, cache: cache, log: log}
}

// ActiveKeywords возвращает активные сигнатуры, отсортированные по убыванию
// severity. Свежесть кэша — 5 минут либо до явной инвалидации.
func (s *KeywordStore) ActiveKeywords(ctx context.Context) ([]domain.SpamKeyword, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var keywords []domain.SpamKeyword
			if err := json.Unmarshal(data, &keywords); err == nil {
				return keywords, nil
			}
			s.log.Warn().Msg("кэш сигнатур повреждён, читаем из БД")
		}
	}

	metrics.KeywordCacheMissTotal.Inc()
	keywords, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("чтение спам-сигнатур: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(keywords); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, cacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("не удалось записать сигнатуры в кэш")
			}
		}
	}
	return keywords, nil
}

// Invalidate сбрасывает кэш. Вызывается при любой мутации сигнатур,
// чтобы следующая проверка увидела актуальный набор.
func (s *KeywordStore) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		s.log.Warn().Err(err).Msg("не удалось инвалидировать кэш сигнатур")
		return err
	}
	return nil
}
