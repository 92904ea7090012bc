package keywords

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"beauty-shop/internal/adapters/spam"
	"beauty-shop/internal/domain"
)

var (
	// ErrEmptyKeyword возвращается при пустом тексте сигнатуры.
	ErrEmptyKeyword = errors.New("пустая сигнатура")
	// ErrBadSeverity возвращается при severity вне диапазона 0..100.
	ErrBadSeverity = errors.New("severity вне диапазона 0..100")
)

// Service — админские операции над спам-сигнатурами. Любая мутация
// сбрасывает кэш активного набора и ставит задачу повторной модерации,
// чтобы новые сигнатуры ретроактивно ловили уже сохранённые отзывы.
type Service struct {
	repo  domain.SpamKeywordRepo
	store *spam.KeywordStore
	queue domain.SweepQueue
	log   zerolog.Logger
}

// NewService создаёт сервис сигнатур. queue может быть nil: тогда
// повторная модерация не ставится.
func NewService(repo domain.SpamKeywordRepo, store *spam.KeywordStore, queue domain.SweepQueue, log zerolog.Logger) *Service {
	return &Service{repo: repo, store: store, queue: queue, log: log}
}

// List возвращает все сигнатуры, включая выключенные.
func (s *Service) List(ctx context.Context) ([]domain.SpamKeyword, error) {
	keywords, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("список сигнатур: %w", err)
	}
	return keywords, nil
}

// Create добавляет сигнатуру. Текст приводится к нижнему регистру:
// детектор сравнивает по нормализованному комментарию.
func (s *Service) Create(ctx context.Context, keyword domain.SpamKeyword) (domain.SpamKeyword, error) {
	if err := validate(&keyword); err != nil {
		return domain.SpamKeyword{}, err
	}
	created, err := s.repo.Create(ctx, keyword)
	if err != nil {
		return domain.SpamKeyword{}, fmt.Errorf("создание сигнатуры: %w", err)
	}
	s.afterMutation(ctx, fmt.Sprintf("добавлена сигнатура %q", created.Keyword))
	return created, nil
}

// Update изменяет сигнатуру целиком.
func (s *Service) Update(ctx context.Context, keyword domain.SpamKeyword) error {
	if err := validate(&keyword); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, keyword); err != nil {
		return fmt.Errorf("обновление сигнатуры: %w", err)
	}
	s.afterMutation(ctx, fmt.Sprintf("изменена сигнатура %q", keyword.Keyword))
	return nil
}

// SetActive включает или выключает сигнатуру.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("переключение сигнатуры: %w", err)
	}
	s.afterMutation(ctx, fmt.Sprintf("сигнатура %d: active=%t", id, active))
	return nil
}

// Delete удаляет сигнатуру.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("удаление сигнатуры: %w", err)
	}
	s.afterMutation(ctx, fmt.Sprintf("удалена сигнатура %d", id))
	return nil
}

// afterMutation сбрасывает кэш и ставит задачу повторной модерации.
// Обе операции best-effort: сигнатура уже сохранена.
func (s *Service) afterMutation(ctx context.Context, reason string) {
	if s.store != nil {
		_ = s.store.Invalidate(ctx)
	}
	if s.queue == nil {
		return
	}
	job := domain.SweepJob{Reason: reason, RequestedAt: time.Now().UTC()}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Warn().Err(err).Msg("не удалось поставить задачу повторной модерации")
	}
}

func validate(keyword *domain.SpamKeyword) error {
	keyword.Keyword = strings.ToLower(strings.TrimSpace(keyword.Keyword))
	if keyword.Keyword == "" {
		return ErrEmptyKeyword
	}
	if keyword.Severity < 0 || keyword.Severity > 100 {
		return ErrBadSeverity
	}
	if keyword.Category == "" {
		keyword.Category = domain.SpamCategoryOther
	}
	return nil
}
