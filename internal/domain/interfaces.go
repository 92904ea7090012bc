package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrProductNotFound возвращается, когда товар отсутствует или снят с продажи.
	ErrProductNotFound = errors.New("товар не найден")
	// ErrDealNotFound возвращается, когда для товара нет действующей акции.
	ErrDealNotFound = errors.New("действующая акция не найдена")
	// ErrOrderNotFound возвращается, когда заказ с указанным кодом не существует.
	ErrOrderNotFound = errors.New("заказ не найден")
	// ErrKeywordNotFound возвращается, когда спам-сигнатура не существует.
	ErrKeywordNotFound = errors.New("спам-сигнатура не найдена")
)

// ProductRepo управляет товарами каталога.
type ProductRepo interface {
	GetByID(ctx context.Context, id int64) (Product, error)
	ListByIDs(ctx context.Context, ids []int64) ([]Product, error)
}

// DealRepo возвращает акции на товары.
type DealRepo interface {
	// ActiveDeal возвращает единственную действующую акцию на товар:
	// наибольший приоритет, при равенстве — самая свежая.
	ActiveDeal(ctx context.Context, productID int64, now time.Time) (WeekendDeal, error)
}

// ReviewRepo управляет отзывами.
type ReviewRepo interface {
	Create(ctx context.Context, review Review) (Review, error)
	UpdateSentiment(ctx context.Context, reviewID int64, sentiment Sentiment) error
	MarkSpam(ctx context.Context, reviewID int64, reason string) error
	ListNotFlagged(ctx context.Context) ([]Review, error)
	ListAll(ctx context.Context) ([]Review, error)
}

// SpamKeywordRepo управляет спам-сигнатурами.
type SpamKeywordRepo interface {
	ListActive(ctx context.Context) ([]SpamKeyword, error)
	List(ctx context.Context) ([]SpamKeyword, error)
	Create(ctx context.Context, keyword SpamKeyword) (SpamKeyword, error)
	Update(ctx context.Context, keyword SpamKeyword) error
	Delete(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// OrderRepo управляет заказами.
type OrderRepo interface {
	Create(ctx context.Context, order Order) (Order, error)
	GetByCode(ctx context.Context, code string) (Order, error)
	ConfirmPayment(ctx context.Context, code string) error
}

// Cache используется для TTL-хранилищ с явной инвалидацией.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SessionStore хранит корзину пользователя между запросами.
type SessionStore interface {
	LoadCart(ctx context.Context, sessionID string) (map[int64]CartItem, error)
	SaveCart(ctx context.Context, sessionID string, cart map[int64]CartItem) error
	DeleteCart(ctx context.Context, sessionID string) error
}

// SentimentClassifier оценивает тональность текста. Ошибки классификации
// никогда не блокируют отправку отзыва: реализация обязана вернуть
// нейтральный фолбэк вместо ошибки.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) SentimentResult
}

// SpamDetector проверяет комментарий по актуальному набору сигнатур.
type SpamDetector interface {
	Detect(ctx context.Context, comment string) (SpamVerdict, error)
	Evaluate(ctx context.Context, comment string, rating int) (SpamVerdict, error)
}

// SweepQueue публикует и выдаёт задачи повторной модерации.
type SweepQueue interface {
	Enqueue(ctx context.Context, job SweepJob) error
	Pop(ctx context.Context) (SweepJob, error)
}
