package cart

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"beauty-shop/internal/domain"
	"beauty-shop/internal/usecase/pricing"
)

// Service реализует корзину, живущую в сессии пользователя.
// Цена позиции — снимок, который освежается при каждом добавлении:
// если акция началась или закончилась между добавлениями, сохранённая
// цена меняется вместе с ней.
type Service struct {
	products domain.ProductRepo
	sessions domain.SessionStore
	resolver *pricing.Resolver
}

// NewService создаёт сервис корзины.
func NewService(products domain.ProductRepo, sessions domain.SessionStore, resolver *pricing.Resolver) *Service {
	return &Service{products: products, sessions: sessions, resolver: resolver}
}

// Add добавляет товар в корзину. override заменяет количество вместо
// приращения. Цена существующей позиции переопределяется свежей.
func (s *Service) Add(ctx context.Context, sessionID string, productID int64, quantity int, override bool) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("получение товара: %w", err)
	}
	items, err := s.sessions.LoadCart(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("загрузка корзины: %w", err)
	}
	if items == nil {
		items = map[int64]domain.CartItem{}
	}

	price := s.resolver.Resolve(ctx, product, time.Now().UTC())

	item := items[productID]
	item.Price = price
	if override {
		item.Quantity = quantity
	} else {
		item.Quantity += quantity
	}
	items[productID] = item

	if err := s.sessions.SaveCart(ctx, sessionID, items); err != nil {
		return fmt.Errorf("сохранение корзины: %w", err)
	}
	return nil
}

// Decrease уменьшает количество на единицу; на нуле позиция удаляется.
func (s *Service) Decrease(ctx context.Context, sessionID string, productID int64) error {
	items, err := s.sessions.LoadCart(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("загрузка корзины: %w", err)
	}
	item, ok := items[productID]
	if !ok {
		return nil
	}
	item.Quantity--
	if item.Quantity <= 0 {
		delete(items, productID)
	} else {
		items[productID] = item
	}
	if err := s.sessions.SaveCart(ctx, sessionID, items); err != nil {
		return fmt.Errorf("сохранение корзины: %w", err)
	}
	return nil
}

// Remove удаляет позицию безусловно.
func (s *Service) Remove(ctx context.Context, sessionID string, productID int64) error {
	items, err := s.sessions.LoadCart(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("загрузка корзины: %w", err)
	}
	if _, ok := items[productID]; !ok {
		return nil
	}
	delete(items, productID)
	if err := s.sessions.SaveCart(ctx, sessionID, items); err != nil {
		return fmt.Errorf("сохранение корзины: %w", err)
	}
	return nil
}

// Lines объединяет позиции с живыми данными товаров. Позиции удалённых
// товаров молча выпадают из выдачи, но остаются в сессии.
func (s *Service) Lines(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	items, err := s.sessions.LoadCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("загрузка корзины: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("получение товаров: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(products))
	for _, p := range products {
		item, ok := items[p.ID]
		if !ok {
			continue
		}
		lines = append(lines, domain.CartLine{
			Product:    p,
			Quantity:   item.Quantity,
			Price:      item.Price,
			TotalPrice: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Product.ID < lines[j].Product.ID })
	return lines, nil
}

// Total возвращает сумму цена×количество по всем сохранённым позициям.
func (s *Service) Total(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	items, err := s.sessions.LoadCart(ctx, sessionID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("загрузка корзины: %w", err)
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total, nil
}

// ItemCount возвращает суммарное количество единиц в корзине.
func (s *Service) ItemCount(ctx context.Context, sessionID string) (int, error) {
	items, err := s.sessions.LoadCart(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("загрузка корзины: %w", err)
	}
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count, nil
}

// Clear уничтожает корзину в сессии.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteCart(ctx, sessionID); err != nil {
		return fmt.Errorf("очистка корзины: %w", err)
	}
	return nil
}
