package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"beauty-shop/internal/domain"
)

// Resolver определяет действующую цену товара.
// Приоритет: действующая акция > скидочная цена > базовая цена.
// Несогласованные данные акций не ошибка: цепочка просто падает ниже.
type Resolver struct {
	deals domain.DealRepo
}

// NewResolver создаёт резолвер цен.
func NewResolver(deals domain.DealRepo) *Resolver {
	return &Resolver{deals: deals}
}

// Resolve возвращает цену товара на указанный момент времени.
func (r *Resolver) Resolve(ctx context.Context, product domain.Product, now time.Time) decimal.Decimal {
	if r.deals != nil {
		deal, err := r.deals.ActiveDeal(ctx, product.ID, now)
		if err == nil && deal.IsValid(now) && !deal.IsSoldOut() {
			return deal.DealPrice
		}
	}
	if product.SalePrice.IsPositive() {
		return product.SalePrice
	}
	return product.Price
}
