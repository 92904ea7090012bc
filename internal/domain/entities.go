package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога.
type Product struct {
	ID            int64
	Name          string
	SKU           string
	Price         decimal.Decimal
	SalePrice     decimal.Decimal
	StockQuantity int
	SoldQuantity  int
	Status        bool
	CreatedAt     time.Time
}

// WeekendDeal описывает ограниченную по времени акцию на товар.
type WeekendDeal struct {
	ID           int64
	ProductID    int64
	Title        string
	DealPrice    decimal.Decimal
	StartTime    time.Time
	EndTime      time.Time
	MaxQuantity  int
	SoldQuantity int
	IsActive     bool
	Priority     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValid сообщает, действует ли акция в указанный момент.
func (d WeekendDeal) IsValid(now time.Time) bool {
	return d.IsActive && !now.Before(d.StartTime) && !now.After(d.EndTime)
}

// IsSoldOut сообщает, исчерпан ли лимит акции. MaxQuantity == 0 — без лимита.
func (d WeekendDeal) IsSoldOut() bool {
	if d.MaxQuantity == 0 {
		return false
	}
	return d.SoldQuantity >= d.MaxQuantity
}

// Review представляет отзыв покупателя о товаре.
type Review struct {
	ID              int64
	UserID          int64
	ProductID       int64
	OrderID         *int64
	Rating          int
	Comment         string
	Sentiment       Sentiment
	ConfidenceScore float64
	IsSpam          bool
	SpamReason      string
	IsApproved      bool
	CreatedAt       time.Time
}

// SpamKeyword описывает спам-сигнатуру, управляемую администратором.
type SpamKeyword struct {
	ID          int64
	Keyword     string
	Category    SpamCategory
	Severity    int
	IsActive    bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartItem хранит позицию корзины внутри сессии.
type CartItem struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// CartLine — позиция корзины, объединённая с живыми данными товара.
type CartLine struct {
	Product    Product
	Quantity   int
	Price      decimal.Decimal
	TotalPrice decimal.Decimal
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipping  OrderStatus = "shipping"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderReturned  OrderStatus = "returned"
)

// Order описывает заказ со снимком данных получателя.
type Order struct {
	ID            int64
	OrderCode     string
	UserID        int64
	FullName      string
	Phone         string
	Address       string
	TotalMoney    decimal.Decimal
	ShippingFee   decimal.Decimal
	FinalMoney    decimal.Decimal
	PaymentMethod string
	PaymentStatus bool
	Status        OrderStatus
	Note          string
	CreatedAt     time.Time
	Items         []OrderItem
}

// OrderItem хранит позицию заказа с зафиксированной ценой покупки.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// SweepJob — задача на повторную модерацию отзывов.
type SweepJob struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}
