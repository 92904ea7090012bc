package checkout

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"beauty-shop/internal/domain"
	"beauty-shop/internal/infra/metrics"
	"beauty-shop/internal/usecase/cart"
)

var (
	// ErrEmptyCart возвращается при оформлении пустой корзины.
	ErrEmptyCart = errors.New("корзина пуста")
	// ErrInvalidSignature возвращается при колбэке с неверной подписью.
	ErrInvalidSignature = errors.New("неверная подпись колбэка")
)

// Способы оплаты и доставки заказа.
const (
	PaymentCOD   = "COD"
	PaymentVNPay = "VNPAY"

	ShippingFast     = "fast"
	ShippingStandard = "standard"
)

// PaymentGateway абстрагирует платёжный шлюз.
type PaymentGateway interface {
	BuildPaymentURL(returnURL, orderCode string, amount int64, orderInfo, ipAddr, bankCode string, now time.Time) string
	ValidateCallback(params url.Values) bool
	ResponseMessage(code string) string
}

// Checkout — данные формы оформления заказа.
type Checkout struct {
	UserID         int64
	FullName       string
	Phone          string
	Address        string
	Note           string
	PaymentMethod  string
	ShippingMethod string
	BankCode       string
	ClientIP       string
}

// PaymentResult описывает исход колбэка шлюза.
type PaymentResult struct {
	Order   domain.Order
	Success bool
	Message string
}

// Service оформляет заказы и обрабатывает возврат с платёжного шлюза.
type Service struct {
	orders      domain.OrderRepo
	cart        *cart.Service
	gateway     PaymentGateway
	returnURL   string
	fastFee     decimal.Decimal
	standardFee decimal.Decimal
	log         zerolog.Logger
}

// NewService создаёт сервис оформления. Комиссии доставки — в донгах.
func NewService(orders domain.OrderRepo, cartSvc *cart.Service, gateway PaymentGateway, returnURL string, fastFee, standardFee int64, log zerolog.Logger) *Service {
	return &Service{
		orders:      orders,
		cart:        cartSvc,
		gateway:     gateway,
		returnURL:   returnURL,
		fastFee:     decimal.NewFromInt(fastFee),
		standardFee: decimal.NewFromInt(standardFee),
		log:         log,
	}
}

// PlaceOrder фиксирует заказ по текущей корзине: снимки позиций с их
// ценами, комиссия доставки, очистка корзины. Для VNPAY дополнительно
// возвращается ссылка редиректа на шлюз.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string, form Checkout) (domain.Order, string, error) {
	lines, err := s.cart.Lines(ctx, sessionID)
	if err != nil {
		return domain.Order{}, "", fmt.Errorf("чтение корзины: %w", err)
	}
	if len(lines) == 0 {
		return domain.Order{}, "", ErrEmptyCart
	}

	total := decimal.Zero
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		total = total.Add(line.TotalPrice)
		items = append(items, domain.OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			Price:       line.Price,
		})
	}

	shippingFee := s.standardFee
	if form.ShippingMethod == ShippingFast {
		shippingFee = s.fastFee
	}

	order := domain.Order{
		OrderCode:     generateOrderCode(),
		UserID:        form.UserID,
		FullName:      form.FullName,
		Phone:         form.Phone,
		Address:       form.Address,
		TotalMoney:    total,
		ShippingFee:   shippingFee,
		FinalMoney:    total.Add(shippingFee),
		PaymentMethod: form.PaymentMethod,
		Status:        domain.OrderPending,
		Note:          form.Note,
		Items:         items,
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return domain.Order{}, "", fmt.Errorf("создание заказа: %w", err)
	}

	if err := s.cart.Clear(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("order_code", created.OrderCode).Msg("не удалось очистить корзину после заказа")
	}

	paymentURL := ""
	if form.PaymentMethod == PaymentVNPay {
		info := "Thanh toan don hang " + created.OrderCode
		paymentURL = s.gateway.BuildPaymentURL(
			s.returnURL,
			created.OrderCode,
			created.FinalMoney.IntPart(),
			info,
			form.ClientIP,
			form.BankCode,
			time.Now(),
		)
	}

	s.log.Info().
		Str("order_code", created.OrderCode).
		Str("payment", created.PaymentMethod).
		Str("final", created.FinalMoney.String()).
		Msg("заказ оформлен")
	return created, paymentURL, nil
}

// HandleReturn обрабатывает возврат покупателя со шлюза: проверяет
// подпись, находит заказ и при коде "00" подтверждает оплату.
func (s *Service) HandleReturn(ctx context.Context, params url.Values) (PaymentResult, error) {
	if !s.gateway.ValidateCallback(params) {
		metrics.PaymentCallbacksTotal.WithLabelValues("invalid_signature").Inc()
		return PaymentResult{}, ErrInvalidSignature
	}

	orderCode := params.Get("vnp_TxnRef")
	order, err := s.orders.GetByCode(ctx, orderCode)
	if err != nil {
		metrics.PaymentCallbacksTotal.WithLabelValues("unknown_order").Inc()
		return PaymentResult{}, fmt.Errorf("поиск заказа %q: %w", orderCode, err)
	}

	code := params.Get("vnp_ResponseCode")
	message := s.gateway.ResponseMessage(code)
	if code != "00" {
		metrics.PaymentCallbacksTotal.WithLabelValues("declined").Inc()
		s.log.Info().Str("order_code", orderCode).Str("code", code).Msg("оплата отклонена шлюзом")
		return PaymentResult{Order: order, Success: false, Message: message}, nil
	}

	if err := s.orders.ConfirmPayment(ctx, orderCode); err != nil {
		return PaymentResult{}, fmt.Errorf("подтверждение оплаты %q: %w", orderCode, err)
	}
	order.PaymentStatus = true
	order.Status = domain.OrderConfirmed

	metrics.PaymentCallbacksTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("order_code", orderCode).Msg("оплата подтверждена")
	return PaymentResult{Order: order, Success: true, Message: message}, nil
}

// generateOrderCode возвращает код вида ORD-483920.
func generateOrderCode() string {
	const digits = "0123456789"
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			n = big.NewInt(int64(time.Now().UnixNano() % 10))
		}
		code[i] = digits[n.Int64()]
	}
	return "ORD-" + string(code)
}
