package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beauty-shop/internal/domain"
	"beauty-shop/internal/infra/metrics"
)

// Postgres объединяет репозитории на основе pgxpool.
type Postgres struct {
	Products *Products
	Deals    *Deals
	Reviews  *Reviews
	Keywords *Keywords
	Orders   *Orders
}

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		Products: &Products{pool: pool},
		Deals:    &Deals{pool: pool},
		Reviews:  &Reviews{pool: pool},
		Keywords: &Keywords{pool: pool},
		Orders:   &Orders{pool: pool},
	}
}

func connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 5*time.Second)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Products реализует domain.ProductRepo.
type Products struct {
	pool *pgxpool.Pool
}

var _ domain.ProductRepo = (*Products)(nil)

// GetByID возвращает активный товар каталога.
func (r *Products) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	var product domain.Product
	start := time.Now()
	err := r.pool.QueryRow(ctx, `
SELECT id, name, sku, price, sale_price, stock_quantity, sold_quantity, status, created_at
FROM products WHERE id=$1 AND status=true
`, id).Scan(&product.ID, &product.Name, &product.SKU, &product.Price, &product.SalePrice, &product.StockQuantity, &product.SoldQuantity, &product.Status, &product.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "products_get_by_id", "products", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, err
}

// ListByIDs возвращает активные товары из перечня идентификаторов.
// Отсутствующие и снятые с продажи товары молча пропускаются.
func (r *Products) ListByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, `
SELECT id, name, sku, price, sale_price, stock_quantity, sold_quantity, status, created_at
FROM products WHERE id = ANY($1) AND status=true
`, ids)
	metrics.ObserveNetworkRequest("postgres", "products_list_by_ids", "products", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.SKU, &product.Price, &product.SalePrice, &product.StockQuantity, &product.SoldQuantity, &product.Status, &product.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// Deals реализует domain.DealRepo.
type Deals struct {
	pool *pgxpool.Pool
}

var _ domain.DealRepo = (*Deals)(nil)

// ActiveDeal возвращает действующую акцию на товар: наибольший приоритет,
// при равенстве — самая свежая.
func (r *Deals) ActiveDeal(ctx context.Context, productID int64, now time.Time) (domain.WeekendDeal, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	var deal domain.WeekendDeal
	start := time.Now()
	err := r.pool.QueryRow(ctx, `
SELECT id, product_id, title, deal_price, start_time, end_time, max_quantity, sold_quantity, is_active, priority, created_at, updated_at
FROM weekend_deals
WHERE product_id=$1 AND is_active=true AND start_time <= $2 AND end_time >= $2
ORDER BY priority DESC, created_at DESC
LIMIT 1
`, productID, now).Scan(&deal.ID, &deal.ProductID, &deal.Title, &deal.DealPrice, &deal.StartTime, &deal.EndTime, &deal.MaxQuantity, &deal.SoldQuantity, &deal.IsActive, &deal.Priority, &deal.CreatedAt, &deal.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "weekend_deals_active", "weekend_deals", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WeekendDeal{}, domain.ErrDealNotFound
	}
	return deal, err
}

// Reviews реализует domain.ReviewRepo.
type Reviews struct {
	pool *pgxpool.Pool
}

var _ domain.ReviewRepo = (*Reviews)(nil)

// Create сохраняет отзыв.
func (r *Reviews) Create(ctx context.Context, review domain.Review) (domain.Review, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
INSERT INTO reviews (user_id, product_id, order_id, rating, comment, sentiment, confidence_score, is_spam, spam_reason, is_approved)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10)
RETURNING id, created_at
`, review.UserID, review.ProductID, review.OrderID, review.Rating, review.Comment, review.Sentiment, review.ConfidenceScore, review.IsSpam, review.SpamReason, review.IsApproved).Scan(&review.ID, &review.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "reviews_insert", "reviews", start, err)
	return review, err
}

// UpdateSentiment переписывает тональность отзыва.
func (r *Reviews) UpdateSentiment(ctx context.Context, reviewID int64, sentiment domain.Sentiment) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := r.pool.Exec(ctx, `UPDATE reviews SET sentiment=$2 WHERE id=$1`, reviewID, sentiment)
	metrics.ObserveNetworkRequest("postgres", "reviews_update_sentiment", "reviews", start, err)
	return err
}

// MarkSpam помечает отзыв спамом с указанием причины.
func (r *Reviews) MarkSpam(ctx context.Context, reviewID int64, reason string) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := r.pool.Exec(ctx, `
UPDATE reviews SET is_spam=true, spam_reason=$2, sentiment=$3 WHERE id=$1
`, reviewID, reason, domain.SentimentSpam)
	metrics.ObserveNetworkRequest("postgres", "reviews_mark_spam", "reviews", start, err)
	return err
}

// ListNotFlagged возвращает отзывы, ещё не помеченные спамом.
func (r *Reviews) ListNotFlagged(ctx context.Context) ([]domain.Review, error) {
	return r.list(ctx, `
SELECT id, user_id, product_id, order_id, rating, comment, sentiment, confidence_score, is_spam, COALESCE(spam_reason,''), is_approved, created_at
FROM reviews WHERE is_spam=false
ORDER BY id
`, "reviews_list_not_flagged")
}

// ListAll возвращает все отзывы.
func (r *Reviews) ListAll(ctx context.Context) ([]domain.Review, error) {
	return r.list(ctx, `
SELECT id, user_id, product_id, order_id, rating, comment, sentiment, confidence_score, is_spam, COALESCE(spam_reason,''), is_approved, created_at
FROM reviews
ORDER BY id
`, "reviews_list_all")
}

func (r *Reviews) list(ctx context.Context, query, operation string) ([]domain.Review, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, query)
	metrics.ObserveNetworkRequest("postgres", operation, "reviews", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reviews []domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.ID, &review.UserID, &review.ProductID, &review.OrderID, &review.Rating, &review.Comment, &review.Sentiment, &review.ConfidenceScore, &review.IsSpam, &review.SpamReason, &review.IsApproved, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// Keywords реализует domain.SpamKeywordRepo.
type Keywords struct {
	pool *pgxpool.Pool
}

var _ domain.SpamKeywordRepo = (*Keywords)(nil)

// ListActive возвращает активные спам-сигнатуры по убыванию severity.
// Порядок важен: детектор берёт первое совпадение.
func (r *Keywords) ListActive(ctx context.Context) ([]domain.SpamKeyword, error) {
	return r.list(ctx, `
SELECT id, keyword, category, severity, is_active, COALESCE(description,''), created_at, updated_at
FROM spam_keywords WHERE is_active=true
ORDER BY severity DESC, id
`, "spam_keywords_list_active")
}

// List возвращает все сигнатуры, включая выключенные.
func (r *Keywords) List(ctx context.Context) ([]domain.SpamKeyword, error) {
	return r.list(ctx, `
SELECT id, keyword, category, severity, is_active, COALESCE(description,''), created_at, updated_at
FROM spam_keywords
ORDER BY severity DESC, id
`, "spam_keywords_list")
}

func (r *Keywords) list(ctx context.Context, query, operation string) ([]domain.SpamKeyword, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, query)
	metrics.ObserveNetworkRequest("postgres", operation, "spam_keywords", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keywords []domain.SpamKeyword
	for rows.Next() {
		var kw domain.SpamKeyword
		if err := rows.Scan(&kw.ID, &kw.Keyword, &kw.Category, &kw.Severity, &kw.IsActive, &kw.Description, &kw.CreatedAt, &kw.UpdatedAt); err != nil {
			return nil, err
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

// Create сохраняет спам-сигнатуру.
func (r *Keywords) Create(ctx context.Context, keyword domain.SpamKeyword) (domain.SpamKeyword, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.pool.QueryRow(ctx, `
INSERT INTO spam_keywords (keyword, category, severity, is_active, description)
VALUES ($1,$2,$3,$4,NULLIF($5,''))
RETURNING id, created_at, updated_at
`, keyword.Keyword, keyword.Category, keyword.Severity, keyword.IsActive, keyword.Description).Scan(&keyword.ID, &keyword.CreatedAt, &keyword.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "spam_keywords_insert", "spam_keywords", start, err)
	return keyword, err
}

// Update переписывает сигнатуру целиком.
func (r *Keywords) Update(ctx context.Context, keyword domain.SpamKeyword) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := r.pool.Exec(ctx, `
UPDATE spam_keywords
SET keyword=$2, category=$3, severity=$4, is_active=$5, description=NULLIF($6,''), updated_at=now()
WHERE id=$1
`, keyword.ID, keyword.Keyword, keyword.Category, keyword.Severity, keyword.IsActive, keyword.Description)
	metrics.ObserveNetworkRequest("postgres", "spam_keywords_update", "spam_keywords", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrKeywordNotFound
	}
	return nil
}

// Delete удаляет сигнатуру.
func (r *Keywords) Delete(ctx context.Context, id int64) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := r.pool.Exec(ctx, `DELETE FROM spam_keywords WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "spam_keywords_delete", "spam_keywords", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrKeywordNotFound
	}
	return nil
}

// SetActive переключает сигнатуру.
func (r *Keywords) SetActive(ctx context.Context, id int64, active bool) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := r.pool.Exec(ctx, `UPDATE spam_keywords SET is_active=$2, updated_at=now() WHERE id=$1`, id, active)
	metrics.ObserveNetworkRequest("postgres", "spam_keywords_set_active", "spam_keywords", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrKeywordNotFound
	}
	return nil
}

// Orders реализует domain.OrderRepo.
type Orders struct {
	pool *pgxpool.Pool
}

var _ domain.OrderRepo = (*Orders)(nil)

// Create сохраняет заказ с позициями одной транзакцией.
func (r *Orders) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "orders", start, err)
	if err != nil {
		return domain.Order{}, err
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	err = tx.QueryRow(ctx, `
INSERT INTO orders (order_code, user_id, full_name, phone, address, total_money, shipping_fee, final_money, payment_method, payment_status, status, note)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NULLIF($12,''))
RETURNING id, created_at
`, order.OrderCode, order.UserID, order.FullName, order.Phone, order.Address, order.TotalMoney, order.ShippingFee, order.FinalMoney, order.PaymentMethod, order.PaymentStatus, order.Status, order.Note).Scan(&order.ID, &order.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "orders_insert", "orders", start, err)
	if err != nil {
		return domain.Order{}, err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		start = time.Now()
		err = tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
VALUES ($1,$2,$3,$4,$5)
RETURNING id
`, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.Price).Scan(&item.ID)
		metrics.ObserveNetworkRequest("postgres", "order_items_insert", "order_items", start, err)
		if err != nil {
			return domain.Order{}, err
		}
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "orders", start, err)
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// GetByCode возвращает заказ с позициями по коду.
func (r *Orders) GetByCode(ctx context.Context, code string) (domain.Order, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	var order domain.Order
	start := time.Now()
	err := r.pool.QueryRow(ctx, `
SELECT id, order_code, user_id, full_name, phone, address, total_money, shipping_fee, final_money, payment_method, payment_status, status, COALESCE(note,''), created_at
FROM orders WHERE order_code=$1
`, code).Scan(&order.ID, &order.OrderCode, &order.UserID, &order.FullName, &order.Phone, &order.Address, &order.TotalMoney, &order.ShippingFee, &order.FinalMoney, &order.PaymentMethod, &order.PaymentStatus, &order.Status, &order.Note, &order.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "orders_get_by_code", "orders", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	start = time.Now()
	rows, err := r.pool.Query(ctx, `
SELECT id, order_id, product_id, product_name, quantity, price
FROM order_items WHERE order_id=$1
ORDER BY id
`, order.ID)
	metrics.ObserveNetworkRequest("postgres", "order_items_list", "order_items", start, err)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return domain.Order{}, err
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

// ConfirmPayment помечает заказ оплаченным и переводит его в confirmed.
func (r *Orders) ConfirmPayment(ctx context.Context, code string) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := r.pool.Exec(ctx, `
UPDATE orders SET payment_status=true, status=$2 WHERE order_code=$1
`, code, domain.OrderConfirmed)
	metrics.ObserveNetworkRequest("postgres", "orders_confirm_payment", "orders", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
