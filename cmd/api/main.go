package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"beauty-shop/internal/adapters/repo"
	"beauty-shop/internal/adapters/sentiment"
	"beauty-shop/internal/adapters/session"
	"beauty-shop/internal/adapters/spam"
	"beauty-shop/internal/adapters/vnpay"
	"beauty-shop/internal/domain"
	"beauty-shop/internal/infra/cache"
	"beauty-shop/internal/infra/config"
	"beauty-shop/internal/infra/db"
	httpinfra "beauty-shop/internal/infra/http"
	"beauty-shop/internal/infra/inference"
	applog "beauty-shop/internal/infra/log"
	"beauty-shop/internal/infra/metrics"
	"beauty-shop/internal/infra/queue"
	cartusecase "beauty-shop/internal/usecase/cart"
	checkoutusecase "beauty-shop/internal/usecase/checkout"
	keywordsusecase "beauty-shop/internal/usecase/keywords"
	"beauty-shop/internal/usecase/pricing"
	reviewsusecase "beauty-shop/internal/usecase/reviews"
)

const sessionCookie = "bs_session"

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	repoAdapter := repo.NewPostgres(pool)
	sessions := session.NewRedisStore(redisClient)
	keywordCache := cache.NewRedis(redisClient)

	keywordStore := spam.NewKeywordStore(repoAdapter.Keywords, keywordCache, logger.With().Str("component", "keyword_store").Logger())
	detector := spam.NewDetector(keywordStore)

	var loader sentiment.Loader
	if cfg.AppEnv == "dev" {
		loader = func() (sentiment.Engine, error) { return sentiment.NewLexicon(), nil }
	} else {
		inferenceClient := inference.NewClient(cfg.Inference.BaseURL, cfg.Inference.Model, cfg.Inference.Timeout)
		loader = func() (sentiment.Engine, error) { return sentiment.LoadRemote(inferenceClient) }
	}
	classifier := sentiment.NewClassifier(loader, logger.With().Str("component", "sentiment").Logger())

	var sweepQueue domain.SweepQueue
	if cfg.AMQPURL != "" {
		rabbit, err := queue.NewRabbitSweepQueue(cfg.AMQPURL, cfg.Queues.Sweep)
		if err != nil {
			log.Fatal().Err(err).Msg("api: нет подключения к брокеру")
		}
		defer rabbit.Close()
		sweepQueue = rabbit
	}

	resolver := pricing.NewResolver(repoAdapter.Deals)
	cartSvc := cartusecase.NewService(repoAdapter.Products, sessions, resolver)
	reviewsSvc := reviewsusecase.NewService(repoAdapter.Reviews, classifier, detector, logger.With().Str("component", "reviews").Logger())
	keywordsSvc := keywordsusecase.NewService(repoAdapter.Keywords, keywordStore, sweepQueue, logger.With().Str("component", "keywords").Logger())

	gateway := vnpay.NewClient(vnpay.Config{
		TmnCode:    cfg.VNPay.TmnCode,
		HashSecret: cfg.VNPay.HashSecret,
		PaymentURL: cfg.VNPay.PaymentURL,
	})
	checkoutSvc := checkoutusecase.NewService(
		repoAdapter.Orders,
		cartSvc,
		gateway,
		cfg.VNPay.ReturnURL,
		cfg.Shipping.FastFee,
		cfg.Shipping.StandardFee,
		logger.With().Str("component", "checkout").Logger(),
	)

	server := httpinfra.NewServer(logger.With().Str("component", "http").Logger(), sessionMiddleware)
	r := server.Router

	r.Post("/api/v1/products/{id}/reviews", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid product id")
			return
		}
		var req submitReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		review, err := reviewsSvc.Submit(r.Context(), req.UserID, productID, req.Comment, req.Rating)
		if err != nil {
			if errors.Is(err, reviewsusecase.ErrEmptyComment) {
				writeError(w, http.StatusBadRequest, "comment is required")
				return
			}
			log.Error().Err(err).Msg("api: submit review")
			writeError(w, http.StatusInternalServerError, "failed to submit review")
			return
		}
		writeJSON(w, map[string]any{
			"id":         review.ID,
			"sentiment":  review.Sentiment,
			"confidence": review.ConfidenceScore,
			"is_spam":    review.IsSpam,
		})
	})

	r.Get("/api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		sid := sessionID(r)
		lines, err := cartSvc.Lines(r.Context(), sid)
		if err != nil {
			log.Error().Err(err).Msg("api: cart lines")
			writeError(w, http.StatusInternalServerError, "failed to load cart")
			return
		}
		total, err := cartSvc.Total(r.Context(), sid)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load cart")
			return
		}
		count, _ := cartSvc.ItemCount(r.Context(), sid)
		items := make([]map[string]any, 0, len(lines))
		for _, line := range lines {
			items = append(items, map[string]any{
				"product_id":   line.Product.ID,
				"product_name": line.Product.Name,
				"quantity":     line.Quantity,
				"price":        line.Price,
				"total_price":  line.TotalPrice,
			})
		}
		writeJSON(w, map[string]any{"items": items, "total": total, "count": count})
	})

	r.Post("/api/v1/cart/items", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req addCartItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Quantity <= 0 {
			req.Quantity = 1
		}
		if err := cartSvc.Add(r.Context(), sessionID(r), req.ProductID, req.Quantity, req.Override); err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				writeError(w, http.StatusNotFound, "product not found")
				return
			}
			log.Error().Err(err).Msg("api: cart add")
			writeError(w, http.StatusInternalServerError, "failed to update cart")
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Post("/api/v1/cart/items/{id}/decrease", func(w http.ResponseWriter, r *http.Request) {
		productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid product id")
			return
		}
		if err := cartSvc.Decrease(r.Context(), sessionID(r), productID); err != nil {
			log.Error().Err(err).Msg("api: cart decrease")
			writeError(w, http.StatusInternalServerError, "failed to update cart")
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Delete("/api/v1/cart/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid product id")
			return
		}
		if err := cartSvc.Remove(r.Context(), sessionID(r), productID); err != nil {
			log.Error().Err(err).Msg("api: cart remove")
			writeError(w, http.StatusInternalServerError, "failed to update cart")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Delete("/api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		if err := cartSvc.Clear(r.Context(), sessionID(r)); err != nil {
			log.Error().Err(err).Msg("api: cart clear")
			writeError(w, http.StatusInternalServerError, "failed to clear cart")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/api/v1/checkout", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req checkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		order, paymentURL, err := checkoutSvc.PlaceOrder(r.Context(), sessionID(r), checkoutusecase.Checkout{
			UserID:         req.UserID,
			FullName:       req.FullName,
			Phone:          req.Phone,
			Address:        req.Address,
			Note:           req.Note,
			PaymentMethod:  req.PaymentMethod,
			ShippingMethod: req.ShippingMethod,
			BankCode:       req.BankCode,
			ClientIP:       r.RemoteAddr,
		})
		if err != nil {
			if errors.Is(err, checkoutusecase.ErrEmptyCart) {
				writeError(w, http.StatusBadRequest, "cart is empty")
				return
			}
			log.Error().Err(err).Msg("api: checkout")
			writeError(w, http.StatusInternalServerError, "failed to place order")
			return
		}
		resp := map[string]any{
			"order_code":  order.OrderCode,
			"final_money": order.FinalMoney,
			"status":      order.Status,
		}
		if paymentURL != "" {
			resp["payment_url"] = paymentURL
		}
		writeJSON(w, resp)
	})

	r.Get("/payment/vnpay/return", func(w http.ResponseWriter, r *http.Request) {
		result, err := checkoutSvc.HandleReturn(r.Context(), r.URL.Query())
		if err != nil {
			if errors.Is(err, checkoutusecase.ErrInvalidSignature) {
				writeError(w, http.StatusBadRequest, "invalid signature")
				return
			}
			if errors.Is(err, domain.ErrOrderNotFound) {
				writeError(w, http.StatusNotFound, "order not found")
				return
			}
			log.Error().Err(err).Msg("api: vnpay return")
			writeError(w, http.StatusInternalServerError, "failed to process payment result")
			return
		}
		writeJSON(w, map[string]any{
			"order_code": result.Order.OrderCode,
			"success":    result.Success,
			"message":    result.Message,
		})
	})

	r.Route("/api/v1/admin", func(admin chi.Router) {
		admin.Get("/spam-keywords", func(w http.ResponseWriter, r *http.Request) {
			keywords, err := keywordsSvc.List(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("api: list keywords")
				writeError(w, http.StatusInternalServerError, "failed to list keywords")
				return
			}
			writeJSON(w, keywords)
		})

		admin.Post("/spam-keywords", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var req keywordRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			created, err := keywordsSvc.Create(r.Context(), domain.SpamKeyword{
				Keyword:     req.Keyword,
				Category:    domain.SpamCategory(req.Category),
				Severity:    req.Severity,
				IsActive:    req.IsActive,
				Description: req.Description,
			})
			if err != nil {
				writeKeywordError(w, err)
				return
			}
			writeJSON(w, created)
		})

		admin.Put("/spam-keywords/{id}", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid keyword id")
				return
			}
			var req keywordRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			err = keywordsSvc.Update(r.Context(), domain.SpamKeyword{
				ID:          id,
				Keyword:     req.Keyword,
				Category:    domain.SpamCategory(req.Category),
				Severity:    req.Severity,
				IsActive:    req.IsActive,
				Description: req.Description,
			})
			if err != nil {
				writeKeywordError(w, err)
				return
			}
			writeJSON(w, map[string]string{"status": "ok"})
		})

		admin.Delete("/spam-keywords/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid keyword id")
				return
			}
			if err := keywordsSvc.Delete(r.Context(), id); err != nil {
				writeKeywordError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		admin.Post("/spam-keywords/{id}/toggle", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid keyword id")
				return
			}
			var req toggleRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if err := keywordsSvc.SetActive(r.Context(), id, req.IsActive); err != nil {
				writeKeywordError(w, err)
				return
			}
			writeJSON(w, map[string]string{"status": "ok"})
		})

		admin.Post("/reviews/sweep", func(w http.ResponseWriter, r *http.Request) {
			flagged, err := reviewsSvc.Sweep(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("api: sweep")
				writeError(w, http.StatusInternalServerError, "failed to sweep reviews")
				return
			}
			writeJSON(w, map[string]int{"flagged": flagged})
		})

		admin.Get("/reviews/stats", func(w http.ResponseWriter, r *http.Request) {
			stats, err := reviewsSvc.BuildStats(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("api: stats")
				writeError(w, http.StatusInternalServerError, "failed to build stats")
				return
			}
			writeJSON(w, map[string]any{
				"total_reviews":  stats.TotalReviews,
				"spam_count":     stats.SpamCount,
				"positive_pct":   stats.PositivePct,
				"negative_pct":   stats.NegativePct,
				"average_rating": stats.AverageRating,
			})
		})
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	go func() {
		log.Info().Int("port", cfg.Port).Msg("api: старт")
		if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()
	<-ctx.Done()
	log.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

// sessionMiddleware обеспечивает каждому посетителю cookie с идентификатором
// сессии: корзина живёт по этому ключу.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(sessionCookie); err != nil {
			sid := uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int((7 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			r.AddCookie(&http.Cookie{Name: sessionCookie, Value: sid})
		}
		next.ServeHTTP(w, r)
	})
}

func sessionID(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

type submitReviewRequest struct {
	UserID  int64  `json:"user_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Override  bool  `json:"override"`
}

type checkoutRequest struct {
	UserID         int64  `json:"user_id"`
	FullName       string `json:"full_name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Note           string `json:"note"`
	PaymentMethod  string `json:"payment_method"`
	ShippingMethod string `json:"shipping_method"`
	BankCode       string `json:"bank_code"`
}

type keywordRequest struct {
	Keyword     string `json:"keyword"`
	Category    string `json:"category"`
	Severity    int    `json:"severity"`
	IsActive    bool   `json:"is_active"`
	Description string `json:"description"`
}

type toggleRequest struct {
	IsActive bool `json:"is_active"`
}

func writeKeywordError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, keywordsusecase.ErrEmptyKeyword):
		writeError(w, http.StatusBadRequest, "keyword is required")
	case errors.Is(err, keywordsusecase.ErrBadSeverity):
		writeError(w, http.StatusBadRequest, "severity must be between 0 and 100")
	case errors.Is(err, domain.ErrKeywordNotFound):
		writeError(w, http.StatusNotFound, "keyword not found")
	default:
		log.Error().Err(err).Msg("api: keyword mutation")
		writeError(w, http.StatusInternalServerError, "failed to update keyword")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
