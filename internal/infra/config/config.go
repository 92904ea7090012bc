package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Asia/Ho_Chi_Minh"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`

	VNPay struct {
		TmnCode    string `envconfig:"VNPAY_TMN_CODE"`
		HashSecret string `envconfig:"VNPAY_HASH_SECRET"`
		PaymentURL string `envconfig:"VNPAY_PAYMENT_URL" default:"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"`
		ReturnURL  string `envconfig:"VNPAY_RETURN_URL"`
	} `envconfig:""`

	Inference struct {
		BaseURL string        `envconfig:"INFERENCE_BASE_URL" default:"http://127.0.0.1:8501"`
		Model   string        `envconfig:"INFERENCE_MODEL" default:"vietnamese-sentiment-visobert"`
		Timeout time.Duration `envconfig:"INFERENCE_TIMEOUT" default:"10s"`
	} `envconfig:""`

	Shipping struct {
		FastFee     int64 `envconfig:"SHIPPING_FAST_FEE" default:"30000"`
		StandardFee int64 `envconfig:"SHIPPING_STANDARD_FEE" default:"15000"`
	} `envconfig:""`

	Queues struct {
		Sweep string `envconfig:"SWEEP_QUEUE_NAME" default:"moderation_sweep_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
