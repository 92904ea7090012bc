package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"beauty-shop/internal/infra/metrics"
)

const defaultBaseURL = "http://127.0.0.1:8501"

// Client выполняет запросы к локальному серверу инференса модели тональности.
// Сервер поднимает предобученную модель классификации текста и отвечает
// только по loopback-интерфейсу: сетевой доступ наружу не требуется.
type Client struct {
	http    *http.Client
	baseURL string
	model   string
}

// NewClient создаёт клиента сервера инференса.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		model:   model,
	}
}

// ClassifyRequest описывает тело запроса.
type ClassifyRequest struct {
	Model  string `json:"model"`
	Inputs string `json:"inputs"`
}

// Prediction — одна метка с вероятностью.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassifyResponse описывает ответ сервера.
type ClassifyResponse struct {
	Results []Prediction `json:"results"`
}

// Ping проверяет, что сервер инференса поднят и модель загружена.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("inference healthz: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference healthz: статус %d", resp.StatusCode)
	}
	return nil
}

// Classify возвращает наиболее вероятную метку для текста.
func (c *Client) Classify(ctx context.Context, text string) (Prediction, error) {
	body, err := json.Marshal(ClassifyRequest{Model: c.model, Inputs: text})
	if err != nil {
		return Prediction{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("inference", "classify", c.model, start, err)
	if err != nil {
		return Prediction{}, fmt.Errorf("inference classify: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, fmt.Errorf("inference classify: чтение ответа: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("inference classify: статус %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed ClassifyResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Prediction{}, fmt.Errorf("inference classify: распаковка ответа: %w", err)
	}
	if len(parsed.Results) == 0 {
		return Prediction{}, fmt.Errorf("inference classify: пустой ответ")
	}

	best := parsed.Results[0]
	for _, p := range parsed.Results[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, nil
}
