package sentiment

import (
	"context"
	"fmt"
	"time"

	"beauty-shop/internal/infra/inference"
)

// Remote — движок на базе локального сервера инференса.
type Remote struct {
	client *inference.Client
}

var _ Engine = (*Remote)(nil)

// LoadRemote проверяет доступность сервера инференса и возвращает движок.
// Используется как Loader классификатора: прогрев выполняется один раз.
func LoadRemote(client *inference.Client) (Engine, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("сервер инференса недоступен: %w", err)
	}
	return &Remote{client: client}, nil
}

// Classify выполняет инференс.
func (r *Remote) Classify(ctx context.Context, text string) (inference.Prediction, error) {
	return r.client.Classify(ctx, text)
}
