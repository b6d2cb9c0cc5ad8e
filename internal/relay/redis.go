package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// RedisRelay relay поверх Redis Pub/Sub — для запуска в несколько инстансов.
// Семантика та же, что у Pub/Sub: доставка только подключённым подписчикам,
// без истории.
type RedisRelay struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisRelay подключается к Redis. На старте пингуем с экспоненциальным
// backoff — Redis может подниматься дольше нас.
func NewRedisRelay(ctx context.Context, addr string, logger *zap.Logger) (*RedisRelay, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not ready, retrying", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisRelay{rdb: rdb, logger: logger}, nil
}

// Publish отправляет событие в канал Redis
func (r *RedisRelay) Publish(ctx context.Context, topic string, event model.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := r.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

// Subscribe подписывается на канал Redis. go-redis сам переподключается при
// обрыве; события, прошедшие за время обрыва, теряются — это штатно.
func (r *RedisRelay) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	pubsub := r.rdb.Subscribe(ctx, topic)

	// Дожидаемся подтверждения подписки
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to topic: %w", err)
	}

	events := make(chan model.Event, subscriberBuffer)

	go func() {
		defer close(events)

		for msg := range pubsub.Channel() {
			var event model.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Warn("Failed to decode relay event",
					zap.String("topic", topic),
					zap.Error(err),
				)
				continue
			}

			select {
			case events <- event:
			default:
				r.logger.Warn("Relay subscriber buffer full, dropping event",
					zap.String("topic", topic),
					zap.String("event_type", string(event.Type)),
				)
			}
		}
	}()

	return newSubscription(events, func() {
		_ = pubsub.Close()
	}), nil
}

// Close закрывает подключение к Redis
func (r *RedisRelay) Close() error {
	return r.rdb.Close()
}
