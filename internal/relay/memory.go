package relay

import (
	"context"
	"sync"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"go.uber.org/zap"
)

// Буфер на подписчика: переживает всплеск событий, при переполнении событие
// отбрасывается — relay обещает только best-effort доставку без replay
const subscriberBuffer = 64

// MemoryRelay внутрипроцессная реализация relay для одного инстанса и тестов
type MemoryRelay struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan model.Event]struct{}
	closed      bool
	logger      *zap.Logger
}

func NewMemoryRelay(logger *zap.Logger) *MemoryRelay {
	return &MemoryRelay{
		subscribers: make(map[string]map[chan model.Event]struct{}),
		logger:      logger,
	}
}

// Publish рассылает событие всем подписчикам топика. Медленный подписчик
// с заполненным буфером событие теряет, остальных это не блокирует.
func (r *MemoryRelay) Publish(_ context.Context, topic string, event model.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil
	}

	for ch := range r.subscribers[topic] {
		select {
		case ch <- event:
		default:
			r.logger.Warn("Relay subscriber buffer full, dropping event",
				zap.String("topic", topic),
				zap.String("event_type", string(event.Type)),
			)
		}
	}

	return nil
}

// Subscribe подписывается на топик
func (r *MemoryRelay) Subscribe(_ context.Context, topic string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan model.Event, subscriberBuffer)
	if r.subscribers[topic] == nil {
		r.subscribers[topic] = make(map[chan model.Event]struct{})
	}
	r.subscribers[topic][ch] = struct{}{}

	return newSubscription(ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if _, ok := r.subscribers[topic][ch]; ok {
			delete(r.subscribers[topic], ch)
			close(ch)
		}
	}), nil
}

// Close закрывает relay и все подписки
func (r *MemoryRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	for topic, subs := range r.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(r.subscribers, topic)
	}

	return nil
}
