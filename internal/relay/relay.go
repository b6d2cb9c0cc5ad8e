package relay

import (
	"context"
	"sync"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/google/uuid"
)

// Топики relay. Доставка at-least-once, порядок best-effort, без replay:
// подписчик, подключившийся после события, его не увидит и должен сам
// запросить текущее состояние.
const TopicAvailability = "availability"

func TopicSessionsForTeacher(teacherID uuid.UUID) string {
	return "sessions:teacher:" + teacherID.String()
}

func TopicSessionsForStudent(studentID uuid.UUID) string {
	return "sessions:student:" + studentID.String()
}

// Relay рассылает события об изменениях подписчикам по топикам
type Relay interface {
	Publish(ctx context.Context, topic string, event model.Event) error
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
	Close() error
}

// Subscription подписка на топик. События читаются из C до вызова Close.
type Subscription struct {
	C <-chan model.Event

	closeOnce sync.Once
	closeFn   func()
}

func newSubscription(events <-chan model.Event, closeFn func()) *Subscription {
	return &Subscription{C: events, closeFn: closeFn}
}

// Close отписывается от топика и закрывает канал событий
func (s *Subscription) Close() {
	s.closeOnce.Do(s.closeFn)
}
