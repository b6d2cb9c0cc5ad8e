package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutormatch/internal/apperr"
	"github.com/Freeeeeet/tutormatch/internal/auth"
	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/Freeeeeet/tutormatch/internal/relay"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionRepo interface {
	Claim(ctx context.Context, advertisementID, studentID uuid.UUID, startedAt time.Time) (*model.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	StartIfPending(ctx context.Context, id uuid.UUID, startedAt time.Time) (*model.Session, error)
	FinishIfActive(ctx context.Context, id uuid.UUID, status model.SessionStatus, endedAt time.Time, durationMinutes int, reason model.EndReason) (*model.Session, error)
	ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]*model.Session, error)
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*model.Session, error)
}

type StatsRecomputer interface {
	Recompute(ctx context.Context) (*model.PlatformStats, error)
}

type SessionService struct {
	sessions SessionRepo
	stats    StatsRecomputer
	relay    relay.Relay
	logger   *zap.Logger

	nowFunc func() time.Time
}

func NewSessionService(sessions SessionRepo, stats StatsRecomputer, rl relay.Relay, logger *zap.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		stats:    stats,
		relay:    rl,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// Claim атомарно забирает объявление в активную сессию. Из N одновременных
// попыток выигрывает ровно одна, остальные получают AlreadyClaimed — это
// штатный исход гонки, а не сбой.
func (s *SessionService) Claim(ctx context.Context, caller auth.Caller, advertisementID uuid.UUID) (*model.Session, error) {
	if !caller.IsStudent() {
		return nil, apperr.NotAuthorized("only students can claim advertisements")
	}

	session, err := s.sessions.Claim(ctx, advertisementID, caller.ID, s.nowFunc().UTC())
	if err != nil {
		return nil, apperr.Unavailable("claim advertisement", err)
	}
	if session == nil {
		s.logger.Info("Claim lost the race",
			zap.String("advertisement_id", advertisementID.String()),
			zap.String("student_id", caller.ID.String()),
		)
		return nil, apperr.AlreadyClaimed("advertisement is no longer available")
	}

	occurredAt := s.nowFunc()
	s.notify(ctx, relay.TopicSessionsForTeacher(session.TeacherID), model.Event{
		Type:       model.EventSessionStarted,
		Session:    session,
		OccurredAt: occurredAt,
	})
	s.notify(ctx, relay.TopicSessionsForStudent(session.StudentID), model.Event{
		Type:       model.EventSessionStarted,
		Session:    session,
		OccurredAt: occurredAt,
	})
	s.notify(ctx, relay.TopicAvailability, model.Event{
		Type:          model.EventAvailabilityClaimed,
		Advertisement: &model.Advertisement{ID: advertisementID, TeacherID: session.TeacherID},
		OccurredAt:    occurredAt,
	})

	s.logger.Info("Session started",
		zap.String("session_id", session.ID.String()),
		zap.String("student_id", session.StudentID.String()),
		zap.String("teacher_id", session.TeacherID.String()),
	)

	return session, nil
}

// Activate переводит ожидающую сессию в активную — путь для matchmaking'а,
// который создаёт сессии до начала звонка. Claim создаёт сессии сразу
// активными и сюда не заходит. Повторная активация — no-op.
func (s *SessionService) Activate(ctx context.Context, caller auth.Caller, id uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Unavailable("get session", err)
	}
	if session == nil {
		return nil, apperr.NotFound("session not found")
	}
	if !session.HasParticipant(caller.ID) {
		return nil, apperr.NotAuthorized("not a session participant")
	}

	if session.Status == model.SessionStatusActive {
		return session, nil
	}
	if session.Status.IsTerminal() {
		return nil, apperr.InvalidState("session is already " + string(session.Status))
	}

	updated, err := s.sessions.StartIfPending(ctx, id, s.nowFunc().UTC())
	if err != nil {
		return nil, apperr.Unavailable("start session", err)
	}
	if updated == nil {
		// Параллельная активация успела первой — момент старта уже зафиксирован
		current, err := s.sessions.GetByID(ctx, id)
		if err != nil {
			return nil, apperr.Unavailable("get session", err)
		}
		if current == nil {
			return nil, apperr.NotFound("session not found")
		}
		if current.Status == model.SessionStatusActive {
			return current, nil
		}
		return nil, apperr.InvalidState("session is already " + string(current.Status))
	}

	occurredAt := s.nowFunc()
	s.notify(ctx, relay.TopicSessionsForTeacher(updated.TeacherID), model.Event{
		Type:       model.EventSessionStarted,
		Session:    updated,
		OccurredAt: occurredAt,
	})
	s.notify(ctx, relay.TopicSessionsForStudent(updated.StudentID), model.Event{
		Type:       model.EventSessionStarted,
		Session:    updated,
		OccurredAt: occurredAt,
	})

	s.logger.Info("Session activated",
		zap.String("session_id", updated.ID.String()),
		zap.String("student_id", updated.StudentID.String()),
		zap.String("teacher_id", updated.TeacherID.String()),
	)

	return updated, nil
}

// Get получает сессию. Читать могут только участники. Заодно check-on-read:
// если сессия пересидела лимит, а sweeper до неё ещё не дошёл — завершаем
// прямо здесь.
func (s *SessionService) Get(ctx context.Context, caller auth.Caller, id uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Unavailable("get session", err)
	}
	if session == nil {
		return nil, apperr.NotFound("session not found")
	}
	if !session.HasParticipant(caller.ID) && !caller.IsAdmin() {
		return nil, apperr.NotAuthorized("not a session participant")
	}

	if session.Status == model.SessionStatusActive && session.StartedAt != nil &&
		s.nowFunc().Sub(*session.StartedAt) >= model.MaxSessionDuration {
		forced, err := s.forceComplete(ctx, session)
		if err != nil {
			return nil, err
		}
		return forced, nil
	}

	return session, nil
}

// ListMine получает сессии, где вызывающий — участник
func (s *SessionService) ListMine(ctx context.Context, caller auth.Caller) ([]*model.Session, error) {
	sessions, err := s.sessions.ListByParticipant(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Unavailable("list sessions", err)
	}
	return sessions, nil
}

// Complete завершает активную сессию по действию участника. Повторное
// завершение (таймер и ручной hang-up сработали почти одновременно) — no-op:
// возвращаем уже записанную строку с той же длительностью.
func (s *SessionService) Complete(ctx context.Context, caller auth.Caller, id uuid.UUID) (*model.Session, error) {
	return s.finish(ctx, caller, id, model.SessionStatusCompleted, model.EndReasonManual)
}

// Cancel отменяет активную сессию (путь для abandoned-сценариев)
func (s *SessionService) Cancel(ctx context.Context, caller auth.Caller, id uuid.UUID) (*model.Session, error) {
	return s.finish(ctx, caller, id, model.SessionStatusCancelled, model.EndReasonManual)
}

func (s *SessionService) finish(ctx context.Context, caller auth.Caller, id uuid.UUID, status model.SessionStatus, reason model.EndReason) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Unavailable("get session", err)
	}
	if session == nil {
		return nil, apperr.NotFound("session not found")
	}
	if !session.HasParticipant(caller.ID) {
		return nil, apperr.NotAuthorized("not a session participant")
	}

	// Идемпотентность терминального перехода: повтор того же перехода — no-op,
	// переход в другой терминальный статус — ошибка
	if session.Status.IsTerminal() {
		if session.Status == status {
			return session, nil
		}
		return nil, apperr.InvalidState("session is already " + string(session.Status))
	}
	if session.Status != model.SessionStatusActive {
		return nil, apperr.InvalidState("session is not active")
	}

	endedAt := s.nowFunc().UTC()
	duration := model.DurationMinutes(*session.StartedAt, endedAt)

	updated, err := s.sessions.FinishIfActive(ctx, id, status, endedAt, duration, reason)
	if err != nil {
		return nil, apperr.Unavailable("finish session", err)
	}
	if updated == nil {
		// Параллельный вызов успел первым — перечитываем и применяем то же правило
		current, err := s.sessions.GetByID(ctx, id)
		if err != nil {
			return nil, apperr.Unavailable("get session", err)
		}
		if current == nil {
			return nil, apperr.NotFound("session not found")
		}
		if current.Status == status {
			return current, nil
		}
		return nil, apperr.InvalidState("session is already " + string(current.Status))
	}

	s.notifyFinished(ctx, updated)

	if status == model.SessionStatusCompleted {
		s.recomputeStats(ctx)
	}

	s.logger.Info("Session finished",
		zap.String("session_id", updated.ID.String()),
		zap.String("status", string(updated.Status)),
		zap.String("end_reason", string(reason)),
		zap.Intp("duration_minutes", updated.DurationMinutes),
	)

	return updated, nil
}

// SweepExpired принудительно завершает активные сессии, пересидевшие часовой
// лимит. Работает без участия клиентов — лимит держится даже если вкладка
// закрыта. Возвращает число завершённых сессий.
func (s *SessionService) SweepExpired(ctx context.Context) (int, error) {
	cutoff := s.nowFunc().UTC().Add(-model.MaxSessionDuration)

	expired, err := s.sessions.ListActiveStartedBefore(ctx, cutoff)
	if err != nil {
		return 0, apperr.Unavailable("list expired sessions", err)
	}

	swept := 0
	for _, session := range expired {
		if _, err := s.forceComplete(ctx, session); err != nil {
			s.logger.Error("Failed to force-complete expired session",
				zap.String("session_id", session.ID.String()),
				zap.Error(err),
			)
			continue
		}
		swept++
	}

	return swept, nil
}

// forceComplete завершает сессию по лимиту времени: ended_at фиксируется на
// started_at + 1h, длительность всегда 60 минут, причина time_cap — клиент
// сможет отличить это от ручного завершения.
func (s *SessionService) forceComplete(ctx context.Context, session *model.Session) (*model.Session, error) {
	endedAt := session.StartedAt.Add(model.MaxSessionDuration)
	duration := model.DurationMinutes(*session.StartedAt, endedAt)

	updated, err := s.sessions.FinishIfActive(ctx, session.ID, model.SessionStatusCompleted, endedAt, duration, model.EndReasonTimeCap)
	if err != nil {
		return nil, apperr.Unavailable("finish session", err)
	}
	if updated == nil {
		// Кто-то (участник или параллельный sweep) уже завершил — это нормально
		current, err := s.sessions.GetByID(ctx, session.ID)
		if err != nil {
			return nil, apperr.Unavailable("get session", err)
		}
		if current == nil {
			return nil, apperr.NotFound("session not found")
		}
		return current, nil
	}

	s.notifyFinished(ctx, updated)
	s.recomputeStats(ctx)

	s.logger.Info("Session force-completed by time cap",
		zap.String("session_id", updated.ID.String()),
	)

	return updated, nil
}

func (s *SessionService) notifyFinished(ctx context.Context, session *model.Session) {
	eventType := model.EventSessionCompleted
	if session.Status == model.SessionStatusCancelled {
		eventType = model.EventSessionCancelled
	}

	occurredAt := s.nowFunc()
	s.notify(ctx, relay.TopicSessionsForTeacher(session.TeacherID), model.Event{
		Type:       eventType,
		Session:    session,
		OccurredAt: occurredAt,
	})
	s.notify(ctx, relay.TopicSessionsForStudent(session.StudentID), model.Event{
		Type:       eventType,
		Session:    session,
		OccurredAt: occurredAt,
	})
}

// Статистика производная: ошибка пересчёта не валит основную операцию,
// следующий пересчёт всё выровняет
func (s *SessionService) recomputeStats(ctx context.Context) {
	if _, err := s.stats.Recompute(ctx); err != nil {
		s.logger.Warn("Failed to recompute platform stats", zap.Error(err))
	}
}

func (s *SessionService) notify(ctx context.Context, topic string, event model.Event) {
	if err := s.relay.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("Failed to publish relay event",
			zap.String("topic", topic),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}
