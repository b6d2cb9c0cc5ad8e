package service

import (
	"context"
	"errors"

	"github.com/Freeeeeet/tutormatch/internal/apperr"
	"github.com/Freeeeeet/tutormatch/internal/auth"
	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/Freeeeeet/tutormatch/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RatingRepo interface {
	Create(ctx context.Context, rating *model.Rating) error
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.Rating, error)
}

type SessionGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
}

type RatingService struct {
	ratings  RatingRepo
	sessions SessionGetter
	stats    StatsRecomputer
	logger   *zap.Logger
}

func NewRatingService(ratings RatingRepo, sessions SessionGetter, stats StatsRecomputer, logger *zap.Logger) *RatingService {
	return &RatingService{
		ratings:  ratings,
		sessions: sessions,
		stats:    stats,
		logger:   logger,
	}
}

// Rate оценивает завершённую сессию. Оценить может только студент этой
// сессии, ровно один раз — повторная оценка отклоняется.
func (s *RatingService) Rate(ctx context.Context, caller auth.Caller, sessionID uuid.UUID, score int, comment string) (*model.Rating, error) {
	if !caller.IsStudent() {
		return nil, apperr.NotAuthorized("only students can rate sessions")
	}
	if score < 1 || score > 5 {
		return nil, apperr.Validation("score must be between 1 and 5")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperr.Unavailable("get session", err)
	}
	if session == nil {
		return nil, apperr.NotFound("session not found")
	}
	if session.StudentID != caller.ID {
		return nil, apperr.NotAuthorized("only the session's student can rate it")
	}
	if session.Status != model.SessionStatusCompleted {
		return nil, apperr.InvalidState("session is not completed")
	}

	rating := &model.Rating{
		ID:        uuid.New(),
		SessionID: sessionID,
		StudentID: session.StudentID,
		TeacherID: session.TeacherID,
		Score:     score,
		Comment:   comment,
	}

	if err := s.ratings.Create(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrDuplicateRating) {
			return nil, apperr.Validation("session already rated")
		}
		return nil, apperr.Unavailable("create rating", err)
	}

	if _, err := s.stats.Recompute(ctx); err != nil {
		s.logger.Warn("Failed to recompute platform stats", zap.Error(err))
	}

	s.logger.Info("Session rated",
		zap.String("session_id", sessionID.String()),
		zap.String("student_id", caller.ID.String()),
		zap.Int("score", score),
	)

	return rating, nil
}

// GetForSession получает оценку сессии (читают только участники)
func (s *RatingService) GetForSession(ctx context.Context, caller auth.Caller, sessionID uuid.UUID) (*model.Rating, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperr.Unavailable("get session", err)
	}
	if session == nil {
		return nil, apperr.NotFound("session not found")
	}
	if !session.HasParticipant(caller.ID) && !caller.IsAdmin() {
		return nil, apperr.NotAuthorized("not a session participant")
	}

	rating, err := s.ratings.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperr.Unavailable("get rating", err)
	}
	if rating == nil {
		return nil, apperr.NotFound("rating not found")
	}

	return rating, nil
}
