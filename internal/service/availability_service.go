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

type AvailabilityRepo interface {
	Upsert(ctx context.Context, ad *model.Advertisement) error
	DeleteByTeacher(ctx context.Context, teacherID uuid.UUID) (bool, error)
	ListOpen(ctx context.Context, filter model.AdvertisementFilter) ([]*model.Advertisement, error)
}

type CatalogRepo interface {
	ListSubjects(ctx context.Context) ([]*model.Subject, error)
	ListTopics(ctx context.Context, subjectID uuid.UUID) ([]*model.Topic, error)
	GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error)
	GetTopic(ctx context.Context, id uuid.UUID) (*model.Topic, error)
}

type ProfileGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}

type AvailabilityService struct {
	ads      AvailabilityRepo
	catalog  CatalogRepo
	profiles ProfileGetter
	relay    relay.Relay
	logger   *zap.Logger

	// Требовать ли верификацию учителя для публикации — политика
	// конфигурируемая, по умолчанию выключена
	requireVerified bool

	nowFunc func() time.Time
}

func NewAvailabilityService(
	ads AvailabilityRepo,
	catalog CatalogRepo,
	profiles ProfileGetter,
	rl relay.Relay,
	requireVerified bool,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		ads:             ads,
		catalog:         catalog,
		profiles:        profiles,
		relay:           rl,
		requireVerified: requireVerified,
		logger:          logger,
		nowFunc:         time.Now,
	}
}

// Publish публикует объявление "я свободен". Повторная публикация заменяет
// старое объявление учителя — открытых объявлений больше одного не бывает.
func (s *AvailabilityService) Publish(ctx context.Context, caller auth.Caller, subjectID uuid.UUID, topicID *uuid.UUID) (*model.Advertisement, error) {
	if !caller.IsTeacher() {
		return nil, apperr.NotAuthorized("only teachers can publish availability")
	}

	profile, err := s.profiles.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Unavailable("get teacher profile", err)
	}
	if profile == nil {
		return nil, apperr.NotFound("teacher profile not found")
	}
	if s.requireVerified && !profile.IsVerified {
		return nil, apperr.NotAuthorized("teacher is not verified")
	}

	subject, err := s.catalog.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, apperr.Unavailable("get subject", err)
	}
	if subject == nil {
		return nil, apperr.NotFound("subject not found")
	}

	if topicID != nil {
		topic, err := s.catalog.GetTopic(ctx, *topicID)
		if err != nil {
			return nil, apperr.Unavailable("get topic", err)
		}
		if topic == nil {
			return nil, apperr.NotFound("topic not found")
		}
		if topic.SubjectID != subjectID {
			return nil, apperr.Validation("topic does not belong to subject")
		}
	}

	ad := &model.Advertisement{
		ID:        uuid.New(),
		TeacherID: caller.ID,
		SubjectID: subjectID,
		TopicID:   topicID,
	}

	if err := s.ads.Upsert(ctx, ad); err != nil {
		return nil, apperr.Unavailable("publish advertisement", err)
	}

	s.notify(ctx, relay.TopicAvailability, model.Event{
		Type:          model.EventAvailabilityPublished,
		Advertisement: ad,
		OccurredAt:    s.nowFunc(),
	})

	s.logger.Info("Availability published",
		zap.String("advertisement_id", ad.ID.String()),
		zap.String("teacher_id", caller.ID.String()),
		zap.String("subject_id", subjectID.String()),
	)

	return ad, nil
}

// Withdraw снимает объявление учителя. Идемпотентен: если объявления нет
// (его уже забрали или сняли) — это не ошибка.
func (s *AvailabilityService) Withdraw(ctx context.Context, caller auth.Caller) error {
	if !caller.IsTeacher() {
		return apperr.NotAuthorized("only teachers can withdraw availability")
	}

	removed, err := s.ads.DeleteByTeacher(ctx, caller.ID)
	if err != nil {
		return apperr.Unavailable("withdraw advertisement", err)
	}

	if removed {
		s.notify(ctx, relay.TopicAvailability, model.Event{
			Type:          model.EventAvailabilityWithdrawn,
			Advertisement: &model.Advertisement{TeacherID: caller.ID},
			OccurredAt:    s.nowFunc(),
		})

		s.logger.Info("Availability withdrawn", zap.String("teacher_id", caller.ID.String()))
	}

	return nil
}

// ListOpen получает открытые объявления, доступно любому аутентифицированному
func (s *AvailabilityService) ListOpen(ctx context.Context, filter model.AdvertisementFilter) ([]*model.Advertisement, error) {
	ads, err := s.ads.ListOpen(ctx, filter)
	if err != nil {
		return nil, apperr.Unavailable("list open advertisements", err)
	}
	return ads, nil
}

// ListSubjects получает каталог предметов
func (s *AvailabilityService) ListSubjects(ctx context.Context) ([]*model.Subject, error) {
	subjects, err := s.catalog.ListSubjects(ctx)
	if err != nil {
		return nil, apperr.Unavailable("list subjects", err)
	}
	return subjects, nil
}

// ListTopics получает темы предмета
func (s *AvailabilityService) ListTopics(ctx context.Context, subjectID uuid.UUID) ([]*model.Topic, error) {
	topics, err := s.catalog.ListTopics(ctx, subjectID)
	if err != nil {
		return nil, apperr.Unavailable("list topics", err)
	}
	return topics, nil
}

// Доставка событий best-effort: ошибка relay не откатывает запись в БД
func (s *AvailabilityService) notify(ctx context.Context, topic string, event model.Event) {
	if err := s.relay.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("Failed to publish relay event",
			zap.String("topic", topic),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}
