package service

import (
	"context"

	"github.com/Freeeeeet/tutormatch/internal/apperr"
	"github.com/Freeeeeet/tutormatch/internal/auth"
	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProfileRepo interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
	SetVerified(ctx context.Context, teacherID uuid.UUID, verified bool) error
}

type ProfileService struct {
	profiles ProfileRepo
	logger   *zap.Logger
}

func NewProfileService(profiles ProfileRepo, logger *zap.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// Ensure создаёт профиль при первом входе. Роль берётся из доверенного
// каллер-контекста (её назначил identity-провайдер) и после создания
// не меняется никогда.
func (s *ProfileService) Ensure(ctx context.Context, caller auth.Caller, displayName string) (*model.Profile, error) {
	existing, err := s.profiles.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Unavailable("get profile", err)
	}
	if existing != nil {
		return existing, nil
	}

	if displayName == "" {
		return nil, apperr.Validation("display name is required")
	}

	profile := &model.Profile{
		ID:          caller.ID,
		Role:        caller.Role,
		DisplayName: displayName,
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, apperr.Unavailable("create profile", err)
	}

	s.logger.Info("Profile created",
		zap.String("profile_id", profile.ID.String()),
		zap.String("role", string(profile.Role)),
	)

	return profile, nil
}

// Get получает профиль, доступно любому аутентифицированному
func (s *ProfileService) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Unavailable("get profile", err)
	}
	if profile == nil {
		return nil, apperr.NotFound("profile not found")
	}
	return profile, nil
}

// Update обновляет собственный профиль. Роль и флаг верификации через этот
// путь изменить нельзя.
func (s *ProfileService) Update(ctx context.Context, caller auth.Caller, displayName, avatarURL, bio string) (*model.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Unavailable("get profile", err)
	}
	if profile == nil {
		return nil, apperr.NotFound("profile not found")
	}

	if displayName == "" {
		return nil, apperr.Validation("display name is required")
	}

	profile.DisplayName = displayName
	profile.AvatarURL = avatarURL
	profile.Bio = bio

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, apperr.Unavailable("update profile", err)
	}

	return profile, nil
}

// SetVerified выставляет верификацию учителя, только для админов
func (s *ProfileService) SetVerified(ctx context.Context, caller auth.Caller, teacherID uuid.UUID, verified bool) error {
	if !caller.IsAdmin() {
		return apperr.NotAuthorized("only admins can verify teachers")
	}

	target, err := s.profiles.GetByID(ctx, teacherID)
	if err != nil {
		return apperr.Unavailable("get profile", err)
	}
	if target == nil {
		return apperr.NotFound("profile not found")
	}
	if target.Role != model.RoleTeacher {
		return apperr.Validation("only teachers can be verified")
	}

	if err := s.profiles.SetVerified(ctx, teacherID, verified); err != nil {
		return apperr.Unavailable("set verified", err)
	}

	s.logger.Info("Teacher verification updated",
		zap.String("teacher_id", teacherID.String()),
		zap.Bool("verified", verified),
	)

	return nil
}
