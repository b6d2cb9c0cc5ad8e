package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/tutormatch/internal/auth"
	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/Freeeeeet/tutormatch/internal/relay"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	store *memStore
	relay *relay.MemoryRelay

	availability *AvailabilityService
	sessions     *SessionService
	ratings      *RatingService
	stats        *StatsService
	profiles     *ProfileService
}

func newEnv(t *testing.T, requireVerified bool) *env {
	t.Helper()

	store := newMemStore()
	logger := zap.NewNop()
	rl := relay.NewMemoryRelay(logger)
	t.Cleanup(func() { _ = rl.Close() })

	adsRepo := &memAdsRepo{store: store}
	sessionsRepo := &memSessionsRepo{store: store}
	ratingsRepo := &memRatingsRepo{store: store}
	profilesRepo := &memProfilesRepo{store: store}
	catalogRepo := &memCatalogRepo{store: store}
	statsRepo := &memStatsRepo{store: store}

	stats := NewStatsService(sessionsRepo, ratingsRepo, statsRepo, logger)

	return &env{
		store:        store,
		relay:        rl,
		availability: NewAvailabilityService(adsRepo, catalogRepo, profilesRepo, rl, requireVerified, logger),
		sessions:     NewSessionService(sessionsRepo, stats, rl, logger),
		ratings:      NewRatingService(ratingsRepo, sessionsRepo, stats, logger),
		stats:        stats,
		profiles:     NewProfileService(profilesRepo, logger),
	}
}

func (e *env) addProfile(t *testing.T, role model.Role, verified bool) auth.Caller {
	t.Helper()

	profile := &model.Profile{
		ID:          uuid.New(),
		Role:        role,
		DisplayName: "user " + uuid.NewString()[:8],
		IsVerified:  verified,
	}
	require.NoError(t, (&memProfilesRepo{store: e.store}).Create(context.Background(), profile))

	return auth.Caller{ID: profile.ID, Role: role}
}

func (e *env) addSubject(t *testing.T, name string) uuid.UUID {
	t.Helper()

	subject := &model.Subject{ID: uuid.New(), Name: name}
	e.store.mu.Lock()
	e.store.subjects[subject.ID] = subject
	e.store.mu.Unlock()

	return subject.ID
}

func (e *env) addTopic(t *testing.T, subjectID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	topic := &model.Topic{ID: uuid.New(), SubjectID: subjectID, Name: name}
	e.store.mu.Lock()
	e.store.topics[topic.ID] = topic
	e.store.mu.Unlock()

	return topic.ID
}
