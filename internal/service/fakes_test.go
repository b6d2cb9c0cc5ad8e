package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/Freeeeeet/tutormatch/internal/repository"
	"github.com/google/uuid"
)

// Фейки повторяют семантику Postgres-репозиториев в памяти, включая
// атомарность claim под мьютексом — так гонки проверяются без БД.

type memStore struct {
	mu       sync.Mutex
	ads      map[uuid.UUID]*model.Advertisement // по ID объявления
	sessions map[uuid.UUID]*model.Session
	ratings  map[uuid.UUID]*model.Rating // по session_id
	profiles map[uuid.UUID]*model.Profile
	subjects map[uuid.UUID]*model.Subject
	topics   map[uuid.UUID]*model.Topic
	stats    *model.PlatformStats
}

func newMemStore() *memStore {
	return &memStore{
		ads:      make(map[uuid.UUID]*model.Advertisement),
		sessions: make(map[uuid.UUID]*model.Session),
		ratings:  make(map[uuid.UUID]*model.Rating),
		profiles: make(map[uuid.UUID]*model.Profile),
		subjects: make(map[uuid.UUID]*model.Subject),
		topics:   make(map[uuid.UUID]*model.Topic),
	}
}

func copySession(s *model.Session) *model.Session {
	cp := *s
	return &cp
}

// --- AvailabilityRepo ---

type memAdsRepo struct{ store *memStore }

func (r *memAdsRepo) Upsert(_ context.Context, ad *model.Advertisement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.ads {
		if existing.TeacherID == ad.TeacherID {
			delete(r.store.ads, id)
		}
	}
	ad.CreatedAt = time.Now()
	cp := *ad
	r.store.ads[ad.ID] = &cp
	return nil
}

func (r *memAdsRepo) DeleteByTeacher(_ context.Context, teacherID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, ad := range r.store.ads {
		if ad.TeacherID == teacherID {
			delete(r.store.ads, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *memAdsRepo) ListOpen(_ context.Context, filter model.AdvertisementFilter) ([]*model.Advertisement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.Advertisement
	for _, ad := range r.store.ads {
		if filter.SubjectID != nil && ad.SubjectID != *filter.SubjectID {
			continue
		}
		if filter.TopicID != nil && (ad.TopicID == nil || *ad.TopicID != *filter.TopicID) {
			continue
		}
		if filter.TextQuery != "" && !r.matchesText(ad, filter.TextQuery) {
			continue
		}
		cp := *ad
		out = append(out, &cp)
	}
	return out, nil
}

// Текстовый поиск идёт по имени учителя, предмету и теме — как ILIKE
// в настоящем репозитории
func (r *memAdsRepo) matchesText(ad *model.Advertisement, query string) bool {
	var names []string
	if profile, ok := r.store.profiles[ad.TeacherID]; ok {
		names = append(names, profile.DisplayName)
	}
	if subject, ok := r.store.subjects[ad.SubjectID]; ok {
		names = append(names, subject.Name)
	}
	if ad.TopicID != nil {
		if topic, ok := r.store.topics[*ad.TopicID]; ok {
			names = append(names, topic.Name)
		}
	}

	q := strings.ToLower(query)
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), q) {
			return true
		}
	}
	return false
}

// --- SessionRepo ---

type memSessionsRepo struct{ store *memStore }

func (r *memSessionsRepo) Claim(_ context.Context, advertisementID, studentID uuid.UUID, startedAt time.Time) (*model.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ad, ok := r.store.ads[advertisementID]
	if !ok {
		return nil, nil
	}
	delete(r.store.ads, advertisementID)

	now := time.Now()
	session := &model.Session{
		ID:        uuid.New(),
		StudentID: studentID,
		TeacherID: ad.TeacherID,
		SubjectID: ad.SubjectID,
		TopicID:   ad.TopicID,
		Status:    model.SessionStatusActive,
		StartedAt: &startedAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.store.sessions[session.ID] = session
	return copySession(session), nil
}

func (r *memSessionsRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, ok := r.store.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(session), nil
}

func (r *memSessionsRepo) StartIfPending(_ context.Context, id uuid.UUID, startedAt time.Time) (*model.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, ok := r.store.sessions[id]
	if !ok || session.Status != model.SessionStatusPending {
		return nil, nil
	}

	session.Status = model.SessionStatusActive
	session.StartedAt = &startedAt
	session.UpdatedAt = time.Now()
	return copySession(session), nil
}

func (r *memSessionsRepo) FinishIfActive(_ context.Context, id uuid.UUID, status model.SessionStatus, endedAt time.Time, durationMinutes int, reason model.EndReason) (*model.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, ok := r.store.sessions[id]
	if !ok || session.Status != model.SessionStatusActive {
		return nil, nil
	}

	session.Status = status
	session.EndedAt = &endedAt
	session.DurationMinutes = &durationMinutes
	session.EndReason = &reason
	session.UpdatedAt = time.Now()
	return copySession(session), nil
}

func (r *memSessionsRepo) ListActiveStartedBefore(_ context.Context, cutoff time.Time) ([]*model.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.Session
	for _, session := range r.store.sessions {
		if session.Status == model.SessionStatusActive && session.StartedAt != nil && !session.StartedAt.After(cutoff) {
			out = append(out, copySession(session))
		}
	}
	return out, nil
}

func (r *memSessionsRepo) ListByParticipant(_ context.Context, participantID uuid.UUID) ([]*model.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.Session
	for _, session := range r.store.sessions {
		if session.HasParticipant(participantID) {
			out = append(out, copySession(session))
		}
	}
	return out, nil
}

func (r *memSessionsRepo) CountCompleted(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var count int64
	for _, session := range r.store.sessions {
		if session.Status == model.SessionStatusCompleted {
			count++
		}
	}
	return count, nil
}

// --- RatingRepo ---

type memRatingsRepo struct{ store *memStore }

func (r *memRatingsRepo) Create(_ context.Context, rating *model.Rating) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.ratings[rating.SessionID]; exists {
		return repository.ErrDuplicateRating
	}
	rating.CreatedAt = time.Now()
	cp := *rating
	r.store.ratings[rating.SessionID] = &cp
	return nil
}

func (r *memRatingsRepo) GetBySessionID(_ context.Context, sessionID uuid.UUID) (*model.Rating, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rating, ok := r.store.ratings[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *rating
	return &cp, nil
}

func (r *memRatingsRepo) AverageScore(_ context.Context) (float64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if len(r.store.ratings) == 0 {
		return 0, nil
	}
	var sum int
	for _, rating := range r.store.ratings {
		sum += rating.Score
	}
	return float64(sum) / float64(len(r.store.ratings)), nil
}

// --- ProfileRepo ---

type memProfilesRepo struct{ store *memStore }

func (r *memProfilesRepo) Create(_ context.Context, profile *model.Profile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	cp := *profile
	r.store.profiles[profile.ID] = &cp
	return nil
}

func (r *memProfilesRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	profile, ok := r.store.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *profile
	return &cp, nil
}

func (r *memProfilesRepo) Update(_ context.Context, profile *model.Profile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *profile
	cp.UpdatedAt = time.Now()
	r.store.profiles[profile.ID] = &cp
	return nil
}

func (r *memProfilesRepo) SetVerified(_ context.Context, teacherID uuid.UUID, verified bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if profile, ok := r.store.profiles[teacherID]; ok {
		profile.IsVerified = verified
	}
	return nil
}

// --- CatalogRepo ---

type memCatalogRepo struct{ store *memStore }

func (r *memCatalogRepo) ListSubjects(_ context.Context) ([]*model.Subject, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.Subject
	for _, subject := range r.store.subjects {
		cp := *subject
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memCatalogRepo) ListTopics(_ context.Context, subjectID uuid.UUID) ([]*model.Topic, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.Topic
	for _, topic := range r.store.topics {
		if topic.SubjectID == subjectID {
			cp := *topic
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memCatalogRepo) GetSubject(_ context.Context, id uuid.UUID) (*model.Subject, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	subject, ok := r.store.subjects[id]
	if !ok {
		return nil, nil
	}
	cp := *subject
	return &cp, nil
}

func (r *memCatalogRepo) GetTopic(_ context.Context, id uuid.UUID) (*model.Topic, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	topic, ok := r.store.topics[id]
	if !ok {
		return nil, nil
	}
	cp := *topic
	return &cp, nil
}

// --- StatsStore ---

type memStatsRepo struct{ store *memStore }

func (r *memStatsRepo) Upsert(_ context.Context, stats *model.PlatformStats) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stats.UpdatedAt = time.Now()
	cp := *stats
	r.store.stats = &cp
	return nil
}

func (r *memStatsRepo) Get(_ context.Context) (*model.PlatformStats, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.stats == nil {
		return nil, nil
	}
	cp := *r.store.stats
	return &cp, nil
}
