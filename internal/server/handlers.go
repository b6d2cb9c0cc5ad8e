package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Freeeeeet/tutormatch/internal/apperr"
	"github.com/Freeeeeet/tutormatch/internal/auth"
	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ensureProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
	Bio         string `json:"bio" validate:"max=2000"`
}

type setVerifiedRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}

type publishRequest struct {
	SubjectID string  `json:"subject_id" validate:"required,uuid"`
	TopicID   *string `json:"topic_id" validate:"omitempty,uuid"`
}

type claimRequest struct {
	AdvertisementID string `json:"advertisement_id" validate:"required,uuid"`
}

type rateRequest struct {
	Score   int    `json:"score" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// decode парсит и валидирует тело запроса
func (s *Server) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("malformed request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return apperr.Validation(validationMessage(fieldErrs))
		}
		return apperr.Validation("invalid request body")
	}
	return nil
}

// Сырые сообщения validator-а с именами Go-структур клиентам не отдаём
func validationMessage(errs validator.ValidationErrors) string {
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fe.Field())
	}
	return "invalid value for field(s): " + strings.Join(fields, ", ")
}

func callerFrom(r *http.Request) (auth.Caller, error) {
	caller, ok := auth.GetCaller(r.Context())
	if !ok {
		return auth.Caller{}, apperr.NotAuthorized("caller identity missing")
	}
	return caller, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid " + name)
	}
	return id, nil
}

func (s *Server) handleEnsureProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req ensureProfileRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	profile, err := s.profiles.Ensure(r.Context(), caller, req.DisplayName)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req updateProfileRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	profile, err := s.profiles.Update(r.Context(), caller, req.DisplayName, req.AvatarURL, req.Bio)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	profile, err := s.profiles.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSetVerified(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	teacherID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req setVerifiedRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.profiles.SetVerified(r.Context(), caller, teacherID, *req.Verified); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.availability.ListSubjects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, subjects)
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	subjectID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	topics, err := s.availability.ListTopics(r.Context(), subjectID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, topics)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req publishRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		s.writeError(w, apperr.Validation("invalid subject_id"))
		return
	}

	var topicID *uuid.UUID
	if req.TopicID != nil {
		parsed, err := uuid.Parse(*req.TopicID)
		if err != nil {
			s.writeError(w, apperr.Validation("invalid topic_id"))
			return
		}
		topicID = &parsed
	}

	ad, err := s.availability.Publish(r.Context(), caller, subjectID, topicID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, ad)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.availability.Withdraw(r.Context(), caller); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListOpen(w http.ResponseWriter, r *http.Request) {
	var filter model.AdvertisementFilter

	if raw := r.URL.Query().Get("subject_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.writeError(w, apperr.Validation("invalid subject_id"))
			return
		}
		filter.SubjectID = &id
	}
	if raw := r.URL.Query().Get("topic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.writeError(w, apperr.Validation("invalid topic_id"))
			return
		}
		filter.TopicID = &id
	}
	filter.TextQuery = r.URL.Query().Get("q")

	ads, err := s.availability.ListOpen(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if ads == nil {
		ads = []*model.Advertisement{}
	}
	s.writeJSON(w, http.StatusOK, ads)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req claimRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	advertisementID, err := uuid.Parse(req.AdvertisementID)
	if err != nil {
		s.writeError(w, apperr.Validation("invalid advertisement_id"))
		return
	}

	session, err := s.sessions.Claim(r.Context(), caller, advertisementID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sessions, err := s.sessions.ListMine(r.Context(), caller)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if sessions == nil {
		sessions = []*model.Session{}
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	session, err := s.sessions.Get(r.Context(), caller, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleActivateSession(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	session, err := s.sessions.Activate(r.Context(), caller, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	session, err := s.sessions.Complete(r.Context(), caller, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	session, err := s.sessions.Cancel(r.Context(), caller, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleRateSession(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req rateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	rating, err := s.ratings.Rate(r.Context(), caller, id, req.Score, req.Comment)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, rating)
}

func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	rating, err := s.ratings.GetForSession(r.Context(), caller, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, rating)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Get(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}
