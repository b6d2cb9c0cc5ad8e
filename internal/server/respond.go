package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Freeeeeet/tutormatch/internal/apperr"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError переводит доменную ошибку в HTTP-статус. AlreadyClaimed — 409
// и уровень info: проигранная гонка за объявление это не сбой.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)

	var status int
	switch kind {
	case apperr.KindNotAuthorized:
		status = http.StatusForbidden
	case apperr.KindAlreadyClaimed, apperr.KindInvalidState:
		status = http.StatusConflict
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindUnavailable:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	msg := "internal error"
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		msg = appErr.Msg
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}

	s.writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}
