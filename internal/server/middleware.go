package server

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/tutormatch/internal/auth"
	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// callerMiddleware достаёт личность из доверенных заголовков X-User-Id и
// X-User-Role. Их проставляет внешний identity-слой, отдельно мы токены
// не проверяем — это его зона ответственности.
func (s *Server) callerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := r.Header.Get("X-User-Id")
		rawRole := r.Header.Get("X-User-Role")

		if rawID == "" || rawRole == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		id, err := uuid.Parse(rawID)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		role := model.Role(rawRole)
		switch role {
		case model.RoleStudent, model.RoleTeacher, model.RoleAdmin:
		default:
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := auth.WithCaller(r.Context(), auth.Caller{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
