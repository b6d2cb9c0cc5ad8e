package server

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/Freeeeeet/tutormatch/internal/relay"
	"github.com/Freeeeeet/tutormatch/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Server тонкий HTTP/WebSocket слой над сервисами. Аутентификацию делает
// внешний identity-слой, сюда личность приходит доверенными заголовками.
type Server struct {
	availability *service.AvailabilityService
	sessions     *service.SessionService
	ratings      *service.RatingService
	stats        *service.StatsService
	profiles     *service.ProfileService
	relay        relay.Relay
	validate     *validator.Validate
	logger       *zap.Logger

	httpServer *http.Server
}

func New(
	availability *service.AvailabilityService,
	sessions *service.SessionService,
	ratings *service.RatingService,
	stats *service.StatsService,
	profiles *service.ProfileService,
	rl relay.Relay,
	addr string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		availability: availability,
		sessions:     sessions,
		ratings:      ratings,
		stats:        stats,
		profiles:     profiles,
		relay:        rl,
		validate:     newValidator(),
		logger:       logger,
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// newValidator настраивает validator отдавать в ошибках имена json-полей,
// а не имена Go-структур
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Router собирает маршруты
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(s.loggingMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.callerMiddleware)

		r.Post("/profile", s.handleEnsureProfile)
		r.Put("/profile", s.handleUpdateProfile)
		r.Get("/profiles/{id}", s.handleGetProfile)
		r.Put("/teachers/{id}/verified", s.handleSetVerified)

		r.Get("/subjects", s.handleListSubjects)
		r.Get("/subjects/{id}/topics", s.handleListTopics)

		r.Post("/availability", s.handlePublish)
		r.Delete("/availability", s.handleWithdraw)
		r.Get("/availability", s.handleListOpen)

		r.Post("/claims", s.handleClaim)

		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/activate", s.handleActivateSession)
		r.Post("/sessions/{id}/complete", s.handleCompleteSession)
		r.Post("/sessions/{id}/cancel", s.handleCancelSession)
		r.Post("/sessions/{id}/rating", s.handleRateSession)
		r.Get("/sessions/{id}/rating", s.handleGetRating)

		r.Get("/stats", s.handleGetStats)

		r.Get("/ws/feed", s.handleFeed)
	})

	return r
}

// Run запускает HTTP-сервер и гасит его при отмене контекста
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.logger.Info("Shutting down HTTP server")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
