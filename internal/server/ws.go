package server

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/tutormatch/internal/apperr"
	"github.com/Freeeeeet/tutormatch/internal/relay"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin проверяет внешний identity-слой перед нами
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

const writeTimeout = 10 * time.Second

// handleFeed стримит события relay в WebSocket. Истории нет: клиент после
// (пере)подключения сам запрашивает текущее состояние обычными ручками —
// события, прошедшие до подписки, потеряны насовсем.
//
// ?feed=availability — публичная лента объявлений, доступна всем ролям;
// ?feed=sessions — события своих сессий (топик выбирается по роли).
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var topic string
	switch r.URL.Query().Get("feed") {
	case "availability":
		topic = relay.TopicAvailability
	case "sessions":
		if caller.IsTeacher() {
			topic = relay.TopicSessionsForTeacher(caller.ID)
		} else {
			topic = relay.TopicSessionsForStudent(caller.ID)
		}
	default:
		s.writeError(w, apperr.Validation("feed must be 'availability' or 'sessions'"))
		return
	}

	sub, err := s.relay.Subscribe(r.Context(), topic)
	if err != nil {
		s.writeError(w, apperr.Unavailable("subscribe to feed", err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	s.logger.Info("Feed subscriber connected",
		zap.String("topic", topic),
		zap.String("caller_id", caller.ID.String()),
	)

	// Читатель нужен только чтобы заметить закрытие соединения клиентом
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		sub.Close()
		_ = conn.Close()
		s.logger.Info("Feed subscriber disconnected", zap.String("topic", topic))
	}()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
