package http

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/thungan1909/easy-english-backend/internal/app"
	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// WSHandler streams live lesson leaderboard updates over websockets.
type WSHandler struct {
	lessons  *app.LessonService
	upgrader websocket.Upgrader
}

func NewWSHandler(lessons *app.LessonService) *WSHandler {
	return &WSHandler{
		lessons: lessons,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.LessonBoard `json:"payload"`
}

// ServeWS upgrades the request and pushes the current board followed by
// every update until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	lessonID := mux.Vars(r)["id"]

	board, err := h.lessons.Board(r.Context(), lessonID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.lessons.Subscribe(lessonID)
	defer cancel()

	// Reader goroutine exists only to notice the peer going away.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: board}); err != nil {
		return
	}

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: update}); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}
