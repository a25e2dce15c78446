package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

func TestWebSocketBoardFeed(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.registerAndLogin(t, "alice")

	u := "ws" + f.server.URL[len("http"):] + "/ws/lessons/" + testLessonID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Snapshot of the empty board arrives first.
	board := readBoard(t, conn)
	if board.LessonID != testLessonID || len(board.Entries) != 0 {
		t.Fatalf("unexpected snapshot %+v", board)
	}

	resp := f.do(t, http.MethodPost, "/api/lessons/submit", token, map[string]any{
		"lessonId":       testLessonID,
		"original_array": []string{"The", "_____", "sat"},
		"result_array":   []string{"The", "cat", "sat"},
		"user_array":     []string{"The", "cat", "sat"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	board = readBoard(t, conn)
	if len(board.Entries) != 1 || board.Entries[0].Score != 2 {
		t.Fatalf("unexpected update %+v", board)
	}
}

func TestWebSocketUnknownLesson(t *testing.T) {
	f := newAPIFixture(t)

	u := "ws" + f.server.URL[len("http"):] + "/ws/lessons/5b7d5e3e-0000-4000-8000-000000000000"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
}

func readBoard(t *testing.T, conn *websocket.Conn) domain.LessonBoard {
	t.Helper()
	var msg outboundMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read board: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("unexpected message type %q", msg.Type)
	}
	return msg.Payload
}
