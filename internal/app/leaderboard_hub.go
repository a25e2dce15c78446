package app

import (
	"sync"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// LeaderboardHub fans lesson leaderboard snapshots out to live subscribers
// (one websocket connection per subscription).
type LeaderboardHub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.LessonBoard]struct{}
}

func NewLeaderboardHub() *LeaderboardHub {
	return &LeaderboardHub{subs: make(map[string]map[chan domain.LessonBoard]struct{})}
}

// Subscribe returns a channel of board snapshots for a lesson. The caller
// must invoke the returned cancel function to avoid leaks.
func (h *LeaderboardHub) Subscribe(lessonID string) (<-chan domain.LessonBoard, func()) {
	ch := make(chan domain.LessonBoard, 8)

	h.mu.Lock()
	if h.subs[lessonID] == nil {
		h.subs[lessonID] = make(map[chan domain.LessonBoard]struct{})
	}
	h.subs[lessonID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[lessonID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, lessonID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of the lesson. Slow
// subscribers have their stale snapshot dropped rather than blocking the
// publisher.
func (h *LeaderboardHub) Publish(board domain.LessonBoard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[board.LessonID] {
		select {
		case ch <- board:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- board
		}
	}
}
