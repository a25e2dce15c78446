package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// CreateLessonInput carries the fields of a new lesson. Tokens is the
// blanked template (BlankToken at gaps) and Words the correct fill, both
// parallel.
type CreateLessonInput struct {
	Title     string   `json:"title"`
	Code      string   `json:"code"`
	Content   string   `json:"content"`
	Tokens    []string `json:"tokens"`
	Words     []string `json:"words"`
	AudioFile string   `json:"audioFile"`
	ImageFile string   `json:"imageFile"`
	Source    string   `json:"source"`
}

// LessonService owns lesson lifecycle and leaderboard reads. Reads go
// through a possibly-cached reader; writes and fresh leaderboard snapshots
// hit the authoritative store.
type LessonService struct {
	store  LessonRepository
	reader LessonReader
	hub    *LeaderboardHub
	now    func() time.Time
}

func NewLessonService(store LessonRepository, reader LessonReader, hub *LeaderboardHub) *LessonService {
	if reader == nil {
		reader = store
	}
	return &LessonService{store: store, reader: reader, hub: hub, now: time.Now}
}

// Create persists a new lesson owned by its creator.
func (s *LessonService) Create(ctx context.Context, creatorID string, input CreateLessonInput) (domain.Lesson, error) {
	if input.Title == "" || input.Content == "" || input.Source == "" {
		return domain.Lesson{}, fmt.Errorf("title, content and source are required: %w", domain.ErrInvalidInput)
	}
	if len(input.Tokens) == 0 || len(input.Tokens) != len(input.Words) {
		return domain.Lesson{}, fmt.Errorf("tokens and words must be non-empty and parallel: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	lesson := domain.Lesson{
		ID:        uuid.NewString(),
		Title:     input.Title,
		Code:      input.Code,
		Content:   input.Content,
		Tokens:    input.Tokens,
		Words:     input.Words,
		AudioFile: input.AudioFile,
		ImageFile: input.ImageFile,
		Source:    input.Source,
		CreatorID: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, &lesson); err != nil {
		return domain.Lesson{}, err
	}
	return lesson, nil
}

// Get returns one lesson, possibly from cache.
func (s *LessonService) Get(ctx context.Context, id string) (domain.Lesson, error) {
	return s.reader.GetByID(ctx, id)
}

// List returns all lessons, possibly from cache.
func (s *LessonService) List(ctx context.Context) ([]domain.Lesson, error) {
	return s.reader.List(ctx)
}

// Delete removes a lesson; only the creator may delete it.
func (s *LessonService) Delete(ctx context.Context, id, creatorID string) error {
	return s.store.Delete(ctx, id, creatorID)
}

// Board returns a fresh leaderboard snapshot, bypassing any cache so
// subscribers never see a stale board on first load.
func (s *LessonService) Board(ctx context.Context, lessonID string) (domain.LessonBoard, error) {
	lesson, err := s.store.GetByID(ctx, lessonID)
	if err != nil {
		return domain.LessonBoard{}, err
	}
	return lesson.Board(s.now()), nil
}

// Subscribe returns a live feed of leaderboard snapshots for a lesson.
func (s *LessonService) Subscribe(lessonID string) (<-chan domain.LessonBoard, func()) {
	return s.hub.Subscribe(lessonID)
}
