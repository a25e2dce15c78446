package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// SubmissionRepository persists submissions on bun/Postgres. One row per
// (user, lesson) pair; a resubmission replaces the stored attempt in place.
type SubmissionRepository struct {
	db *bun.DB
}

func NewSubmissionRepository(db *bun.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Upsert(ctx context.Context, s *domain.Submission) error {
	row := toSubmissionRow(*s)
	_, err := r.db.NewInsert().Model(&row).
		On("CONFLICT (user_id, lesson_id) DO UPDATE").
		Set("original_array = EXCLUDED.original_array").
		Set("result_array = EXCLUDED.result_array").
		Set("user_array = EXCLUDED.user_array").
		Set("correct_answers = EXCLUDED.correct_answers").
		Set("blank_count = EXCLUDED.blank_count").
		Set("total_filled_blanks = EXCLUDED.total_filled_blanks").
		Set("accuracy = EXCLUDED.accuracy").
		Set("score = EXCLUDED.score").
		Set("submitted_at = EXCLUDED.submitted_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	// The pair keeps its identity across attempts.
	var id string
	err = r.db.NewSelect().Model((*submissionRow)(nil)).
		Column("id").
		Where("user_id = ?", s.UserID).
		Where("lesson_id = ?", s.LessonID).
		Scan(ctx, &id)
	if err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	s.ID = id
	return nil
}

func (r *SubmissionRepository) GetByUserAndLesson(ctx context.Context, userID, lessonID string) (domain.Submission, error) {
	var row submissionRow
	err := r.db.NewSelect().Model(&row).
		Where("s.user_id = ?", userID).
		Where("s.lesson_id = ?", lessonID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	return row.toDomain(), nil
}

func (r *SubmissionRepository) ListByLessons(ctx context.Context, lessonIDs []string) ([]domain.Submission, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var rows []submissionRow
	err := r.db.NewSelect().Model(&rows).
		Where("s.lesson_id IN (?)", bun.In(lessonIDs)).
		Order("submitted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	subs := make([]domain.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toDomain())
	}
	return subs, nil
}
