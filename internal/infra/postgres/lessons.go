package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// LessonRepository persists lessons on bun/Postgres.
type LessonRepository struct {
	db *bun.DB
}

func NewLessonRepository(db *bun.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func (r *LessonRepository) Create(ctx context.Context, l *domain.Lesson) error {
	now := time.Now().UTC()
	l.Version = 1
	l.CreatedAt = now
	l.UpdatedAt = now
	row := toLessonRow(*l)
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	return nil
}

func (r *LessonRepository) GetByID(ctx context.Context, id string) (domain.Lesson, error) {
	var row lessonRow
	err := r.db.NewSelect().Model(&row).Where("l.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	if err != nil {
		return domain.Lesson{}, fmt.Errorf("load lesson: %w", err)
	}
	return row.toDomain(), nil
}

func (r *LessonRepository) List(ctx context.Context) ([]domain.Lesson, error) {
	var rows []lessonRow
	err := r.db.NewSelect().Model(&rows).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	lessons := make([]domain.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.toDomain())
	}
	return lessons, nil
}

// Update applies a compare-and-swap on the version column.
func (r *LessonRepository) Update(ctx context.Context, l *domain.Lesson) error {
	current := l.Version
	l.Version = current + 1
	l.UpdatedAt = time.Now().UTC()
	row := toLessonRow(*l)

	res, err := r.db.NewUpdate().Model(&row).
		WherePK().
		Where("version = ?", current).
		Exec(ctx)
	if err != nil {
		l.Version = current
		return fmt.Errorf("update lesson: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		l.Version = current
		return fmt.Errorf("update lesson: %w", err)
	}
	if n == 0 {
		l.Version = current
		return domain.ErrVersionConflict
	}
	return nil
}

// Delete removes a lesson, but only for its creator.
func (r *LessonRepository) Delete(ctx context.Context, id, creatorID string) error {
	res, err := r.db.NewDelete().Model((*lessonRow)(nil)).
		Where("id = ?", id).
		Where("creator_id = ?", creatorID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrLessonNotFound
	}
	return nil
}
