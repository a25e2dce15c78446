package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// LessonLoader is the read-side lesson source on a pgx pool. It feeds the
// lesson cache without going through bun, keeping hot reads on the cheaper
// connection pool.
type LessonLoader struct {
	pool *pgxpool.Pool
}

func NewLessonLoader(pool *pgxpool.Pool) *LessonLoader {
	return &LessonLoader{pool: pool}
}

const lessonColumns = `id, title, code, content, tokens, words, audio_file, image_file,
	source, creator_id, listen_count, listened_by, top_scores, version, created_at, updated_at`

func (l *LessonLoader) LoadLesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	row := l.pool.QueryRow(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id=$1`, lessonID)
	lesson, err := scanLesson(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	if err != nil {
		return domain.Lesson{}, fmt.Errorf("load lesson: %w", err)
	}
	return lesson, nil
}

func (l *LessonLoader) LoadLessons(ctx context.Context) ([]domain.Lesson, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+lessonColumns+` FROM lessons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	defer rows.Close()

	var lessons []domain.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("load lessons: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	return lessons, nil
}

func scanLesson(row pgx.Row) (domain.Lesson, error) {
	var (
		lesson                               domain.Lesson
		tokens, words, listenedBy, topScores []byte
	)
	err := row.Scan(
		&lesson.ID, &lesson.Title, &lesson.Code, &lesson.Content,
		&tokens, &words, &lesson.AudioFile, &lesson.ImageFile,
		&lesson.Source, &lesson.CreatorID, &lesson.ListenCount,
		&listenedBy, &topScores, &lesson.Version,
		&lesson.CreatedAt, &lesson.UpdatedAt,
	)
	if err != nil {
		return domain.Lesson{}, err
	}
	for _, col := range []struct {
		raw  []byte
		dest any
	}{
		{tokens, &lesson.Tokens},
		{words, &lesson.Words},
		{listenedBy, &lesson.ListenedBy},
		{topScores, &lesson.TopScores},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return domain.Lesson{}, err
		}
	}
	return lesson, nil
}
