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

// ChallengeRepository persists challenges on bun/Postgres.
type ChallengeRepository struct {
	db *bun.DB
}

func NewChallengeRepository(db *bun.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, c *domain.Challenge) error {
	now := time.Now().UTC()
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now
	row := toChallengeRow(*c)
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (domain.Challenge, error) {
	var row challengeRow
	err := r.db.NewSelect().Model(&row).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	return row.toDomain(), nil
}

func (r *ChallengeRepository) List(ctx context.Context) ([]domain.Challenge, error) {
	var rows []challengeRow
	err := r.db.NewSelect().Model(&rows).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	challenges := make([]domain.Challenge, 0, len(rows))
	for _, row := range rows {
		challenges = append(challenges, row.toDomain())
	}
	return challenges, nil
}

// Update applies a compare-and-swap on the version column.
func (r *ChallengeRepository) Update(ctx context.Context, c *domain.Challenge) error {
	current := c.Version
	c.Version = current + 1
	c.UpdatedAt = time.Now().UTC()
	row := toChallengeRow(*c)

	res, err := r.db.NewUpdate().Model(&row).
		WherePK().
		Where("version = ?", current).
		Exec(ctx)
	if err != nil {
		c.Version = current
		return fmt.Errorf("update challenge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		c.Version = current
		return fmt.Errorf("update challenge: %w", err)
	}
	if n == 0 {
		c.Version = current
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *ChallengeRepository) Delete(ctx context.Context, id, creatorID string) error {
	res, err := r.db.NewDelete().Model((*challengeRow)(nil)).
		Where("id = ?", id).
		Where("creator_id = ?", creatorID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}
