package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// UserRepository persists users on bun/Postgres.
type UserRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	exists, err := r.db.NewSelect().Model((*userRow)(nil)).
		Where("lower(email) = lower(?)", u.Email).
		WhereOr("lower(username) = lower(?)", u.Username).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if exists {
		return domain.ErrDuplicateUser
	}

	now := time.Now().UTC()
	u.Version = 1
	u.CreatedAt = now
	u.UpdatedAt = now
	row := toUserRow(*u)
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateUser
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	err := r.db.NewSelect().Model(&row).Where("u.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	err := r.db.NewSelect().Model(&row).Where("lower(u.email) = lower(?)", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var row userRow
	err := r.db.NewSelect().Model(&row).Where("lower(u.username) = lower(?)", username).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return row.toDomain(), nil
}

// Update applies a compare-and-swap on the version column. A row updated
// by someone else since the read reports domain.ErrVersionConflict.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	current := u.Version
	u.Version = current + 1
	u.UpdatedAt = time.Now().UTC()
	row := toUserRow(*u)

	res, err := r.db.NewUpdate().Model(&row).
		WherePK().
		Where("version = ?", current).
		Exec(ctx)
	if err != nil {
		u.Version = current
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		u.Version = current
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		u.Version = current
		return domain.ErrVersionConflict
	}
	return nil
}

// TopWeekly unnests each user's weekly ledger and ranks the entries that
// fall inside the given week. Zero-score weeks never rank.
func (r *UserRepository) TopWeekly(ctx context.Context, weekStart time.Time, limit int) ([]domain.WeeklyRank, error) {
	var rows []struct {
		UserID    string  `bun:"user_id"`
		Username  string  `bun:"username"`
		AvatarURL string  `bun:"avatar_url"`
		Score     float64 `bun:"score"`
	}
	err := r.db.NewRaw(`
		SELECT u.id AS user_id, u.username, u.avatar_url,
		       (entry->>'score')::numeric AS score
		FROM users u,
		     jsonb_array_elements(coalesce(u.weekly_scores, '[]'::jsonb)) AS entry
		WHERE (entry->>'weekStart')::timestamptz >= ?
		  AND (entry->>'weekStart')::timestamptz < ?
		  AND (entry->>'score')::numeric > 0
		ORDER BY score DESC, u.username ASC
		LIMIT ?
	`, weekStart, weekStart.AddDate(0, 0, 7), limit).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("weekly leaderboard: %w", err)
	}

	ranks := make([]domain.WeeklyRank, 0, len(rows))
	for _, row := range rows {
		ranks = append(ranks, domain.WeeklyRank{
			UserID:    row.UserID,
			Username:  row.Username,
			AvatarURL: row.AvatarURL,
			Score:     int(row.Score),
		})
	}
	return ranks, nil
}

func isUniqueViolation(err error) bool {
	// pgdriver surfaces server errors textually; 23505 is unique_violation.
	return err != nil && strings.Contains(err.Error(), "23505")
}
