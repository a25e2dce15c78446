// Package postgres implements the repositories on bun/Postgres. Aggregate
// arrays live as JSONB documents on their owning row; every mutable
// aggregate row carries a version column for optimistic concurrency.
package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// nonNil keeps jsonb columns as empty arrays rather than JSON null, which
// would trip jsonb_array_elements on the read side.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                  string                  `bun:"id,pk"`
	Username            string                  `bun:"username,notnull"`
	FullName            string                  `bun:"full_name"`
	Email               string                  `bun:"email,notnull"`
	PasswordHash        string                  `bun:"password_hash,notnull"`
	AvatarURL           string                  `bun:"avatar_url"`
	Streak              int                     `bun:"streak,notnull"`
	LastStreakDate      *time.Time              `bun:"last_streak_date"`
	TotalScore          int                     `bun:"total_score,notnull"`
	WeeklyScores        []domain.WeeklyScore    `bun:"weekly_scores,type:jsonb"`
	ListenedLessons     []domain.ListenedLesson `bun:"listened_lessons,type:jsonb"`
	IsVerified          bool                    `bun:"is_verified,notnull"`
	VerificationCode    string                  `bun:"verification_code"`
	VerificationExpires *time.Time              `bun:"verification_expires"`
	Version             int64                   `bun:"version,notnull"`
	CreatedAt           time.Time               `bun:"created_at,notnull"`
	UpdatedAt           time.Time               `bun:"updated_at,notnull"`
}

func toUserRow(u domain.User) userRow {
	return userRow{
		ID:                  u.ID,
		Username:            u.Username,
		FullName:            u.FullName,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		AvatarURL:           u.AvatarURL,
		Streak:              u.Streak,
		LastStreakDate:      u.LastStreakDate,
		TotalScore:          u.TotalScore,
		WeeklyScores:        nonNil(u.WeeklyScores),
		ListenedLessons:     nonNil(u.ListenedLessons),
		IsVerified:          u.IsVerified,
		VerificationCode:    u.VerificationCode,
		VerificationExpires: u.VerificationExpires,
		Version:             u.Version,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:                  r.ID,
		Username:            r.Username,
		FullName:            r.FullName,
		Email:               r.Email,
		PasswordHash:        r.PasswordHash,
		AvatarURL:           r.AvatarURL,
		Streak:              r.Streak,
		LastStreakDate:      r.LastStreakDate,
		TotalScore:          r.TotalScore,
		WeeklyScores:        r.WeeklyScores,
		ListenedLessons:     r.ListenedLessons,
		IsVerified:          r.IsVerified,
		VerificationCode:    r.VerificationCode,
		VerificationExpires: r.VerificationExpires,
		Version:             r.Version,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

type lessonRow struct {
	bun.BaseModel `bun:"table:lessons,alias:l"`

	ID          string            `bun:"id,pk"`
	Title       string            `bun:"title,notnull"`
	Code        string            `bun:"code"`
	Content     string            `bun:"content,notnull"`
	Tokens      []string          `bun:"tokens,type:jsonb"`
	Words       []string          `bun:"words,type:jsonb"`
	AudioFile   string            `bun:"audio_file"`
	ImageFile   string            `bun:"image_file"`
	Source      string            `bun:"source,notnull"`
	CreatorID   string            `bun:"creator_id"`
	ListenCount int               `bun:"listen_count,notnull"`
	ListenedBy  []string          `bun:"listened_by,type:jsonb"`
	TopScores   []domain.TopScore `bun:"top_scores,type:jsonb"`
	Version     int64             `bun:"version,notnull"`
	CreatedAt   time.Time         `bun:"created_at,notnull"`
	UpdatedAt   time.Time         `bun:"updated_at,notnull"`
}

func toLessonRow(l domain.Lesson) lessonRow {
	return lessonRow{
		ID:          l.ID,
		Title:       l.Title,
		Code:        l.Code,
		Content:     l.Content,
		Tokens:      nonNil(l.Tokens),
		Words:       nonNil(l.Words),
		AudioFile:   l.AudioFile,
		ImageFile:   l.ImageFile,
		Source:      l.Source,
		CreatorID:   l.CreatorID,
		ListenCount: l.ListenCount,
		ListenedBy:  nonNil(l.ListenedBy),
		TopScores:   nonNil(l.TopScores),
		Version:     l.Version,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func (r lessonRow) toDomain() domain.Lesson {
	return domain.Lesson{
		ID:          r.ID,
		Title:       r.Title,
		Code:        r.Code,
		Content:     r.Content,
		Tokens:      r.Tokens,
		Words:       r.Words,
		AudioFile:   r.AudioFile,
		ImageFile:   r.ImageFile,
		Source:      r.Source,
		CreatorID:   r.CreatorID,
		ListenCount: r.ListenCount,
		ListenedBy:  r.ListenedBy,
		TopScores:   r.TopScores,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type submissionRow struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID                string    `bun:"id,pk"`
	UserID            string    `bun:"user_id,notnull"`
	LessonID          string    `bun:"lesson_id,notnull"`
	OriginalArray     []string  `bun:"original_array,type:jsonb"`
	ResultArray       []string  `bun:"result_array,type:jsonb"`
	UserArray         []string  `bun:"user_array,type:jsonb"`
	CorrectAnswers    int       `bun:"correct_answers,notnull"`
	BlankCount        int       `bun:"blank_count,notnull"`
	TotalFilledBlanks int       `bun:"total_filled_blanks,notnull"`
	Accuracy          float64   `bun:"accuracy,notnull"`
	Score             int       `bun:"score,notnull"`
	SubmittedAt       time.Time `bun:"submitted_at,notnull"`
}

func toSubmissionRow(s domain.Submission) submissionRow {
	return submissionRow{
		ID:                s.ID,
		UserID:            s.UserID,
		LessonID:          s.LessonID,
		OriginalArray:     nonNil(s.OriginalArray),
		ResultArray:       nonNil(s.ResultArray),
		UserArray:         nonNil(s.UserArray),
		CorrectAnswers:    s.CorrectAnswers,
		BlankCount:        s.BlankCount,
		TotalFilledBlanks: s.TotalFilledBlanks,
		Accuracy:          s.Accuracy,
		Score:             s.Score,
		SubmittedAt:       s.SubmittedAt,
	}
}

func (r submissionRow) toDomain() domain.Submission {
	return domain.Submission{
		ID:                r.ID,
		UserID:            r.UserID,
		LessonID:          r.LessonID,
		OriginalArray:     r.OriginalArray,
		ResultArray:       r.ResultArray,
		UserArray:         r.UserArray,
		CorrectAnswers:    r.CorrectAnswers,
		BlankCount:        r.BlankCount,
		TotalFilledBlanks: r.TotalFilledBlanks,
		Accuracy:          r.Accuracy,
		Score:             r.Score,
		SubmittedAt:       r.SubmittedAt,
	}
}

type challengeRow struct {
	bun.BaseModel `bun:"table:challenges,alias:c"`

	ID              string               `bun:"id,pk"`
	Title           string               `bun:"title,notnull"`
	Description     string               `bun:"description"`
	CoinAward       int                  `bun:"coin_award,notnull"`
	CoinFee         int                  `bun:"coin_fee,notnull"`
	ImageFile       string               `bun:"image_file"`
	CreatorID       string               `bun:"creator_id"`
	StartDate       time.Time            `bun:"start_date,notnull"`
	EndDate         time.Time            `bun:"end_date,notnull"`
	LessonIDs       []string             `bun:"lessons,type:jsonb"`
	Participants    []domain.Participant `bun:"participants,type:jsonb"`
	TotalScore      int                  `bun:"total_score,notnull"`
	TotalAccuracy   float64              `bun:"total_accuracy,notnull"`
	TotalSubmission int                  `bun:"total_submission,notnull"`
	AverageScore    float64              `bun:"average_score,notnull"`
	AverageAccuracy float64              `bun:"average_accuracy,notnull"`
	Version         int64                `bun:"version,notnull"`
	CreatedAt       time.Time            `bun:"created_at,notnull"`
	UpdatedAt       time.Time            `bun:"updated_at,notnull"`
}

func toChallengeRow(c domain.Challenge) challengeRow {
	return challengeRow{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		CoinAward:       c.CoinAward,
		CoinFee:         c.CoinFee,
		ImageFile:       c.ImageFile,
		CreatorID:       c.CreatorID,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		LessonIDs:       nonNil(c.LessonIDs),
		Participants:    nonNil(c.Participants),
		TotalScore:      c.TotalScore,
		TotalAccuracy:   c.TotalAccuracy,
		TotalSubmission: c.TotalSubmission,
		AverageScore:    c.AverageScore,
		AverageAccuracy: c.AverageAccuracy,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (r challengeRow) toDomain() domain.Challenge {
	return domain.Challenge{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		CoinAward:       r.CoinAward,
		CoinFee:         r.CoinFee,
		ImageFile:       r.ImageFile,
		CreatorID:       r.CreatorID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		LessonIDs:       r.LessonIDs,
		Participants:    r.Participants,
		TotalScore:      r.TotalScore,
		TotalAccuracy:   r.TotalAccuracy,
		TotalSubmission: r.TotalSubmission,
		AverageScore:    r.AverageScore,
		AverageAccuracy: r.AverageAccuracy,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
