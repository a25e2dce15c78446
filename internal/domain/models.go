package domain

import "time"

// TopScore is one leaderboard entry on a lesson. At most one entry exists
// per user; a fresh submission replaces the stale entry rather than
// accumulating a historical best.
type TopScore struct {
	UserID      string    `json:"userId"`
	Score       int       `json:"score"`
	Accuracy    float64   `json:"accuracy"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Lesson is an immutable listening template plus its mutable aggregates
// (listen counter, listener set, bounded top-scores list).
type Lesson struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Code        string     `json:"code"`
	Content     string     `json:"content"`
	Tokens      []string   `json:"tokens"` // blanked template; BlankToken marks a gap
	Words       []string   `json:"words"`  // correct fill for each position
	AudioFile   string     `json:"audioFile,omitempty"`
	ImageFile   string     `json:"imageFile,omitempty"`
	Source      string     `json:"source"`
	CreatorID   string     `json:"creator"`
	ListenCount int        `json:"listenCount"`
	ListenedBy  []string   `json:"listenedBy"`
	TopScores   []TopScore `json:"topScores"`
	Version     int64      `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// LessonBoard is a snapshot of a lesson's leaderboard for live feeds.
type LessonBoard struct {
	LessonID  string     `json:"lessonId"`
	Entries   []TopScore `json:"entries"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Submission is the single current record for a (user, lesson) pair.
// Resubmission overwrites the previous attempt.
type Submission struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user"`
	LessonID          string    `json:"lesson"`
	OriginalArray     []string  `json:"original_array"`
	ResultArray       []string  `json:"result_array"`
	UserArray         []string  `json:"user_array"`
	CorrectAnswers    int       `json:"correct_answers"`
	BlankCount        int       `json:"blankCount"`
	TotalFilledBlanks int       `json:"total_filled_blanks"`
	Accuracy          float64   `json:"accuracy"`
	Score             int       `json:"score"`
	SubmittedAt       time.Time `json:"submittedAt"`
}

// WeeklyScore is one entry of a user's weekly ledger, keyed by the ISO
// week start. At most one entry exists per distinct week.
type WeeklyScore struct {
	WeekStart time.Time `json:"weekStart"`
	Score     int       `json:"score"`
}

// ListenedLesson records that a user listened to a lesson; replays refresh
// the timestamp instead of appending.
type ListenedLesson struct {
	LessonID   string    `json:"lesson"`
	ListenedAt time.Time `json:"listenedAt"`
}

// User is an account plus its score and engagement aggregates.
// TotalScore must always equal the sum of WeeklyScores scores.
type User struct {
	ID                  string           `json:"id"`
	Username            string           `json:"username"`
	FullName            string           `json:"fullName,omitempty"`
	Email               string           `json:"email"`
	PasswordHash        string           `json:"-"`
	AvatarURL           string           `json:"avatarUrl,omitempty"`
	Streak              int              `json:"streak"`
	LastStreakDate      *time.Time       `json:"lastStreakDate,omitempty"`
	TotalScore          int              `json:"totalScore"`
	WeeklyScores        []WeeklyScore    `json:"weeklyScores"`
	ListenedLessons     []ListenedLesson `json:"listenedLessons"`
	IsVerified          bool             `json:"isVerified"`
	VerificationCode    string           `json:"-"`
	VerificationExpires *time.Time       `json:"-"`
	Version             int64            `json:"-"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// WeeklyRank is one row of the global weekly leaderboard.
type WeeklyRank struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Score     int    `json:"totalWeeklyScore"`
}

// LessonResult is one per-lesson outcome inside a challenge participant.
// At most one result exists per lesson; the latest replaces the prior.
type LessonResult struct {
	LessonID     string  `json:"lessonId"`
	SubmissionID string  `json:"submissionId,omitempty"`
	Score        int     `json:"score"`
	Accuracy     float64 `json:"accuracy"`
}

// Participant holds one user's results and derived stats inside a challenge.
// The derived fields are always recomputed from LessonResults, never
// incrementally accumulated.
type Participant struct {
	UserID          string         `json:"userId"`
	TotalScore      int            `json:"totalScore"`
	TotalAccuracy   float64        `json:"totalAccuracy"`
	AverageScore    float64        `json:"averageScore"`
	AverageAccuracy float64        `json:"averageAccuracy"`
	TotalSubmission int            `json:"totalSubmission"`
	LessonResults   []LessonResult `json:"lessonResults"`
	JoinedAt        time.Time      `json:"joinedAt"`
}

// Challenge is a time-boxed aggregate over a fixed lesson set and a roster
// of participants. Challenge-level stats are derived from the full current
// participant set.
type Challenge struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	CoinAward       int           `json:"coinAward"`
	CoinFee         int           `json:"coinFee"`
	ImageFile       string        `json:"imageFile,omitempty"`
	CreatorID       string        `json:"creator"`
	StartDate       time.Time     `json:"startDate"`
	EndDate         time.Time     `json:"endDate"`
	LessonIDs       []string      `json:"lessons"`
	Participants    []Participant `json:"participants"`
	TotalScore      int           `json:"totalScore"`
	TotalAccuracy   float64       `json:"totalAccuracy"`
	TotalSubmission int           `json:"totalSubmission"`
	AverageScore    float64       `json:"averageScore"`
	AverageAccuracy float64       `json:"averageAccuracy"`
	Version         int64         `json:"-"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Board returns the lesson's leaderboard snapshot.
func (l Lesson) Board(now time.Time) LessonBoard {
	entries := make([]TopScore, len(l.TopScores))
	copy(entries, l.TopScores)
	return LessonBoard{LessonID: l.ID, Entries: entries, UpdatedAt: now}
}
