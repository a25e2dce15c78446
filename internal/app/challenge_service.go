package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// LessonResultPatch is one per-lesson outcome inside a bulk challenge update.
type LessonResultPatch struct {
	LessonID     string  `json:"lessonId"`
	SubmissionID string  `json:"submissionId,omitempty"`
	Score        int     `json:"score"`
	Accuracy     float64 `json:"accuracy"`
}

// ParticipantPatch is one participant's entry inside a bulk challenge update.
type ParticipantPatch struct {
	UserID        string              `json:"userId"`
	LessonResults []LessonResultPatch `json:"lessonResults"`
}

// ChallengePatch is one challenge's slice of a bulk update.
type ChallengePatch struct {
	ID           string             `json:"_id"`
	Participants []ParticipantPatch `json:"participants"`
}

// RollupSummary reports how a bulk update was applied. Skipped counts
// entries dropped for malformed or unknown identifiers; partial
// application is accepted by design.
type RollupSummary struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// CreateChallengeInput carries the fields of a new challenge.
type CreateChallengeInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoinAward   int       `json:"coinAward"`
	CoinFee     int       `json:"coinFee"`
	ImageFile   string    `json:"imageFile"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	LessonIDs   []string  `json:"lessons"`
}

// ChallengeService owns challenge lifecycle and the participant rollup.
// All derived statistics are recomputed as folds over the current child
// records, never incrementally maintained, so replaying the same batch is
// idempotent.
type ChallengeService struct {
	challenges  ChallengeRepository
	submissions SubmissionRepository
	users       UserRepository
	retries     int
	now         func() time.Time
}

func NewChallengeService(challenges ChallengeRepository, submissions SubmissionRepository, users UserRepository) *ChallengeService {
	return &ChallengeService{
		challenges:  challenges,
		submissions: submissions,
		users:       users,
		retries:     defaultRetries,
		now:         time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *ChallengeService) WithClock(now func() time.Time) *ChallengeService {
	s.now = now
	return s
}

// DecodeChallengePatches accepts either an array of patches or a
// map-of-objects keyed arbitrarily, normalized to an array.
func DecodeChallengePatches(raw []byte) ([]ChallengePatch, error) {
	var patches []ChallengePatch
	if err := json.Unmarshal(raw, &patches); err == nil {
		return patches, nil
	}
	var byKey map[string]ChallengePatch
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, fmt.Errorf("expected an array or map of challenge patches: %w", domain.ErrInvalidInput)
	}
	patches = make([]ChallengePatch, 0, len(byKey))
	for _, p := range byKey {
		if p.ID != "" {
			patches = append(patches, p)
		}
	}
	return patches, nil
}

// ApplyRollup reconciles a batch of challenge patches. Entries with
// malformed identifiers are skipped, not fatal; applying the same batch
// twice yields the same final state.
func (s *ChallengeService) ApplyRollup(ctx context.Context, patches []ChallengePatch) (RollupSummary, error) {
	if len(patches) == 0 {
		return RollupSummary{}, fmt.Errorf("empty challenge batch: %w", domain.ErrInvalidInput)
	}

	var summary RollupSummary
	for _, patch := range patches {
		if !isCanonicalID(patch.ID) {
			summary.Skipped++
			continue
		}

		var entrySkips int
		err := withRetry(s.retries, func() error {
			challenge, err := s.challenges.GetByID(ctx, patch.ID)
			if err != nil {
				return err
			}
			entrySkips = applyChallengePatch(&challenge, patch, s.now())
			return s.challenges.Update(ctx, &challenge)
		})
		if errors.Is(err, domain.ErrChallengeNotFound) {
			summary.Skipped++
			continue
		}
		if err != nil {
			return summary, err
		}
		summary.Applied++
		summary.Skipped += entrySkips
	}
	return summary, nil
}

// applyChallengePatch upserts participants and their per-lesson results,
// then recomputes all derived stats. Returns the number of skipped entries.
func applyChallengePatch(c *domain.Challenge, patch ChallengePatch, now time.Time) int {
	skipped := 0
	for _, pp := range patch.Participants {
		if !isCanonicalID(pp.UserID) {
			skipped++
			continue
		}

		idx := -1
		for i := range c.Participants {
			if c.Participants[i].UserID == pp.UserID {
				idx = i
				break
			}
		}
		if idx < 0 {
			c.Participants = append(c.Participants, domain.Participant{UserID: pp.UserID, JoinedAt: now})
			idx = len(c.Participants) - 1
		}
		participant := &c.Participants[idx]

		for _, rp := range pp.LessonResults {
			if !isCanonicalID(rp.LessonID) {
				skipped++
				continue
			}
			result := domain.LessonResult{
				LessonID: rp.LessonID,
				Score:    rp.Score,
				Accuracy: rp.Accuracy,
			}
			if isCanonicalID(rp.SubmissionID) {
				result.SubmissionID = rp.SubmissionID
			}
			upsertLessonResult(participant, result)
		}
		recomputeParticipant(participant)
	}
	recomputeChallenge(c)
	return skipped
}

// upsertLessonResult replaces the existing result for the lesson or
// appends a new one; a lesson never appears twice.
func upsertLessonResult(p *domain.Participant, result domain.LessonResult) {
	for i := range p.LessonResults {
		if p.LessonResults[i].LessonID == result.LessonID {
			p.LessonResults[i] = result
			return
		}
	}
	p.LessonResults = append(p.LessonResults, result)
}

// recomputeParticipant folds the participant's current lesson results into
// its derived stats.
func recomputeParticipant(p *domain.Participant) {
	p.TotalScore = 0
	p.TotalAccuracy = 0
	for _, r := range p.LessonResults {
		p.TotalScore += r.Score
		p.TotalAccuracy += r.Accuracy
	}
	p.TotalSubmission = len(p.LessonResults)
	if p.TotalSubmission > 0 {
		p.AverageScore = float64(p.TotalScore) / float64(p.TotalSubmission)
		p.AverageAccuracy = p.TotalAccuracy / float64(p.TotalSubmission)
	} else {
		p.AverageScore = 0
		p.AverageAccuracy = 0
	}
}

// recomputeChallenge folds the current participant set into the
// challenge-level stats.
func recomputeChallenge(c *domain.Challenge) {
	c.TotalScore = 0
	c.TotalAccuracy = 0
	c.TotalSubmission = 0
	for _, p := range c.Participants {
		c.TotalScore += p.TotalScore
		c.TotalAccuracy += p.TotalAccuracy
		c.TotalSubmission += len(p.LessonResults)
	}
	if c.TotalSubmission > 0 {
		c.AverageScore = float64(c.TotalScore) / float64(c.TotalSubmission)
		c.AverageAccuracy = c.TotalAccuracy / float64(c.TotalSubmission)
	} else {
		c.AverageScore = 0
		c.AverageAccuracy = 0
	}
}

// Create validates and persists a new challenge, seeding its participant
// roster from the existing submissions of its lessons.
func (s *ChallengeService) Create(ctx context.Context, creatorID string, input CreateChallengeInput) (domain.Challenge, error) {
	if input.Title == "" || input.ImageFile == "" || len(input.LessonIDs) == 0 {
		return domain.Challenge{}, fmt.Errorf("title, image and lessons are required: %w", domain.ErrInvalidInput)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() || input.EndDate.Before(input.StartDate) {
		return domain.Challenge{}, fmt.Errorf("end date must be after or equal to start date: %w", domain.ErrInvalidInput)
	}
	if input.CoinAward < 0 || input.CoinFee < 0 {
		return domain.Challenge{}, fmt.Errorf("coin award and fee must be 0 or greater: %w", domain.ErrInvalidInput)
	}
	if _, err := s.users.GetByID(ctx, creatorID); err != nil {
		return domain.Challenge{}, err
	}

	now := s.now()
	challenge := domain.Challenge{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		CoinAward:   input.CoinAward,
		CoinFee:     input.CoinFee,
		ImageFile:   input.ImageFile,
		CreatorID:   creatorID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		LessonIDs:   input.LessonIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	subs, err := s.submissions.ListByLessons(ctx, input.LessonIDs)
	if err != nil {
		return domain.Challenge{}, err
	}
	challenge.Participants = participantsFromSubmissions(subs, now)
	for i := range challenge.Participants {
		recomputeParticipant(&challenge.Participants[i])
	}
	recomputeChallenge(&challenge)

	if err := s.challenges.Create(ctx, &challenge); err != nil {
		return domain.Challenge{}, err
	}
	return challenge, nil
}

// participantsFromSubmissions groups existing submissions per user into
// seed participants, one lesson result each.
func participantsFromSubmissions(subs []domain.Submission, now time.Time) []domain.Participant {
	byUser := make(map[string]*domain.Participant)
	order := make([]string, 0)
	for _, sub := range subs {
		p, ok := byUser[sub.UserID]
		if !ok {
			p = &domain.Participant{UserID: sub.UserID, JoinedAt: now}
			byUser[sub.UserID] = p
			order = append(order, sub.UserID)
		}
		upsertLessonResult(p, domain.LessonResult{
			LessonID:     sub.LessonID,
			SubmissionID: sub.ID,
			Score:        sub.Score,
			Accuracy:     sub.Accuracy,
		})
	}
	participants := make([]domain.Participant, 0, len(order))
	for _, id := range order {
		participants = append(participants, *byUser[id])
	}
	return participants
}

// Get returns one challenge by id.
func (s *ChallengeService) Get(ctx context.Context, id string) (domain.Challenge, error) {
	if !isCanonicalID(id) {
		return domain.Challenge{}, fmt.Errorf("invalid challenge id: %w", domain.ErrInvalidInput)
	}
	return s.challenges.GetByID(ctx, id)
}

// List returns all challenges.
func (s *ChallengeService) List(ctx context.Context) ([]domain.Challenge, error) {
	return s.challenges.List(ctx)
}

// ListByLesson returns the challenges that aggregate a given lesson.
func (s *ChallengeService) ListByLesson(ctx context.Context, lessonID string) ([]domain.Challenge, error) {
	if !isCanonicalID(lessonID) {
		return nil, fmt.Errorf("invalid lesson id: %w", domain.ErrInvalidInput)
	}
	all, err := s.challenges.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Challenge
	for _, c := range all {
		for _, id := range c.LessonIDs {
			if id == lessonID {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// UpdateChallengeInput carries the editable metadata of a challenge.
// Lessons, participants and derived statistics are not editable here;
// they move through the rollup.
type UpdateChallengeInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoinAward   int       `json:"coinAward"`
	CoinFee     int       `json:"coinFee"`
	ImageFile   string    `json:"imageFile"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

// Update edits a challenge's metadata; only the creator may edit it.
func (s *ChallengeService) Update(ctx context.Context, id, creatorID string, input UpdateChallengeInput) (domain.Challenge, error) {
	if !isCanonicalID(id) {
		return domain.Challenge{}, fmt.Errorf("invalid challenge id: %w", domain.ErrInvalidInput)
	}
	if input.Title == "" || input.ImageFile == "" {
		return domain.Challenge{}, fmt.Errorf("title and image are required: %w", domain.ErrInvalidInput)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() || input.EndDate.Before(input.StartDate) {
		return domain.Challenge{}, fmt.Errorf("end date must be after or equal to start date: %w", domain.ErrInvalidInput)
	}
	if input.CoinAward < 0 || input.CoinFee < 0 {
		return domain.Challenge{}, fmt.Errorf("coin award and fee must be 0 or greater: %w", domain.ErrInvalidInput)
	}

	var out domain.Challenge
	err := withRetry(s.retries, func() error {
		challenge, err := s.challenges.GetByID(ctx, id)
		if err != nil {
			return err
		}
		// A challenge is invisible to everyone but its creator for writes.
		if challenge.CreatorID != creatorID {
			return domain.ErrChallengeNotFound
		}
		challenge.Title = input.Title
		challenge.Description = input.Description
		challenge.CoinAward = input.CoinAward
		challenge.CoinFee = input.CoinFee
		challenge.ImageFile = input.ImageFile
		challenge.StartDate = input.StartDate
		challenge.EndDate = input.EndDate
		challenge.UpdatedAt = s.now()
		if err := s.challenges.Update(ctx, &challenge); err != nil {
			return err
		}
		out = challenge
		return nil
	})
	return out, err
}

// Delete removes a challenge; only the creator may delete it.
func (s *ChallengeService) Delete(ctx context.Context, id, creatorID string) error {
	if !isCanonicalID(id) {
		return fmt.Errorf("invalid challenge id: %w", domain.ErrInvalidInput)
	}
	return s.challenges.Delete(ctx, id, creatorID)
}

// isCanonicalID reports whether id is a well-formed UUID.
func isCanonicalID(id string) bool {
	return uuid.Validate(id) == nil
}
