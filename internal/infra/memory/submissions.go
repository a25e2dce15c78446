package memory

import (
	"context"
	"sync"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// SubmissionRepository is an in-memory implementation of
// app.SubmissionRepository keyed by the (user, lesson) pair, so a
// resubmission can never produce a second row.
type SubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{submissions: make(map[string]domain.Submission)}
}

func pairKey(userID, lessonID string) string {
	return userID + "/" + lessonID
}

func (r *SubmissionRepository) Upsert(_ context.Context, s *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(s.UserID, s.LessonID)
	if existing, ok := r.submissions[key]; ok {
		s.ID = existing.ID // the pair keeps its identity across attempts
	}
	r.submissions[key] = cloneSubmission(*s)
	return nil
}

func (r *SubmissionRepository) GetByUserAndLesson(_ context.Context, userID, lessonID string) (domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.submissions[pairKey(userID, lessonID)]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return cloneSubmission(s), nil
}

func (r *SubmissionRepository) ListByLessons(_ context.Context, lessonIDs []string) ([]domain.Submission, error) {
	wanted := make(map[string]struct{}, len(lessonIDs))
	for _, id := range lessonIDs {
		wanted[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for _, s := range r.submissions {
		if _, ok := wanted[s.LessonID]; ok {
			out = append(out, cloneSubmission(s))
		}
	}
	return out, nil
}

// Count reports the number of stored submissions (test helper).
func (r *SubmissionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.submissions)
}

func cloneSubmission(s domain.Submission) domain.Submission {
	out := s
	out.OriginalArray = append([]string(nil), s.OriginalArray...)
	out.ResultArray = append([]string(nil), s.ResultArray...)
	out.UserArray = append([]string(nil), s.UserArray...)
	return out
}
