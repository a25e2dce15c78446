package domain

import "errors"

var (
	// ErrInvalidInput is returned when a request carries malformed or mismatched data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrLessonNotFound indicates the referenced lesson does not exist.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrChallengeNotFound indicates the referenced challenge does not exist.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrSubmissionNotFound indicates no submission exists for a (user, lesson) pair.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrVersionConflict signals an optimistic update lost a race and should be retried.
	ErrVersionConflict = errors.New("version conflict")
	// ErrDuplicateUser is returned when a username or email is already registered.
	ErrDuplicateUser = errors.New("username or email already registered")
	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrVerificationExpired is returned when an email verification code has lapsed.
	ErrVerificationExpired = errors.New("verification code expired")
)
