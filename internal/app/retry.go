package app

import (
	"errors"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// defaultRetries bounds the optimistic-update loops; conflicts past this
// surface to the caller as a transient failure.
const defaultRetries = 5

// withRetry reruns fn while it loses optimistic races. Any other error,
// including nil, is returned immediately.
func withRetry(attempts int, fn func() error) error {
	if attempts <= 0 {
		attempts = defaultRetries
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return err
}
