package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps domain sentinels onto HTTP statuses. Anything
// unmapped is a 500 with the detail kept out of the response body.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrVerificationExpired):
		respondWithError(w, http.StatusGone, "verification code expired")
	case errors.Is(err, domain.ErrLessonNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateUser):
		respondWithError(w, http.StatusConflict, "username or email already taken")
	case errors.Is(err, domain.ErrVersionConflict):
		// Retries exhausted under contention; the client may simply try again.
		respondWithError(w, http.StatusServiceUnavailable, "temporarily unable to apply update")
	default:
		log.Printf("internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}
