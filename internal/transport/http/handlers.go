// Package http exposes the REST and websocket surface of the service.
package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/thungan1909/easy-english-backend/internal/app"
	"github.com/thungan1909/easy-english-backend/internal/auth"
)

// API bundles the application services behind the HTTP handlers.
type API struct {
	Auth       *app.AuthService
	Lessons    *app.LessonService
	Submits    *app.SubmitService
	Users      *app.UserService
	Challenges *app.ChallengeService
	Tokens     *auth.TokenIssuer
}

// Router builds the full route table. Mutating routes sit behind the
// bearer-token middleware; reads are public.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", a.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/verify", a.handleVerify).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", a.handleLogin).Methods(http.MethodPost)

	r.HandleFunc("/api/lessons", a.handleListLessons).Methods(http.MethodGet)
	r.HandleFunc("/api/lessons/{id}", a.handleGetLesson).Methods(http.MethodGet)
	r.HandleFunc("/api/lessons/{id}/leaderboard", a.handleLessonBoard).Methods(http.MethodGet)
	r.HandleFunc("/api/lessons/{id}/challenges", a.handleChallengesByLesson).Methods(http.MethodGet)
	r.HandleFunc("/api/challenges", a.handleListChallenges).Methods(http.MethodGet)
	r.HandleFunc("/api/challenges/{id}", a.handleGetChallenge).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard/weekly", a.handleWeeklyLeaderboard).Methods(http.MethodGet)

	wsHandler := NewWSHandler(a.Lessons)
	r.HandleFunc("/ws/lessons/{id}", wsHandler.ServeWS).Methods(http.MethodGet)

	// Paths registered here are relative to the /api prefix.
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(AuthMiddleware(a.Tokens))
	protected.HandleFunc("/lessons", a.handleCreateLesson).Methods(http.MethodPost)
	protected.HandleFunc("/lessons/{id}", a.handleDeleteLesson).Methods(http.MethodDelete)
	protected.HandleFunc("/lessons/submit", a.handleSubmit).Methods(http.MethodPost)
	protected.HandleFunc("/challenges", a.handleCreateChallenge).Methods(http.MethodPost)
	// Rollup must come before the {id} route or it would match as an id.
	protected.HandleFunc("/challenges/rollup", a.handleChallengeRollup).Methods(http.MethodPut)
	protected.HandleFunc("/challenges/{id}", a.handleUpdateChallenge).Methods(http.MethodPut)
	protected.HandleFunc("/challenges/{id}", a.handleDeleteChallenge).Methods(http.MethodDelete)
	protected.HandleFunc("/users/me", a.handleProfile).Methods(http.MethodGet)
	protected.HandleFunc("/users/me", a.handleUpdateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/users/me/streak", a.handleMarkActive).Methods(http.MethodPost)
	protected.HandleFunc("/users/me/avatar", a.handleUpdateAvatar).Methods(http.MethodPut)
	return r
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input app.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	user, err := a.Auth.Register(r.Context(), input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := a.Auth.Verify(r.Context(), input.Email, input.Code); err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "account verified"})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	token, user, err := a.Auth.Login(r.Context(), input.Identifier, input.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (a *API) handleListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := a.Lessons.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lessons)
}

func (a *API) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	lesson, err := a.Lessons.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lesson)
}

func (a *API) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var input app.CreateLessonInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	lesson, err := a.Lessons.Create(r.Context(), UserIDFrom(r.Context()), input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, lesson)
}

func (a *API) handleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	if err := a.Lessons.Delete(r.Context(), mux.Vars(r)["id"], UserIDFrom(r.Context())); err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "lesson deleted"})
}

func (a *API) handleLessonBoard(w http.ResponseWriter, r *http.Request) {
	board, err := a.Lessons.Board(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, board)
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req app.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	req.UserID = UserIDFrom(r.Context())
	result, err := a.Submits.Submit(r.Context(), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (a *API) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var input app.CreateChallengeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	challenge, err := a.Challenges.Create(r.Context(), UserIDFrom(r.Context()), input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, challenge)
}

func (a *API) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := a.Challenges.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, challenges)
}

func (a *API) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := a.Challenges.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, challenge)
}

func (a *API) handleChallengesByLesson(w http.ResponseWriter, r *http.Request) {
	challenges, err := a.Challenges.ListByLesson(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, challenges)
}

func (a *API) handleUpdateChallenge(w http.ResponseWriter, r *http.Request) {
	var input app.UpdateChallengeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	challenge, err := a.Challenges.Update(r.Context(), mux.Vars(r)["id"], UserIDFrom(r.Context()), input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, challenge)
}

func (a *API) handleDeleteChallenge(w http.ResponseWriter, r *http.Request) {
	if err := a.Challenges.Delete(r.Context(), mux.Vars(r)["id"], UserIDFrom(r.Context())); err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "challenge deleted"})
}

// handleChallengeRollup ingests a bulk participant rollup. The body is
// either an array of challenge patches or a map of them; malformed entries
// are counted, not fatal.
func (a *API) handleChallengeRollup(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "unreadable request body")
		return
	}
	patches, err := app.DecodeChallengePatches(raw)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	summary, err := a.Challenges.ApplyRollup(r.Context(), patches)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (a *API) handleWeeklyLeaderboard(w http.ResponseWriter, r *http.Request) {
	ranks, err := a.Users.WeeklyLeaderboard(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ranks)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := a.Users.Profile(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input app.UpdateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	user, err := a.Users.UpdateProfile(r.Context(), UserIDFrom(r.Context()), input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

func (a *API) handleMarkActive(w http.ResponseWriter, r *http.Request) {
	user, err := a.Users.MarkActive(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

func (a *API) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AvatarURL string `json:"avatarUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := a.Users.UpdateAvatar(r.Context(), UserIDFrom(r.Context()), input.AvatarURL); err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "avatar updated"})
}
