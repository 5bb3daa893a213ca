package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/repository"
)

// AuthHandler serves the current-user endpoint.
type AuthHandler struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewAuthHandler(users repository.UserRepository, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

// HandleMe returns the authenticated user's profile.
//
// With persistence disabled the store has no user row; the profile then
// comes straight from the verified token so the endpoint still works.
//
// HTTP: GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByUID(r.Context(), identity.UID)
	if errors.Is(err, apperror.ErrNotFound) {
		user = &model.User{
			UID:     identity.UID,
			Name:    identity.Name,
			Email:   identity.Email,
			Picture: identity.Picture,
		}
	} else if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
