package auth

import (
	"context"
	"crypto/subtle"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
)

// StaticVerifier accepts exactly one pre-shared token and maps it to a
// fixed development identity. It exists so the app can be exercised
// end to end without a Firebase project.
type StaticVerifier struct {
	token string
}

var _ Verifier = (*StaticVerifier)(nil)

// NewStaticVerifier creates a verifier for the given development token.
func NewStaticVerifier(token string) *StaticVerifier {
	return &StaticVerifier{token: token}
}

// Verify compares the presented token against the configured one.
func (v *StaticVerifier) Verify(_ context.Context, token string) (*model.Identity, error) {
	if v.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(v.token)) != 1 {
		return nil, apperror.Unauthorized("invalid token")
	}
	return &model.Identity{
		UID:   "dev-user",
		Name:  "Development User",
		Email: "dev@localhost",
	}, nil
}
