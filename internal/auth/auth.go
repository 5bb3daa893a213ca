// Package auth verifies bearer tokens presented by the mobile app and
// exposes the authenticated identity to handlers via the request context.
//
// Two verifier implementations exist: FirebaseVerifier checks Firebase ID
// tokens against Google's public signing certificates, and StaticVerifier
// accepts a single fixed token for local development without a Firebase
// project.
package auth

import (
	"context"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
)

// Verifier checks a bearer token and returns the identity it encodes.
type Verifier interface {
	// Verify returns the identity for a valid token, or an error wrapping
	// apperror.ErrUnauthorized when the token is missing claims, expired,
	// or signed by an unknown key.
	Verify(ctx context.Context, token string) (*model.Identity, error)
}

// Chain tries each verifier in order and accepts the first success. It lets
// a development token coexist with real Firebase verification.
type Chain []Verifier

var _ Verifier = (Chain)(nil)

func (c Chain) Verify(ctx context.Context, token string) (*model.Identity, error) {
	var lastErr error = apperror.Unauthorized("no verifier configured")
	for _, v := range c {
		identity, err := v.Verify(ctx, token)
		if err == nil {
			return identity, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
