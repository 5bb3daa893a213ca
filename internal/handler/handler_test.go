package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/auth"
	"github.com/stemly/backend/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testVerifier accepts any token as the fixed test user.
type testVerifier struct{}

func (testVerifier) Verify(_ context.Context, _ string) (*model.Identity, error) {
	return &model.Identity{UID: "u1", Name: "Test User", Email: "u1@example.com"}, nil
}

// nopUsers satisfies the login-recording dependency of the auth middleware.
type nopUsers struct{}

func (nopUsers) RecordLogin(_ context.Context, _ *model.Identity) error { return nil }

func (nopUsers) GetByUID(_ context.Context, uid string) (*model.User, error) {
	return nil, apperror.NotFound("user", uid)
}

// asUser wraps a handler in the real auth middleware with the test verifier,
// so requests run exactly like they do behind the protected route group.
func asUser(h http.HandlerFunc) http.Handler {
	return auth.RequireUser(testVerifier{}, nopUsers{}, testLogger())(h)
}

// authed adds the bearer header the middleware expects.
func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer test-token")
	return req
}
