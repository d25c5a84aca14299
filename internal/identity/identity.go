// Package identity verifies third-party identity tokens (Google, Apple).
package identity

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("identity provider is not configured")
	ErrInvalidToken  = errors.New("invalid identity token")
)

// Identity is the verified subject of a provider token.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
