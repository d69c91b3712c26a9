package server

import (
	"context"
	"errors"

	"github.com/benvon/login-demo/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

type stubVerifier struct{}

func (stubVerifier) Verify(context.Context, string) (*models.TokenClaims, error) {
	return nil, errors.New("not implemented")
}

// blockingVerifier never answers before the request context ends.
type blockingVerifier struct{}

func (blockingVerifier) Verify(ctx context.Context, _ string) (*models.TokenClaims, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type stubKeys struct{}

func (stubKeys) KeySet(context.Context) (jwk.Set, error) {
	return jwk.NewSet(), nil
}
