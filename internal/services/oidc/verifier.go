package oidc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/benvon/login-demo/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// KeyLookup resolves signing keys by key id
type KeyLookup interface {
	Lookup(ctx context.Context, kid string) (jwk.Key, error)
}

// VerifierConfig describes which tokens a Verifier accepts
type VerifierConfig struct {
	Issuer     string
	Audience   string
	Algorithms []jwa.SignatureAlgorithm // defaults to RS256
	ClockSkew  time.Duration
}

// Verifier verifies bearer tokens against a remote key set
type Verifier struct {
	keys KeyLookup
	cfg  VerifierConfig
}

// NewVerifier creates a new JWT verifier
func NewVerifier(keys KeyLookup, cfg VerifierConfig) (*Verifier, error) {
	if keys == nil {
		return nil, errors.New("key lookup is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}
	if len(cfg.Algorithms) == 0 {
		cfg.Algorithms = []jwa.SignatureAlgorithm{jwa.RS256}
	}
	return &Verifier{keys: keys, cfg: cfg}, nil
}

// Verify checks the token signature, issuer, audience and validity window and extracts its claims
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.TokenClaims, error) {
	if tokenString == "" {
		return nil, newError(ErrCodeInvalidToken, errors.New("token is empty"))
	}

	msg, err := jws.Parse([]byte(tokenString))
	if err != nil {
		return nil, newError(ErrCodeInvalidToken, err)
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, newError(ErrCodeInvalidToken, fmt.Errorf("expected one signature, got %d", len(sigs)))
	}

	headers := sigs[0].ProtectedHeaders()
	alg := headers.Algorithm()
	if !slices.Contains(v.cfg.Algorithms, alg) {
		return nil, newError(ErrCodeInvalidAlgorithm, fmt.Errorf("algorithm %q not allowed", alg))
	}
	kid := headers.KeyID()
	if kid == "" {
		return nil, newError(ErrCodeInvalidToken, errors.New("token header has no kid"))
	}

	key, err := v.keys.Lookup(ctx, kid)
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse([]byte(tokenString), jwt.WithKey(alg, key), jwt.WithValidate(false))
	if err != nil {
		return nil, newError(ErrCodeInvalidToken, err)
	}

	err = jwt.Validate(token,
		jwt.WithAcceptableSkew(v.cfg.ClockSkew),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrInvalidIssuer()):
			return nil, newError(ErrCodeInvalidIssuer, err)
		case errors.Is(err, jwt.ErrInvalidAudience()):
			return nil, newError(ErrCodeInvalidAudience, err)
		case errors.Is(err, jwt.ErrTokenExpired()):
			return nil, newError(ErrCodeExpired, err)
		case errors.Is(err, jwt.ErrTokenNotYetValid()):
			return nil, newError(ErrCodeNotYetValid, err)
		default:
			return nil, newError(ErrCodeInvalidToken, err)
		}
	}

	return extractClaims(token), nil
}

func extractClaims(token jwt.Token) *models.TokenClaims {
	claims := &models.TokenClaims{
		Subject:   token.Subject(),
		Issuer:    token.Issuer(),
		Audience:  append([]string(nil), token.Audience()...),
		ExpiresAt: token.Expiration(),
		IssuedAt:  token.IssuedAt(),
		NotBefore: token.NotBefore(),
	}

	private := token.PrivateClaims()
	if len(private) > 0 {
		claims.Custom = make(map[string]any, len(private))
		for k, val := range private {
			claims.Custom[k] = val
		}
	}
	if raw, ok := private["permissions"]; ok {
		claims.Permissions = models.NormalizeClaimValues(raw)
	}
	if raw, ok := private["scope"].(string); ok {
		claims.Scope = strings.Fields(raw)
	}
	return claims
}
