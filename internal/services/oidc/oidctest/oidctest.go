// Package oidctest runs an in-process token issuer for tests: an RSA key
// set published over httptest and helpers to sign access tokens with it.
package oidctest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claim values used by Issuer unless a test overrides them.
const (
	// DefaultIssuer is the iss claim and the issuer the verifier expects
	DefaultIssuer = "https://login-demo.test/"
	// DefaultAudience is the aud claim of minted tokens
	DefaultAudience = "https://api.login-demo.test"
	// DefaultSubject is the sub claim of minted tokens
	DefaultSubject = "auth0|test-user"
)

// Issuer publishes a JWKS and signs tokens with the matching private keys
type Issuer struct {
	Server   *httptest.Server
	Issuer   string
	Audience string

	mu        sync.Mutex
	keys      map[string]jwk.Key // kid -> private key
	published []string
	current   string
	fetches   atomic.Int64
}

// New starts an issuer with one published key. The server is closed via t.Cleanup.
func New(t testing.TB) *Issuer {
	t.Helper()

	iss := &Issuer{
		Issuer:   DefaultIssuer,
		Audience: DefaultAudience,
		keys:     make(map[string]jwk.Key),
	}
	iss.current = iss.NewKey(t, true)

	iss.Server = httptest.NewServer(http.HandlerFunc(iss.serveJWKS))
	t.Cleanup(iss.Server.Close)
	return iss
}

// JWKSURL returns the URL serving the published key set
func (i *Issuer) JWKSURL() string {
	return i.Server.URL + "/.well-known/jwks.json"
}

// Fetches returns how many times the key set has been downloaded
func (i *Issuer) Fetches() int64 {
	return i.fetches.Load()
}

// CurrentKeyID returns the kid used by Token when no WithKeyID option is given
func (i *Issuer) CurrentKeyID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

// NewKey generates a signing key and returns its kid. Unpublished keys can
// sign tokens but are absent from the JWKS until Publish is called.
func (i *Issuer) NewKey(t testing.TB, publish bool) string {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("private key jwk: %v", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	kid := fmt.Sprintf("test-key-%d", len(i.keys)+1)
	if err := key.Set(jwk.KeyIDKey, kid); err != nil {
		t.Fatalf("set kid: %v", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		t.Fatalf("set alg: %v", err)
	}
	i.keys[kid] = key
	if publish {
		i.published = append(i.published, kid)
	}
	return kid
}

// Publish adds a previously unpublished key to the JWKS
func (i *Issuer) Publish(kid string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.published = append(i.published, kid)
}

// TokenOption customizes a token built by Token
type TokenOption func(*tokenParams)

type tokenParams struct {
	builder *jwt.Builder
	kid     string
}

// WithPermissions sets the permissions claim
func WithPermissions(perms ...string) TokenOption {
	return func(p *tokenParams) { p.builder.Claim("permissions", perms) }
}

// WithClaim sets an arbitrary claim
func WithClaim(name string, value any) TokenOption {
	return func(p *tokenParams) { p.builder.Claim(name, value) }
}

// WithIssuer overrides the iss claim
func WithIssuer(iss string) TokenOption {
	return func(p *tokenParams) { p.builder.Issuer(iss) }
}

// WithAudience overrides the aud claim
func WithAudience(aud ...string) TokenOption {
	return func(p *tokenParams) { p.builder.Audience(aud) }
}

// WithExpiration overrides the exp claim
func WithExpiration(exp time.Time) TokenOption {
	return func(p *tokenParams) { p.builder.Expiration(exp) }
}

// WithNotBefore sets the nbf claim
func WithNotBefore(nbf time.Time) TokenOption {
	return func(p *tokenParams) { p.builder.NotBefore(nbf) }
}

// WithKeyID signs with the given key instead of the current one
func WithKeyID(kid string) TokenOption {
	return func(p *tokenParams) { p.kid = kid }
}

// Token returns a signed RS256 access token valid for one hour for the issuer's audience
func (i *Issuer) Token(t testing.TB, opts ...TokenOption) string {
	t.Helper()

	now := time.Now()
	params := &tokenParams{
		builder: jwt.NewBuilder().
			Issuer(i.Issuer).
			Subject(DefaultSubject).
			Audience([]string{i.Audience}).
			IssuedAt(now).
			Expiration(now.Add(time.Hour)),
		kid: i.CurrentKeyID(),
	}
	for _, opt := range opts {
		opt(params)
	}

	token, err := params.builder.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}

	i.mu.Lock()
	key, ok := i.keys[params.kid]
	i.mu.Unlock()
	if !ok {
		t.Fatalf("unknown signing key %q", params.kid)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func (i *Issuer) serveJWKS(w http.ResponseWriter, _ *http.Request) {
	i.fetches.Add(1)

	i.mu.Lock()
	set := jwk.NewSet()
	for _, kid := range i.published {
		pub, err := jwk.PublicKeyOf(i.keys[kid])
		if err != nil {
			continue
		}
		_ = pub.Set(jwk.KeyIDKey, kid)
		_ = pub.Set(jwk.AlgorithmKey, jwa.RS256)
		_ = set.AddKey(pub)
	}
	i.mu.Unlock()

	payload, err := json.Marshal(set)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}
