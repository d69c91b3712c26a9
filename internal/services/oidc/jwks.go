package oidc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/time/rate"
)

const (
	// DefaultJWKSRequestsPerMinute bounds key set refetches triggered by unknown key ids
	DefaultJWKSRequestsPerMinute = 5
	// DefaultJWKSRefreshInterval is the minimum interval between background refreshes
	DefaultJWKSRefreshInterval = 15 * time.Minute
	defaultJWKSHTTPTimeout     = 10 * time.Second
)

// Refetch outcomes reported to a RefetchObserver
const (
	RefetchFetched     = "fetched"
	RefetchRateLimited = "rate_limited"
	RefetchFailed      = "failed"
)

// RefetchObserver is notified of every refetch attempted for an unknown key id
type RefetchObserver interface {
	ObserveJWKSRefetch(outcome string)
}

// JWKSOptions tunes a JWKSManager. Zero values select the defaults.
type JWKSOptions struct {
	RefreshInterval   time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client
	Observer          RefetchObserver
}

// JWKSManager caches the remote key set and refetches it, rate limited,
// when a token names a key id the cached set does not contain.
type JWKSManager struct {
	url      string
	cache    *jwk.Cache
	limiter  *rate.Limiter
	observer RefetchObserver
}

// NewJWKSManager registers jwksURL with a jwk.Cache whose background refresh
// goroutine lives until ctx is cancelled. No request is made until the first
// lookup or Warmup.
func NewJWKSManager(ctx context.Context, jwksURL string, opts JWKSOptions) (*JWKSManager, error) {
	if jwksURL == "" {
		return nil, fmt.Errorf("jwks url is required")
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultJWKSRefreshInterval
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = DefaultJWKSRequestsPerMinute
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultJWKSHTTPTimeout}
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(
		jwksURL,
		jwk.WithMinRefreshInterval(opts.RefreshInterval),
		jwk.WithHTTPClient(opts.HTTPClient),
	); err != nil {
		return nil, fmt.Errorf("failed to register jwks url: %w", err)
	}

	perKey := time.Minute / time.Duration(opts.RequestsPerMinute)
	return &JWKSManager{
		url:      jwksURL,
		cache:    cache,
		limiter:  rate.NewLimiter(rate.Every(perKey), opts.RequestsPerMinute),
		observer: opts.Observer,
	}, nil
}

// URL returns the key set location
func (m *JWKSManager) URL() string {
	return m.url
}

// Warmup fetches the key set immediately
func (m *JWKSManager) Warmup(ctx context.Context) (jwk.Set, error) {
	set, err := m.cache.Refresh(ctx, m.url)
	if err != nil {
		return nil, newError(ErrCodeJWKSUnavailable, err)
	}
	return set, nil
}

// KeySet returns the cached key set, fetching it on first use
func (m *JWKSManager) KeySet(ctx context.Context) (jwk.Set, error) {
	set, err := m.cache.Get(ctx, m.url)
	if err != nil {
		return nil, newError(ErrCodeJWKSUnavailable, err)
	}
	return set, nil
}

// Lookup returns the key with the given key id. An unknown kid triggers one
// refetch when the limiter allows it.
func (m *JWKSManager) Lookup(ctx context.Context, kid string) (jwk.Key, error) {
	set, err := m.KeySet(ctx)
	if err != nil {
		return nil, err
	}
	if key, ok := set.LookupKeyID(kid); ok {
		return key, nil
	}

	if !m.limiter.Allow() {
		m.observe(RefetchRateLimited)
		return nil, newError(ErrCodeUnknownKey, fmt.Errorf("kid %q: %w", kid, ErrJWKSRateLimited))
	}

	set, err = m.Warmup(ctx)
	if err != nil {
		m.observe(RefetchFailed)
		return nil, err
	}
	m.observe(RefetchFetched)
	if key, ok := set.LookupKeyID(kid); ok {
		return key, nil
	}
	return nil, newError(ErrCodeUnknownKey, fmt.Errorf("kid %q not found in key set", kid))
}

func (m *JWKSManager) observe(outcome string) {
	if m.observer != nil {
		m.observer.ObserveJWKSRefetch(outcome)
	}
}

// KeyIDs lists the key ids of the cached key set
func (m *JWKSManager) KeyIDs(ctx context.Context) ([]string, error) {
	set, err := m.KeySet(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		if key, ok := set.Key(i); ok {
			ids = append(ids, key.KeyID())
		}
	}
	return ids, nil
}
