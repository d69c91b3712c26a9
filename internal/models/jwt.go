package models

import (
	"slices"
	"strings"
	"time"
)

// TokenClaims represents the verified claims of an access token
type TokenClaims struct {
	Subject     string         `json:"sub"`
	Issuer      string         `json:"iss"`
	Audience    []string       `json:"aud"`
	ExpiresAt   time.Time      `json:"exp"`
	IssuedAt    time.Time      `json:"iat"`
	NotBefore   time.Time      `json:"nbf"`
	Permissions []string       `json:"permissions,omitempty"`
	Scope       []string       `json:"scope,omitempty"`
	Custom      map[string]any `json:"-"` // All private (non-registered) claims
}

// Values returns the string values carried by the named claim.
// "permissions" and "scope" are served from their parsed fields; any other
// claim is read from Custom and normalized with NormalizeClaimValues.
func (c *TokenClaims) Values(claim string) []string {
	if c == nil {
		return nil
	}
	switch claim {
	case "permissions":
		return c.Permissions
	case "scope":
		return c.Scope
	}
	v, ok := c.Custom[claim]
	if !ok {
		return nil
	}
	return NormalizeClaimValues(v)
}

// HasAny reports whether the named claim contains at least one of the wanted values
func (c *TokenClaims) HasAny(claim string, wanted ...string) bool {
	have := c.Values(claim)
	for _, w := range wanted {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

// NormalizeClaimValues converts a raw claim value into a string list.
// Arrays keep their string members, strings are split on whitespace.
func NormalizeClaimValues(value any) []string {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(v)
	default:
		return nil
	}
}
