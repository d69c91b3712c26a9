package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials mints access tokens with the OAuth2 client credentials
// grant, used to obtain a machine token for exercising the protected routes.
type ClientCredentials struct {
	config *clientcredentials.Config
}

// NewClientCredentials creates a client for tokenURL requesting tokens for audience
func NewClientCredentials(tokenURL, clientID, clientSecret, audience string, scopes ...string) (*ClientCredentials, error) {
	if tokenURL == "" {
		return nil, errors.New("token url is required")
	}
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("client id and client secret are required")
	}

	params := url.Values{}
	if audience != "" {
		params.Set("audience", audience)
	}

	return &ClientCredentials{
		config: &clientcredentials.Config{
			ClientID:       clientID,
			ClientSecret:   clientSecret,
			TokenURL:       tokenURL,
			Scopes:         scopes,
			EndpointParams: params,
		},
	}, nil
}

// Token performs the grant and returns the raw access token
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	tok, err := c.config.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("client credentials grant failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token endpoint returned an empty access token")
	}
	return tok.AccessToken, nil
}
