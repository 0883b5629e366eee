// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientProvider is implemented by providers that can also configure an
// outgoing HTTP client with credentials, so the same provider type serves
// both sides of a connection.
type ClientProvider interface {
	Provider

	// ConfigureClient returns an HTTP client that attaches credentials to
	// every request. Implementations may return the input client unchanged.
	ConfigureClient(client *http.Client) *http.Client
}

// OAuth2AuthProvider attaches OAuth2 access tokens to outgoing requests.
// Token validation on the receiving side requires an external introspection
// endpoint, so Authenticate is not supported.
type OAuth2AuthProvider struct {
	tokenSource oauth2.TokenSource
}

// NewOAuth2ClientCredentialsProvider creates a provider that obtains tokens
// via the OAuth2 client credentials flow.
func NewOAuth2ClientCredentialsProvider(
	clientID, clientSecret, tokenURL string,
	scopes []string,
) *OAuth2AuthProvider {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	return &OAuth2AuthProvider{tokenSource: config.TokenSource(oauth2.NoContext)}
}

// NewOAuth2TokenSourceProvider creates a provider backed by a caller-supplied
// token source. The config argument documents the flow the source came from
// and may be nil.
func NewOAuth2TokenSourceProvider(_ *oauth2.Config, source oauth2.TokenSource) *OAuth2AuthProvider {
	return &OAuth2AuthProvider{tokenSource: source}
}

// Authenticate is not supported for opaque OAuth2 tokens.
func (p *OAuth2AuthProvider) Authenticate(_ *http.Request) (*User, error) {
	return nil, fmt.Errorf("%w: oauth2 token validation requires an introspection endpoint",
		ErrInvalidCredentials)
}

// ConfigureClient wraps the client's transport so every request carries a
// current access token.
func (p *OAuth2AuthProvider) ConfigureClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	configured := *client
	configured.Transport = &oauth2.Transport{Source: p.tokenSource, Base: base}
	return &configured
}

// ConfigureClient implements ClientProvider: each request gets a freshly
// signed short-lived token.
func (p *JWTAuthProvider) ConfigureClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	configured := *client
	configured.Transport = &jwtTransport{provider: p, base: base}
	return &configured
}

type jwtTransport struct {
	provider *JWTAuthProvider
	base     http.RoundTripper
}

func (t *jwtTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	claims := jwt.MapClaims{"iat": time.Now().Unix()}
	if t.provider.lifetime > 0 {
		claims["exp"] = time.Now().Add(t.provider.lifetime).Unix()
	}
	token, err := t.provider.CreateToken("a2aserve-client", claims)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request token: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}

// ConfigureClient implements ClientProvider: the provider's outbound key is
// attached to every request. A provider built only with server-side keys
// leaves the client unchanged.
func (p *APIKeyAuthProvider) ConfigureClient(client *http.Client) *http.Client {
	if p.clientKey == "" {
		return client
	}
	if client == nil {
		client = &http.Client{}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	configured := *client
	configured.Transport = &apiKeyTransport{key: p.clientKey, header: p.headerName, base: base}
	return &configured
}

type apiKeyTransport struct {
	key    string
	header string
	base   http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set(t.header, t.key)
	return t.base.RoundTrip(clone)
}
