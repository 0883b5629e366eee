// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package client

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/a2aserve/a2aserve/auth"
)

// Option configures the A2AClient during construction.
type Option func(*A2AClient)

// WithHTTPClient sets a custom HTTP client. A nil client leaves the default
// in place.
func WithHTTPClient(client *http.Client) Option {
	return func(c *A2AClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(c *A2AClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *A2AClient) {
		c.userAgent = userAgent
	}
}

// WithAuthProvider sets a credential provider for outgoing requests.
func WithAuthProvider(provider auth.ClientProvider) Option {
	return func(c *A2AClient) {
		c.authProvider = provider
	}
}

// WithJWTAuth signs every request with a short-lived HMAC JWT.
func WithJWTAuth(secret []byte, audience, issuer string, lifetime time.Duration) Option {
	return func(c *A2AClient) {
		c.authProvider = auth.NewJWTAuthProviderWithLifetime(secret, audience, issuer, lifetime)
	}
}

// WithAPIKeyAuth attaches a static API key header to every request. The
// header defaults to X-API-Key when empty.
func WithAPIKeyAuth(apiKey, headerName string) Option {
	return func(c *A2AClient) {
		c.authProvider = auth.NewAPIKeyClientProvider(apiKey, headerName)
	}
}

// WithOAuth2ClientCredentials obtains bearer tokens via the OAuth2 client
// credentials flow.
func WithOAuth2ClientCredentials(clientID, clientSecret, tokenURL string, scopes []string) Option {
	return func(c *A2AClient) {
		c.authProvider = auth.NewOAuth2ClientCredentialsProvider(clientID, clientSecret, tokenURL, scopes)
	}
}

// WithOAuth2TokenSource uses a caller-supplied OAuth2 token source.
func WithOAuth2TokenSource(config *oauth2.Config, source oauth2.TokenSource) Option {
	return func(c *A2AClient) {
		c.authProvider = auth.NewOAuth2TokenSourceProvider(config, source)
	}
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	header http.Header
}

func newRequestOptions(opts ...RequestOption) *requestOptions {
	o := &requestOptions{header: make(http.Header)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithRequestHeader adds a header to this request only.
func WithRequestHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Set(key, value)
	}
}

// WithRequestHeaders adds a set of headers to this request only. Later
// options override earlier ones on key collision.
func WithRequestHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		for key, value := range headers {
			o.header.Set(key, value)
		}
	}
}
