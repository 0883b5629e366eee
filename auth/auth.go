// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

// Package auth provides request authentication for the A2A server: pluggable
// providers, an HTTP middleware, and the push notification signer.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/a2aserve/a2aserve/log"
)

// Common authentication errors.
var (
	// ErrMissingCredentials indicates the request carried no credentials.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidCredentials indicates the credentials did not verify.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents the authenticated principal of a request.
type User struct {
	// Username identifies the principal.
	Username string
}

// Provider authenticates an HTTP request and returns the principal.
type Provider interface {
	Authenticate(r *http.Request) (*User, error)
}

type contextKey int

const userKey contextKey = iota

// ContextWithUser returns a context carrying the authenticated user.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey).(*User)
	return user, ok
}

// Middleware authenticates requests with a Provider before passing them on.
type Middleware struct {
	provider Provider
}

// NewMiddleware creates an authentication middleware around the provider.
func NewMiddleware(provider Provider) *Middleware {
	return &Middleware{provider: provider}
}

// Wrap returns a handler that rejects unauthenticated requests with a 401
// and otherwise forwards them with the user attached to the context.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.provider.Authenticate(r)
		if err != nil {
			log.Warnf("Authentication failed for %s %s: %v", r.Method, r.URL.Path, err)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			if encodeErr := json.NewEncoder(w).Encode(map[string]string{
				"error": "unauthorized",
			}); encodeErr != nil {
				log.Errorf("Failed to write unauthorized response: %v", encodeErr)
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// JWTAuthProvider authenticates bearer tokens signed with a shared HMAC
// secret.
type JWTAuthProvider struct {
	secret   []byte
	audience string
	issuer   string
	// lifetime bounds tokens issued by CreateToken; zero means no expiry.
	lifetime time.Duration
}

// NewJWTAuthProvider creates a JWT provider. Audience and issuer are
// enforced only when non-empty.
func NewJWTAuthProvider(secret []byte, audience, issuer string) *JWTAuthProvider {
	return &JWTAuthProvider{secret: secret, audience: audience, issuer: issuer}
}

// NewJWTAuthProviderWithLifetime creates a JWT provider whose issued tokens
// expire after the given lifetime.
func NewJWTAuthProviderWithLifetime(
	secret []byte,
	audience, issuer string,
	lifetime time.Duration,
) *JWTAuthProvider {
	return &JWTAuthProvider{secret: secret, audience: audience, issuer: issuer, lifetime: lifetime}
}

// Authenticate verifies the Authorization bearer token and returns the
// subject as the user.
func (p *JWTAuthProvider) Authenticate(r *http.Request) (*User, error) {
	tokenString, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if p.audience != "" {
		options = append(options, jwt.WithAudience(p.audience))
	}
	if p.issuer != "" {
		options = append(options, jwt.WithIssuer(p.issuer))
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		subject = "anonymous"
	}
	return &User{Username: subject}, nil
}

// CreateToken issues a signed token for the given subject. Useful for tests
// and client tooling.
func (p *JWTAuthProvider) CreateToken(subject string, claims jwt.MapClaims) (string, error) {
	if claims == nil {
		claims = jwt.MapClaims{}
	}
	claims["sub"] = subject
	if p.lifetime > 0 {
		if _, ok := claims["exp"]; !ok {
			claims["exp"] = time.Now().Add(p.lifetime).Unix()
		}
	}
	if p.audience != "" {
		claims["aud"] = p.audience
	}
	if p.issuer != "" {
		claims["iss"] = p.issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// APIKeyAuthProvider authenticates requests by a static API key header.
type APIKeyAuthProvider struct {
	// keys maps API key values to usernames.
	keys       map[string]string
	headerName string
	// clientKey is the key attached to outgoing requests by ConfigureClient.
	clientKey string
}

// NewAPIKeyAuthProvider creates an API key provider. The header defaults to
// X-API-Key.
func NewAPIKeyAuthProvider(keys map[string]string, headerName string) *APIKeyAuthProvider {
	if headerName == "" {
		headerName = "X-API-Key"
	}
	return &APIKeyAuthProvider{keys: keys, headerName: headerName}
}

// NewAPIKeyClientProvider creates a provider that sends the given key on
// every outgoing request. The header defaults to X-API-Key.
func NewAPIKeyClientProvider(apiKey, headerName string) *APIKeyAuthProvider {
	if headerName == "" {
		headerName = "X-API-Key"
	}
	return &APIKeyAuthProvider{clientKey: apiKey, headerName: headerName}
}

// Authenticate checks the configured header against the known keys.
func (p *APIKeyAuthProvider) Authenticate(r *http.Request) (*User, error) {
	key := r.Header.Get(p.headerName)
	if key == "" {
		return nil, ErrMissingCredentials
	}
	username, ok := p.keys[key]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &User{Username: username}, nil
}

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingCredentials
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", fmt.Errorf("%w: authorization header is not a bearer token", ErrInvalidCredentials)
	}
	return strings.TrimPrefix(header, prefix), nil
}
