// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/a2aserve/a2aserve/auth"
	"github.com/a2aserve/a2aserve/metrics"
	"github.com/a2aserve/a2aserve/protocol"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultIdleTimeout  = 300 * time.Second
)

// Middleware is an interface for authentication middlewares.
type Middleware interface {
	Wrap(next http.Handler) http.Handler
}

// MiddlewareChain represents a chain of middlewares composed together.
type MiddlewareChain []Middleware

// Wrap applies all middlewares in the chain to the given handler.
// Middlewares are applied in reverse order so the first middleware in the
// slice becomes the outermost wrapper.
func (chain MiddlewareChain) Wrap(handler http.Handler) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i].Wrap(handler)
	}
	return handler
}

// HTTPRouter represents a router for HTTP requests. The standard ServeMux
// satisfies it, as does gorilla/mux.
type HTTPRouter interface {
	Handle(pattern string, handler http.Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Option is a function that configures the A2AServer.
type Option func(*A2AServer)

// WithCORSEnabled enables or disables CORS headers. Enabled by default.
func WithCORSEnabled(enabled bool) Option {
	return func(s *A2AServer) {
		s.corsEnabled = enabled
	}
}

// WithJSONRPCEndpoint sets the path for the JSON-RPC endpoint.
// Default is the root path ("/").
func WithJSONRPCEndpoint(path string) Option {
	return func(s *A2AServer) {
		s.jsonRPCEndpoint = path
	}
}

// WithReadTimeout sets the read timeout for the HTTP server.
func WithReadTimeout(timeout time.Duration) Option {
	return func(s *A2AServer) {
		s.readTimeout = timeout
	}
}

// WithWriteTimeout sets the write timeout for the HTTP server.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *A2AServer) {
		s.writeTimeout = timeout
	}
}

// WithIdleTimeout sets the idle timeout for the HTTP server.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(s *A2AServer) {
		s.idleTimeout = timeout
	}
}

// WithAuthProvider adds an authentication provider as middleware on the
// JSON-RPC endpoint.
func WithAuthProvider(provider auth.Provider) Option {
	return func(s *A2AServer) {
		s.middleware = append(s.middleware, auth.NewMiddleware(provider))
	}
}

// WithMiddleware appends authentication middlewares. The first middleware
// becomes the outermost wrapper. Middlewares only take effect on the
// JSON-RPC endpoint.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(s *A2AServer) {
		s.middleware = append(s.middleware, middlewares...)
	}
}

// WithJWKSEndpoint enables the JWKS endpoint for push notification
// authentication. The path defaults to "/.well-known/jwks.json".
func WithJWKSEndpoint(enabled bool, path string) Option {
	return func(s *A2AServer) {
		s.jwksEnabled = enabled
		if path != "" {
			s.jwksEndpoint = path
		}
	}
}

// WithPushNotificationAuthenticator sets a custom authenticator for push
// notifications, so signing and verification share one key set across the
// application.
func WithPushNotificationAuthenticator(authenticator *auth.PushNotificationAuthenticator) Option {
	return func(s *A2AServer) {
		s.pushAuth = authenticator
	}
}

// WithBasePath prefixes all A2A endpoints with a base path, overriding any
// path extracted from the agent card URL.
//
// Example: WithBasePath("/api/v1/agent") serves
// /api/v1/agent/.well-known/agent-card.json, /api/v1/agent/, and
// /api/v1/agent/.well-known/jwks.json.
func WithBasePath(basePath string) Option {
	return func(s *A2AServer) {
		if basePath == "" || basePath == "/" {
			return
		}
		if !strings.HasPrefix(basePath, "/") {
			basePath = "/" + basePath
		}
		basePath = strings.TrimSuffix(basePath, "/")

		s.jsonRPCEndpoint = basePath + "/"
		s.agentCardPath = basePath + protocol.AgentCardPath
		s.oldAgentCardPath = basePath + protocol.OldAgentCardPath
		s.jwksEndpoint = basePath + protocol.JWKSPath
	}
}

// WithHTTPRouter sets a custom HTTP router, e.g. gorilla mux, for advanced
// routing around the A2A endpoints.
func WithHTTPRouter(router HTTPRouter) Option {
	return func(s *A2AServer) {
		s.customRouter = router
	}
}

// WithAgentCardHandler replaces the built-in handler for the well-known
// agent card endpoints. It is not authenticated.
func WithAgentCardHandler(handler http.Handler) Option {
	return func(s *A2AServer) {
		s.agentCardHandler = handler
	}
}

// WithAuthenticatedExtendedCardHandler sets a dynamic card modifier applied
// when serving the authenticated extended card.
func WithAuthenticatedExtendedCardHandler(handler func(ctx context.Context, baseCard AgentCard) (AgentCard, error)) Option {
	return func(s *A2AServer) {
		s.authenticatedCardHandler = handler
	}
}

// WithMetrics attaches a metrics sink and serves it at the given path,
// typically "/metrics". An empty path registers metrics without an
// endpoint.
func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(s *A2AServer) {
		s.metrics = m
		s.metricsPath = path
	}
}
