// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

// Package server provides the A2A server implementation: HTTP transport,
// JSON-RPC dispatch, SSE streaming, and the agent card endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a2aserve/a2aserve/auth"
	"github.com/a2aserve/a2aserve/internal/jsonrpc"
	"github.com/a2aserve/a2aserve/log"
	"github.com/a2aserve/a2aserve/metrics"
	"github.com/a2aserve/a2aserve/protocol"
	"github.com/a2aserve/a2aserve/taskmanager"
)

var errUnknownEvent = errors.New("unknown event type")

// A2AServer implements the HTTP server for the A2A protocol. It handles
// agent card requests and routes JSON-RPC calls to the TaskManager,
// enforcing the capability gates the agent card advertises.
type A2AServer struct {
	agentCard        AgentCard               // Metadata for this agent.
	taskManager      taskmanager.TaskManager // Handles task logic.
	httpServer       *http.Server            // Underlying HTTP server.
	corsEnabled      bool                    // Flag to enable/disable CORS headers.
	jsonRPCEndpoint  string                  // Path for the JSON-RPC endpoint.
	agentCardPath    string                  // Path for the agent card endpoint.
	oldAgentCardPath string                  // Path for the legacy agent card endpoint.
	readTimeout      time.Duration           // HTTP server read timeout.
	writeTimeout     time.Duration           // HTTP server write timeout.
	idleTimeout      time.Duration           // HTTP server idle timeout.
	agentCardHandler http.Handler            // Handler for agent card endpoint.
	customRouter     HTTPRouter              // Custom router for advanced routing.

	// Authentication related fields
	middleware   []Middleware                        // Authentication middlewares.
	pushAuth     *auth.PushNotificationAuthenticator // Push notification authenticator.
	jwksEnabled  bool                                // Flag to enable/disable JWKS endpoint.
	jwksEndpoint string                              // Path for the JWKS endpoint.

	// Metrics related fields
	metrics     *metrics.Metrics // Optional metrics sink.
	metricsPath string           // Path for the metrics endpoint, if any.

	// Extended card related fields
	authenticatedCardHandler func(ctx context.Context, baseCard AgentCard) (AgentCard, error)
}

// NewA2AServer creates a new A2AServer instance with the given agent card
// and task manager implementation.
func NewA2AServer(agentCard AgentCard, taskManager taskmanager.TaskManager, opts ...Option) (*A2AServer, error) {
	if taskManager == nil {
		return nil, errors.New("task manager must not be nil")
	}
	server := &A2AServer{
		agentCard:        agentCard,
		taskManager:      taskManager,
		corsEnabled:      true, // Defaults on so browser clients work out of the box.
		jsonRPCEndpoint:  protocol.DefaultJSONRPCPath,
		agentCardPath:    protocol.AgentCardPath,
		oldAgentCardPath: protocol.OldAgentCardPath,
		readTimeout:      defaultReadTimeout,
		writeTimeout:     defaultWriteTimeout,
		idleTimeout:      defaultIdleTimeout,
		jwksEndpoint:     protocol.JWKSPath,
	}

	// Options like WithBasePath take priority over the agent card URL.
	originalJSONRPCEndpoint := server.jsonRPCEndpoint
	originalAgentCardPath := server.agentCardPath
	originalJWKSEndpoint := server.jwksEndpoint

	for _, opt := range opts {
		opt(server)
	}

	// Fall back to the base path embedded in the agent card URL when no
	// option changed the endpoints.
	if server.jsonRPCEndpoint == originalJSONRPCEndpoint &&
		server.agentCardPath == originalAgentCardPath &&
		server.jwksEndpoint == originalJWKSEndpoint {
		basePath := extractBasePathFromURL(agentCard.URL)
		if basePath != "" {
			server.jsonRPCEndpoint = basePath + "/"
			server.agentCardPath = basePath + protocol.AgentCardPath
			server.jwksEndpoint = basePath + protocol.JWKSPath
			server.oldAgentCardPath = basePath + protocol.OldAgentCardPath
		}
	}

	if server.jwksEnabled && server.pushAuth == nil {
		server.pushAuth = auth.NewPushNotificationAuthenticator()
		if err := server.pushAuth.GenerateKeyPair(); err != nil {
			return nil, fmt.Errorf("generating JWKS key pair: %w", err)
		}
	}
	return server, nil
}

// Start begins listening for HTTP requests on the specified network
// address. It blocks until the server is stopped via Stop() or an error
// occurs.
func (s *A2AServer) Start(address string) error {
	s.httpServer = &http.Server{
		Addr:         address,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}

	log.Infof("A2A server listening on %s", address)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http listener failed: %w", err)
	}
	log.Info("A2A server stopped")
	return nil
}

// Stop gracefully shuts down the running HTTP server, waiting for active
// connections within the context's deadline.
func (s *A2AServer) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return errors.New("server is not running")
	}
	log.Info("Shutting down A2A server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("A2A server shutdown complete")
	return nil
}

// Handler returns an http.Handler for the server. This can be used to
// integrate the A2A server into existing HTTP servers.
func (s *A2AServer) Handler() http.Handler {
	var router HTTPRouter
	if s.customRouter != nil {
		router = s.customRouter
	} else {
		router = http.NewServeMux()
	}

	// Endpoint for agent metadata (.well-known convention).
	if s.agentCardHandler != nil {
		router.Handle(s.agentCardPath, s.agentCardHandler)
		router.Handle(s.oldAgentCardPath, s.agentCardHandler)
	} else {
		router.Handle(s.agentCardPath, http.HandlerFunc(s.handleAgentCard))
		router.Handle(s.oldAgentCardPath, http.HandlerFunc(s.handleAgentCard))
	}

	// JWKS endpoint for push notification verification if enabled.
	if s.jwksEnabled && s.pushAuth != nil {
		router.Handle(s.jwksEndpoint, http.HandlerFunc(s.pushAuth.HandleJWKS))
	}

	// Metrics endpoint if configured.
	if s.metrics != nil && s.metricsPath != "" {
		router.Handle(s.metricsPath, s.metrics.Handler())
	}

	// Main JSON-RPC endpoint with optional authentication.
	if len(s.middleware) > 0 {
		chain := MiddlewareChain(s.middleware)
		router.Handle(s.jsonRPCEndpoint, chain.Wrap(http.HandlerFunc(s.handleJSONRPC)))
	} else {
		router.Handle(s.jsonRPCEndpoint, http.HandlerFunc(s.handleJSONRPC))
	}
	return router
}

// handleAgentCard serves the agent's metadata card as JSON.
func (s *A2AServer) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	if s.corsEnabled {
		setCORSHeaders(w)
	}
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(s.agentCard); err != nil {
		log.Errorf("Failed to serialize agent card: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// handleJSONRPC is the main handler for all JSON-RPC 2.0 requests.
func (s *A2AServer) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if s.corsEnabled {
		setCORSHeaders(w)
		// Handle browser preflight requests.
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	if !s.validateJSONRPCRequest(w, r) {
		return
	}

	request, err := s.parseJSONRPCRequest(w, r.Body)
	if err != nil {
		return
	}

	s.routeJSONRPCMethod(r.Context(), w, request)
}

// validateJSONRPCRequest validates basic HTTP requirements for JSON-RPC.
// Returns true if valid, writes an error and returns false if not.
func (s *A2AServer) validateJSONRPCRequest(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		s.writeJSONRPCError(w, nil,
			jsonrpc.ErrMethodNotFound(fmt.Sprintf("http method %s not supported, POST required", r.Method)))
		return false
	}

	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		log.Warnf("Rejected request with Content-Type %q: %v", contentType, err)
		s.writeJSONRPCError(w, nil,
			jsonrpc.ErrInvalidRequest(
				fmt.Sprintf("expected Content-Type application/json, got %s", contentType)))
		return false
	}
	return true
}

// parseJSONRPCRequest reads and parses the request body into a JSON-RPC
// request, validating the protocol version.
func (s *A2AServer) parseJSONRPCRequest(w http.ResponseWriter, body io.ReadCloser) (jsonrpc.Request, error) {
	var request jsonrpc.Request

	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		s.writeJSONRPCError(w, nil,
			jsonrpc.ErrParseError(fmt.Sprintf("could not read request body: %v", err)))
		return request, err
	}
	defer body.Close()

	if err := json.Unmarshal(bodyBytes, &request); err != nil {
		s.writeJSONRPCError(w, nil,
			jsonrpc.ErrParseError(fmt.Sprintf("malformed JSON in request body: %v", err)))
		return request, err
	}

	if request.JSONRPC != jsonrpc.Version {
		s.writeJSONRPCError(w, request.ID,
			jsonrpc.ErrInvalidRequest(fmt.Sprintf("jsonrpc version must be %q", jsonrpc.Version)))
		return request, fmt.Errorf("unsupported JSON-RPC version")
	}
	return request, nil
}

// routeJSONRPCMethod routes the request to the matching method handler.
func (s *A2AServer) routeJSONRPCMethod(ctx context.Context, w http.ResponseWriter, request jsonrpc.Request) {
	log.Debugf("Received JSON-RPC request (ID: %v, Method: %s)", request.ID, request.Method)

	switch request.Method {
	case protocol.MethodMessageSend:
		s.handleMessageSend(ctx, w, request)
	case protocol.MethodMessageStream:
		s.handleMessageStream(ctx, w, request)
	case protocol.MethodTasksGet:
		s.handleTasksGet(ctx, w, request)
	case protocol.MethodTasksCancel:
		s.handleTasksCancel(ctx, w, request)
	case protocol.MethodTasksPushNotificationConfigSet:
		s.handleTasksPushNotificationSet(ctx, w, request)
	case protocol.MethodTasksPushNotificationConfigGet:
		s.handleTasksPushNotificationGet(ctx, w, request)
	case protocol.MethodTasksResubscribe:
		s.handleTasksResubscribe(ctx, w, request)
	case protocol.MethodAgentAuthenticatedExtendedCard:
		s.handleAgentGetAuthenticatedExtendedCard(ctx, w, request)
	default:
		log.Warnf("Unknown method %s (request %v)", request.Method, request.ID)
		s.observe(request.Method, jsonrpc.ErrMethodNotFoundSentinel)
		s.writeJSONRPCError(w, request.ID,
			jsonrpc.ErrMethodNotFound(fmt.Sprintf("unknown method %q", request.Method)))
	}
}

// observe reports a request outcome to the metrics sink, if any.
func (s *A2AServer) observe(method string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveRequest(method, err)
	}
}

// unmarshalParams unmarshals JSON-RPC params into the provided struct,
// returning a ready-to-write invalid-params error on failure.
func (s *A2AServer) unmarshalParams(params json.RawMessage, v interface{}) *jsonrpc.Error {
	if err := json.Unmarshal(params, v); err != nil {
		return jsonrpc.ErrInvalidParams(fmt.Sprintf("cannot decode params: %v", err))
	}
	return nil
}

// handleMessageSend handles the message/send method.
func (s *A2AServer) handleMessageSend(ctx context.Context, w http.ResponseWriter, request jsonrpc.Request) {
	var params protocol.SendMessageParams
	if err := s.unmarshalParams(request.Params, &params); err != nil {
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}
	params.RPCID = fmt.Sprintf("%v", request.ID)
	message, err := s.taskManager.OnSendMessage(ctx, params)
	s.observe(request.Method, err)
	if err != nil {
		s.handleTaskManagerError(w, request.ID, err, "OnSendMessage", params.RPCID)
		return
	}
	s.writeJSONRPCResponse(w, request.ID, message)
}

// handleMessageStream handles the message/stream method using Server-Sent
// Events, gated on the streaming capability.
func (s *A2AServer) handleMessageStream(ctx context.Context, w http.ResponseWriter, request jsonrpc.Request) {
	if !s.agentCard.StreamingEnabled() {
		s.observe(request.Method, taskmanager.ErrUnsupportedOperationSentinel)
		s.writeJSONRPCError(w, request.ID, taskmanager.ErrUnsupportedOperation(protocol.MethodMessageStream))
		return
	}

	var params protocol.SendMessageParams
	if err := s.unmarshalParams(request.Params, &params); err != nil {
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}
	params.RPCID = fmt.Sprintf("%v", request.ID)

	if params.Message.Role == "" || len(params.Message.Parts) == 0 {
		err := jsonrpc.ErrInvalidParams("message with at least one part is required")
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("Response writer does not implement http.Flusher, cannot stream")
		s.writeJSONRPCError(w, request.ID, jsonrpc.ErrInternalError("streaming unsupported by this transport"))
		return
	}

	eventsChan, err := s.taskManager.OnSendMessageStream(ctx, params)
	s.observe(request.Method, err)
	if err != nil {
		s.handleTaskManagerError(w, request.ID, err, "OnSendMessageStream", params.RPCID)
		return
	}

	log.Debugf("SSE stream opened for request ID: %v", request.ID)
	handleSSEStream(ctx, s.corsEnabled, w, flusher, eventsChan, fmt.Sprintf("%v", request.ID))
}

// handleTasksGet handles the tasks/get method.
func (s *A2AServer) handleTasksGet(ctx context.Context, w http.ResponseWriter, request jsonrpc.Request) {
	var params protocol.TaskQueryParams
	if err := s.unmarshalParams(request.Params, &params); err != nil {
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}
	task, err := s.taskManager.OnGetTask(ctx, params)
	s.observe(request.Method, err)
	if err != nil {
		s.handleTaskManagerError(w, request.ID, err, "OnGetTask", params.ID)
		return
	}
	s.writeJSONRPCResponse(w, request.ID, task)
}

// handleTasksCancel handles the tasks/cancel method.
func (s *A2AServer) handleTasksCancel(ctx context.Context, w http.ResponseWriter, request jsonrpc.Request) {
	var params protocol.TaskIDParams
	if err := s.unmarshalParams(request.Params, &params); err != nil {
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}
	task, err := s.taskManager.OnCancelTask(ctx, params)
	s.observe(request.Method, err)
	if err != nil {
		s.handleTaskManagerError(w, request.ID, err, "OnCancelTask", params.ID)
		return
	}
	s.writeJSONRPCResponse(w, request.ID, task)
}

// handleTasksPushNotificationSet handles tasks/pushNotificationConfig/set,
// gated on the push notification capability.
func (s *A2AServer) handleTasksPushNotificationSet(
	ctx context.Context,
	w http.ResponseWriter,
	request jsonrpc.Request,
) {
	if !s.agentCard.PushNotificationsEnabled() {
		s.observe(request.Method, taskmanager.ErrPushNotificationNotSupportedSentinel)
		s.writeJSONRPCError(w, request.ID, taskmanager.ErrPushNotificationNotSupported())
		return
	}

	var params protocol.TaskPushNotificationConfig
	if err := s.unmarshalParams(request.Params, &params); err != nil {
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}
	if params.TaskID == "" {
		err := jsonrpc.ErrInvalidParams("task ID is required")
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}
	if params.PushNotificationConfig.URL == "" {
		err := jsonrpc.ErrInvalidParams("push notification URL is required")
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}

	// Advertise bearer signing and the JWKS endpoint when enabled, so the
	// receiver knows where to fetch the verification keys.
	if s.jwksEnabled && s.pushAuth != nil {
		if params.PushNotificationConfig.Authentication == nil {
			params.PushNotificationConfig.Authentication = &protocol.PushNotificationAuthenticationInfo{
				Schemes: []string{"bearer"},
			}
		} else {
			hasBearer := false
			for _, scheme := range params.PushNotificationConfig.Authentication.Schemes {
				if scheme == "bearer" {
					hasBearer = true
					break
				}
			}
			if !hasBearer {
				params.PushNotificationConfig.Authentication.Schemes = append(
					params.PushNotificationConfig.Authentication.Schemes, "bearer")
			}
		}
		jwksURL := s.composeJWKSURL()
		log.Infof("Advertising JWKS URL %s in push notification config", jwksURL)
		if params.PushNotificationConfig.Metadata == nil {
			params.PushNotificationConfig.Metadata = make(map[string]interface{})
		}
		params.PushNotificationConfig.Metadata["jwksUrl"] = jwksURL
	}

	result, err := s.taskManager.OnPushNotificationSet(ctx, params)
	s.observe(request.Method, err)
	if err != nil {
		s.handleTaskManagerError(w, request.ID, err, "OnPushNotificationSet", params.TaskID)
		return
	}
	s.writeJSONRPCResponse(w, request.ID, result)
}

// handleTasksPushNotificationGet handles tasks/pushNotificationConfig/get,
// gated on the push notification capability.
func (s *A2AServer) handleTasksPushNotificationGet(
	ctx context.Context,
	w http.ResponseWriter,
	request jsonrpc.Request,
) {
	if !s.agentCard.PushNotificationsEnabled() {
		s.observe(request.Method, taskmanager.ErrPushNotificationNotSupportedSentinel)
		s.writeJSONRPCError(w, request.ID, taskmanager.ErrPushNotificationNotSupported())
		return
	}

	var params protocol.TaskIDParams
	if err := s.unmarshalParams(request.Params, &params); err != nil {
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}
	if params.ID == "" {
		err := jsonrpc.ErrInvalidParams("task ID is required")
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}

	result, err := s.taskManager.OnPushNotificationGet(ctx, params)
	s.observe(request.Method, err)
	if err != nil {
		s.handleTaskManagerError(w, request.ID, err, "OnPushNotificationGet", params.ID)
		return
	}
	s.writeJSONRPCResponse(w, request.ID, result)
}

// handleTasksResubscribe handles tasks/resubscribe, gated on the streaming
// capability.
func (s *A2AServer) handleTasksResubscribe(ctx context.Context, w http.ResponseWriter, request jsonrpc.Request) {
	if !s.agentCard.StreamingEnabled() {
		s.observe(request.Method, taskmanager.ErrUnsupportedOperationSentinel)
		s.writeJSONRPCError(w, request.ID, taskmanager.ErrUnsupportedOperation(protocol.MethodTasksResubscribe))
		return
	}

	var params protocol.TaskIDParams
	if err := s.unmarshalParams(request.Params, &params); err != nil {
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}
	if params.ID == "" {
		err := jsonrpc.ErrInvalidParams("task ID is required")
		s.observe(request.Method, err)
		s.writeJSONRPCError(w, request.ID, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("Response writer does not implement http.Flusher, cannot stream")
		s.writeJSONRPCError(w, request.ID, jsonrpc.ErrInternalError("streaming unsupported by this transport"))
		return
	}

	eventsChan, err := s.taskManager.OnResubscribe(ctx, params)
	s.observe(request.Method, err)
	if err != nil {
		s.handleTaskManagerError(w, request.ID, err, "OnResubscribe", params.ID)
		return
	}

	log.Debugf("SSE stream reopened for request ID: %v", request.ID)
	handleSSEStream(ctx, s.corsEnabled, w, flusher, eventsChan, fmt.Sprintf("%v", request.ID))
}

// handleAgentGetAuthenticatedExtendedCard handles the
// agent/getAuthenticatedExtendedCard JSON-RPC method, returning an extended
// card variant for authenticated callers.
func (s *A2AServer) handleAgentGetAuthenticatedExtendedCard(
	ctx context.Context,
	w http.ResponseWriter,
	request jsonrpc.Request,
) {
	if s.agentCard.SupportsAuthenticatedExtendedCard == nil || !*s.agentCard.SupportsAuthenticatedExtendedCard {
		log.Warnf("Extended card requested but not configured (request %v)", request.ID)
		s.observe(request.Method, taskmanager.ErrAuthenticatedExtendedCardNotConfiguredSentinel)
		s.writeJSONRPCError(w, request.ID, taskmanager.ErrAuthenticatedExtendedCardNotConfigured())
		return
	}

	cardToServe := s.agentCard
	if s.authenticatedCardHandler != nil {
		modifiedCard, err := s.authenticatedCardHandler(ctx, s.agentCard)
		if err != nil {
			log.Errorf("Extended card handler failed: %v", err)
			s.observe(request.Method, err)
			s.writeJSONRPCError(w, request.ID,
				jsonrpc.ErrInternalError(fmt.Sprintf("extended card handler error: %v", err)))
			return
		}
		cardToServe = modifiedCard
	}

	log.Debugf("Serving authenticated extended card (Request ID: %v)", request.ID)
	s.observe(request.Method, nil)
	s.writeJSONRPCResponse(w, request.ID, cardToServe)
}

// handleTaskManagerError writes an error from a task manager operation,
// preserving JSON-RPC errors and wrapping everything else as internal.
func (s *A2AServer) handleTaskManagerError(
	w http.ResponseWriter,
	id interface{},
	err error,
	operation string,
	taskID string,
) {
	if rpcErr, ok := err.(*jsonrpc.Error); ok {
		log.Errorf("%s for task %s returned error: %v", operation, taskID, rpcErr)
		s.writeJSONRPCError(w, id, rpcErr)
	} else {
		log.Errorf("%s for task %s failed with non-RPC error: %v", operation, taskID, err)
		s.writeJSONRPCError(w, id,
			jsonrpc.ErrInternalError(fmt.Sprintf("%s failed: %v", operation, err)))
	}
}

// writeJSONRPCResponse encodes and writes a successful JSON-RPC response.
func (s *A2AServer) writeJSONRPCResponse(w http.ResponseWriter, id interface{}, result interface{}) {
	response := jsonrpc.NewResponse(id, result)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK) // Success is always 200 OK for JSON-RPC itself.
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Errorf("Failed writing response for request %v: %v", id, err)
	}
}

// writeJSONRPCError encodes and writes a JSON-RPC error response with an
// HTTP status matching the error class.
func (s *A2AServer) writeJSONRPCError(w http.ResponseWriter, id interface{}, err *jsonrpc.Error) {
	if err == nil {
		err = jsonrpc.ErrInternalError("error response requested with nil error")
		log.Errorf("writeJSONRPCError invoked with nil error (request %v)", id)
	}
	response := jsonrpc.NewErrorResponse(id, err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	httpStatus := http.StatusInternalServerError
	switch err.Code {
	case jsonrpc.CodeParseError:
		httpStatus = http.StatusBadRequest
	case jsonrpc.CodeInvalidRequest:
		httpStatus = http.StatusBadRequest
	case jsonrpc.CodeMethodNotFound:
		httpStatus = http.StatusNotFound
	case jsonrpc.CodeInvalidParams:
		httpStatus = http.StatusBadRequest
	}
	w.WriteHeader(httpStatus)
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		log.Errorf("Failed writing error response for request %v (code %d): %v", id, err.Code, encodeErr)
	}
}

// composeJWKSURL returns the fully qualified URL to the JWKS endpoint.
func (s *A2AServer) composeJWKSURL() string {
	if s.agentCard.URL == "" {
		log.Warn("No agent card URL set, JWKS URL stays relative")
		return s.jwksEndpoint
	}
	parsedURL, err := url.Parse(s.agentCard.URL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		log.Warnf("Agent card URL %q is unparsable: %v", s.agentCard.URL, err)
		return s.jwksEndpoint
	}
	return fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host) + s.jwksEndpoint
}

// setCORSHeaders adds permissive CORS headers for development/testing.
// WARNING: This is insecure for production. Configure origins explicitly.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*") // INSECURE
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// handleSSEStream sets up SSE headers and forwards the event channel to the
// client until it drains or the client disconnects.
func handleSSEStream(
	ctx context.Context,
	corsEnabled bool,
	w http.ResponseWriter,
	flusher http.Flusher,
	eventsChan <-chan protocol.StreamingMessageEvent,
	rpcID string,
) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if corsEnabled {
		setCORSHeaders(w)
	}

	w.WriteHeader(http.StatusOK)
	flusher.Flush() // Send headers immediately.

	tunnel := newSSETunnel(w, flusher, rpcID)
	tunnel.start(ctx, eventsChan)
}

// extractBasePathFromURL extracts the base path from an agent card URL.
// For example, "http://localhost:8080/agent/api/v2/myagent" returns
// "/agent/api/v2/myagent".
func extractBasePathFromURL(agentURL string) string {
	if agentURL == "" {
		return ""
	}
	parsedURL, err := url.Parse(agentURL)
	if err != nil {
		log.Warnf("Agent card URL %q is unparsable: %v", agentURL, err)
		return ""
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		log.Warnf("Agent card URL %q lacks scheme or host", agentURL)
		return ""
	}

	basePath := parsedURL.Path
	if len(basePath) > 1 && strings.HasSuffix(basePath, "/") {
		basePath = strings.TrimSuffix(basePath, "/")
	}
	if basePath == "" || basePath == "/" {
		return ""
	}
	return basePath
}
