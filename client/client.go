// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

// Package client provides an A2A client implementation for interacting with
// A2A servers over JSON-RPC and Server-Sent Events.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a2aserve/a2aserve/auth"
	"github.com/a2aserve/a2aserve/internal/jsonrpc"
	"github.com/a2aserve/a2aserve/internal/sse"
	"github.com/a2aserve/a2aserve/log"
	"github.com/a2aserve/a2aserve/protocol"
	"github.com/a2aserve/a2aserve/server"
)

const defaultUserAgent = "a2aserve-client/0.2"

// A2AClient talks to a single A2A server endpoint.
type A2AClient struct {
	baseURL      *url.URL
	httpClient   *http.Client
	userAgent    string
	authProvider auth.ClientProvider
}

// NewA2AClient creates a client for the agent at agentURL. The URL should
// point at the agent's JSON-RPC endpoint, with or without trailing slash.
func NewA2AClient(agentURL string, opts ...Option) (*A2AClient, error) {
	if agentURL == "" {
		return nil, fmt.Errorf("agent URL must not be empty")
	}
	if !strings.HasSuffix(agentURL, "/") {
		agentURL += "/"
	}
	baseURL, err := url.Parse(agentURL)
	if err != nil {
		return nil, fmt.Errorf("invalid agent URL %q: %w", agentURL, err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid agent URL %q: missing scheme or host", agentURL)
	}

	client := &A2AClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.authProvider != nil {
		client.httpClient = client.authProvider.ConfigureClient(client.httpClient)
	}
	return client, nil
}

// SendMessage sends a message using the message/send method and returns the
// task snapshot or direct message the agent produced.
func (c *A2AClient) SendMessage(
	ctx context.Context,
	params protocol.SendMessageParams,
	opts ...RequestOption,
) (*protocol.MessageResult, error) {
	var result protocol.MessageResult
	if err := c.call(ctx, protocol.MethodMessageSend, params.RPCID, params, &result, opts...); err != nil {
		return nil, err
	}
	return &result, nil
}

// StreamMessage sends a message using message/stream and returns a channel
// of streaming events. The channel is closed when the server ends the
// stream or the context is canceled.
func (c *A2AClient) StreamMessage(
	ctx context.Context,
	params protocol.SendMessageParams,
	opts ...RequestOption,
) (<-chan protocol.StreamingMessageEvent, error) {
	return c.stream(ctx, protocol.MethodMessageStream, params.RPCID, params, opts...)
}

// GetTasks retrieves the current snapshot of a task using tasks/get.
func (c *A2AClient) GetTasks(
	ctx context.Context,
	params protocol.TaskQueryParams,
	opts ...RequestOption,
) (*protocol.Task, error) {
	var task protocol.Task
	if err := c.call(ctx, protocol.MethodTasksGet, params.RPCID, params, &task, opts...); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTasks requests cancellation of a task using tasks/cancel.
func (c *A2AClient) CancelTasks(
	ctx context.Context,
	params protocol.TaskIDParams,
	opts ...RequestOption,
) (*protocol.Task, error) {
	var task protocol.Task
	if err := c.call(ctx, protocol.MethodTasksCancel, params.RPCID, params, &task, opts...); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetPushNotification registers a push notification endpoint for a task.
func (c *A2AClient) SetPushNotification(
	ctx context.Context,
	params protocol.TaskPushNotificationConfig,
	opts ...RequestOption,
) (*protocol.TaskPushNotificationConfig, error) {
	var result protocol.TaskPushNotificationConfig
	err := c.call(ctx, protocol.MethodTasksPushNotificationConfigSet, params.RPCID, params, &result, opts...)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPushNotification retrieves the push notification configuration of a
// task. Returned credentials are masked by the server.
func (c *A2AClient) GetPushNotification(
	ctx context.Context,
	params protocol.TaskIDParams,
	opts ...RequestOption,
) (*protocol.TaskPushNotificationConfig, error) {
	var result protocol.TaskPushNotificationConfig
	err := c.call(ctx, protocol.MethodTasksPushNotificationConfigGet, params.RPCID, params, &result, opts...)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ResubscribeTask reattaches to the event stream of an existing task using
// tasks/resubscribe. The first event is the task's current snapshot.
func (c *A2AClient) ResubscribeTask(
	ctx context.Context,
	params protocol.TaskIDParams,
	opts ...RequestOption,
) (<-chan protocol.StreamingMessageEvent, error) {
	return c.stream(ctx, protocol.MethodTasksResubscribe, params.RPCID, params, opts...)
}

// GetAuthenticatedExtendedCard fetches the extended agent card via the
// agent/getAuthenticatedExtendedCard JSON-RPC method.
func (c *A2AClient) GetAuthenticatedExtendedCard(
	ctx context.Context,
	opts ...RequestOption,
) (*server.AgentCard, error) {
	var card server.AgentCard
	err := c.call(ctx, protocol.MethodAgentAuthenticatedExtendedCard, "", struct{}{}, &card, opts...)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// GetAgentCard fetches the public agent card. cardPath may be empty (the
// well-known path), a path relative to the agent host, or an absolute URL.
func (c *A2AClient) GetAgentCard(ctx context.Context, cardPath string) (*server.AgentCard, error) {
	if cardPath == "" {
		cardPath = protocol.AgentCardPath
	}
	ref, err := url.Parse(cardPath)
	if err != nil {
		return nil, fmt.Errorf("invalid agent card path %q: %w", cardPath, err)
	}
	cardURL := c.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent card request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent card request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected http status %d fetching agent card: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var card server.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("failed to decode agent card: %w", err)
	}
	return &card, nil
}

// call performs a unary JSON-RPC request and decodes the result into out.
func (c *A2AClient) call(
	ctx context.Context,
	method string,
	rpcID string,
	params interface{},
	out interface{},
	opts ...RequestOption,
) error {
	resp, err := c.post(ctx, method, rpcID, params, false, opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// The body may still carry a JSON-RPC error envelope.
		var rpcResp jsonrpc.RawResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&rpcResp); decodeErr == nil && rpcResp.Error != nil {
			return rpcResp.Error
		}
		return fmt.Errorf("unexpected http status %d for method %s", resp.StatusCode, method)
	}

	var rpcResp jsonrpc.RawResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response for method %s: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("failed to decode result for method %s: %w", method, err)
	}
	return nil
}

// stream performs a JSON-RPC request expecting an SSE response and pumps the
// decoded events into a channel.
func (c *A2AClient) stream(
	ctx context.Context,
	method string,
	rpcID string,
	params interface{},
	opts ...RequestOption,
) (<-chan protocol.StreamingMessageEvent, error) {
	resp, err := c.post(ctx, method, rpcID, params, true, opts...)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected http status %d for method %s", resp.StatusCode, method)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "text/event-stream") {
		resp.Body.Close()
		return nil, fmt.Errorf("server did not respond with Content-Type 'text/event-stream', got %q",
			contentType)
	}

	events := make(chan protocol.StreamingMessageEvent, 10)
	go c.readStream(ctx, resp.Body, events)
	return events, nil
}

// readStream decodes SSE events from the body until close, EOF, or context
// cancellation, then closes the channel.
func (c *A2AClient) readStream(
	ctx context.Context,
	body io.ReadCloser,
	events chan<- protocol.StreamingMessageEvent,
) {
	defer close(events)
	defer body.Close()

	reader := sse.NewEventReader(body)
	for {
		data, eventType, err := reader.ReadEvent()
		if err != nil {
			if err != io.EOF {
				log.Warnf("SSE stream read error: %v", err)
			}
			return
		}
		if len(data) == 0 {
			continue
		}
		if eventType == protocol.EventClose {
			return
		}

		var rpcResp jsonrpc.RawResponse
		if err := json.Unmarshal(data, &rpcResp); err != nil {
			log.Warnf("Failed to parse SSE event envelope: %v", err)
			continue
		}
		if rpcResp.Error != nil {
			// An error envelope is the terminal signal: deliver it and end
			// the stream.
			log.Warnf("SSE stream terminated by JSON-RPC error: %v", rpcResp.Error)
			select {
			case events <- protocol.StreamingMessageEvent{Err: rpcResp.Error}:
			case <-ctx.Done():
			}
			return
		}
		var event protocol.StreamingMessageEvent
		if err := json.Unmarshal(rpcResp.Result, &event); err != nil {
			log.Warnf("Failed to parse SSE event payload (type %q): %v", eventType, err)
			continue
		}

		select {
		case events <- event:
		case <-ctx.Done():
			return
		}
	}
}

// post builds and sends a JSON-RPC request over HTTP POST.
func (c *A2AClient) post(
	ctx context.Context,
	method string,
	rpcID string,
	params interface{},
	streaming bool,
	opts ...RequestOption,
) (*http.Response, error) {
	if rpcID == "" {
		rpcID = protocol.GenerateRPCID()
	}
	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params for method %s: %w", method, err)
	}
	request := jsonrpc.NewRequest(method, rpcID)
	request.Params = paramsBytes

	bodyBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request for method %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for method %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if streaming {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	reqOpts := newRequestOptions(opts...)
	for key, values := range reqOpts.header {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request for method %s failed: %w", method, err)
	}
	return resp, nil
}
