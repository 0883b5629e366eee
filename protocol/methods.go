// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package protocol

// A2A RPC method names.
const (
	// MethodMessageSend sends a message, blocking until a result is available.
	MethodMessageSend = "message/send"
	// MethodMessageStream sends a message and streams events over SSE.
	MethodMessageStream = "message/stream"
	// MethodTasksGet retrieves the current state of a task.
	MethodTasksGet = "tasks/get"
	// MethodTasksCancel requests cancellation of a running task.
	MethodTasksCancel = "tasks/cancel"
	// MethodTasksPushNotificationConfigSet sets a task's push notification config.
	MethodTasksPushNotificationConfigSet = "tasks/pushNotificationConfig/set"
	// MethodTasksPushNotificationConfigGet retrieves a task's push notification config.
	MethodTasksPushNotificationConfigGet = "tasks/pushNotificationConfig/get"
	// MethodTasksResubscribe reattaches an SSE stream to an existing task.
	MethodTasksResubscribe = "tasks/resubscribe"
	// MethodAgentAuthenticatedExtendedCard retrieves the authenticated extended agent card.
	MethodAgentAuthenticatedExtendedCard = "agent/getAuthenticatedExtendedCard"
)

// SSE event type names used on streaming responses.
const (
	// EventTask is the SSE event name for a full task snapshot.
	EventTask = "task"
	// EventMessage is the SSE event name for a direct message.
	EventMessage = "message"
	// EventStatusUpdate is the SSE event name for a status change.
	EventStatusUpdate = "task_status_update"
	// EventArtifactUpdate is the SSE event name for an artifact chunk.
	EventArtifactUpdate = "task_artifact_update"
	// EventClose is the SSE event name signalling end of stream.
	EventClose = "close"
)

// Well-known HTTP paths served alongside the JSON-RPC endpoint.
const (
	// AgentCardPath is the well-known path for the agent card.
	AgentCardPath = "/.well-known/agent-card.json"
	// OldAgentCardPath is the legacy well-known path for the agent card.
	OldAgentCardPath = "/.well-known/agent.json"
	// JWKSPath is the well-known path for the JSON Web Key Set.
	JWKSPath = "/.well-known/jwks.json"
	// DefaultJSONRPCPath is the default path of the JSON-RPC endpoint.
	DefaultJSONRPCPath = "/"
)
