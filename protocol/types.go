// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

// Package protocol defines the core types and constants of the A2A wire
// format: tasks, messages, parts, artifacts, streaming events, and the
// parameter shapes of the RPC methods.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// TaskState represents the lifecycle state of a task.
type TaskState string

// TaskState constants define the possible states of a task.
const (
	// TaskStateSubmitted means the task was received but processing has not begun.
	TaskStateSubmitted TaskState = "submitted"
	// TaskStateWorking means the handler is actively processing the task.
	TaskStateWorking TaskState = "working"
	// TaskStateInputRequired is the state when the task requires additional input.
	TaskStateInputRequired TaskState = "input-required"
	// TaskStateAuthRequired means the task is paused awaiting authentication.
	TaskStateAuthRequired TaskState = "auth-required"
	// TaskStateCompleted means the task finished successfully. Terminal.
	TaskStateCompleted TaskState = "completed"
	// TaskStateCanceled means the task was canceled before completion. Terminal.
	TaskStateCanceled TaskState = "canceled"
	// TaskStateFailed means processing ended with an error. Terminal.
	TaskStateFailed TaskState = "failed"
	// TaskStateRejected means the agent declined the task. Terminal.
	TaskStateRejected TaskState = "rejected"
	// TaskStateUnknown means the task state cannot be determined.
	TaskStateUnknown TaskState = "unknown"
)

// MessageRole indicates the originator of a message (user or agent).
type MessageRole string

// MessageRole constants define the possible roles for a message sender.
const (
	// MessageRoleUser marks messages sent by the client.
	MessageRoleUser MessageRole = "user"
	// MessageRoleAgent marks messages sent by the agent.
	MessageRoleAgent MessageRole = "agent"
)

// Kind constants discriminate the polymorphic wire types.
const (
	// KindMessage is the kind of a message.
	KindMessage = "message"
	// KindTask is the kind of a task.
	KindTask = "task"
	// KindTaskStatusUpdate is the kind of a task status update event.
	KindTaskStatusUpdate = "status-update"
	// KindTaskArtifactUpdate is the kind of a task artifact update event.
	KindTaskArtifactUpdate = "artifact-update"
	// KindText is the kind of a text part.
	KindText = "text"
	// KindFile is the kind of a file part.
	KindFile = "file"
	// KindData is the kind of a data part.
	KindData = "data"
)

// GenerateMessageID generates a new unique message ID.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}

// GenerateContextID generates a new unique context ID for a task.
func GenerateContextID() string {
	return "ctx-" + uuid.New().String()
}

// GenerateTaskID generates a new unique task ID.
func GenerateTaskID() string {
	return "task-" + uuid.New().String()
}

// GenerateArtifactID generates a new unique artifact ID.
func GenerateArtifactID() string {
	return "artifact-" + uuid.New().String()
}

// GenerateRPCID generates a new unique RPC ID.
func GenerateRPCID() string {
	return uuid.New().String()
}

// Timestamp formats t the way every timestamp crosses the wire.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Part is a segment of a message or artifact: text, file, or structured data.
// An unexported method keeps the set of part types closed.
type Part interface {
	partMarker()
	GetKind() string
}

// TextPart represents a text segment within a message.
type TextPart struct {
	// Kind is the part type discriminator, always KindText.
	Kind string `json:"kind"`
	// Text is the text content.
	Text string `json:"text"`
	// Metadata is optional part metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (TextPart) partMarker() {}

// GetKind returns the kind of the text part.
func (TextPart) GetKind() string { return KindText }

// MarshalJSON ensures the kind discriminator is always present.
func (p TextPart) MarshalJSON() ([]byte, error) {
	type alias TextPart
	a := alias(p)
	a.Kind = KindText
	return json.Marshal(a)
}

// FileUnion represents the union type for file content: either embedded
// bytes or a URI reference.
type FileUnion interface {
	fileUnionMarker()
}

// FileWithBytes represents file data with embedded base64 content.
type FileWithBytes struct {
	// Name is the optional filename.
	Name *string `json:"name,omitempty"`
	// MimeType is the optional MIME type.
	MimeType *string `json:"mimeType,omitempty"`
	// Bytes is the required base64-encoded content.
	Bytes string `json:"bytes"`
}

func (*FileWithBytes) fileUnionMarker() {}

// FileWithURI represents file data referenced by URI.
type FileWithURI struct {
	// Name is the optional filename.
	Name *string `json:"name,omitempty"`
	// MimeType is the optional MIME type.
	MimeType *string `json:"mimeType,omitempty"`
	// URI is the required URI pointing to the content.
	URI string `json:"uri"`
}

func (*FileWithURI) fileUnionMarker() {}

// FilePart represents a file included in a message.
type FilePart struct {
	// Kind is the part type discriminator, always KindFile.
	Kind string `json:"kind"`
	// File is the file content, embedded bytes or a URI reference.
	File FileUnion `json:"file"`
	// Metadata is optional part metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (FilePart) partMarker() {}

// GetKind returns the kind of the file part.
func (FilePart) GetKind() string { return KindFile }

// MarshalJSON ensures the kind discriminator is always present.
func (p FilePart) MarshalJSON() ([]byte, error) {
	type alias FilePart
	a := alias(p)
	a.Kind = KindFile
	return json.Marshal(a)
}

// UnmarshalJSON resolves the file union by probing for the "bytes" and
// "uri" fields.
func (p *FilePart) UnmarshalJSON(data []byte) error {
	type alias struct {
		Kind     string                 `json:"kind"`
		File     json.RawMessage        `json:"file"`
		Metadata map[string]interface{} `json:"metadata,omitempty"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	p.Kind = KindFile
	p.Metadata = a.Metadata
	if len(a.File) == 0 {
		return fmt.Errorf("file part missing file content")
	}
	switch {
	case gjson.GetBytes(a.File, "bytes").Exists():
		var f FileWithBytes
		if err := json.Unmarshal(a.File, &f); err != nil {
			return err
		}
		p.File = &f
	case gjson.GetBytes(a.File, "uri").Exists():
		var f FileWithURI
		if err := json.Unmarshal(a.File, &f); err != nil {
			return err
		}
		p.File = &f
	default:
		return fmt.Errorf("file part has neither bytes nor uri")
	}
	return nil
}

// DataPart represents arbitrary structured data (JSON) within a message.
type DataPart struct {
	// Kind is the part type discriminator, always KindData.
	Kind string `json:"kind"`
	// Data is the structured payload.
	Data map[string]interface{} `json:"data"`
	// Metadata is optional part metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (DataPart) partMarker() {}

// GetKind returns the kind of the data part.
func (DataPart) GetKind() string { return KindData }

// MarshalJSON ensures the kind discriminator is always present.
func (p DataPart) MarshalJSON() ([]byte, error) {
	type alias DataPart
	a := alias(p)
	a.Kind = KindData
	return json.Marshal(a)
}

// unmarshalPart determines the concrete type of a Part from raw JSON based
// on the "kind" field and unmarshals into that concrete type.
func unmarshalPart(rawPart json.RawMessage) (Part, error) {
	kind := gjson.GetBytes(rawPart, "kind").String()
	switch kind {
	case KindText:
		var p TextPart
		if err := json.Unmarshal(rawPart, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal text part: %w", err)
		}
		return p, nil
	case KindFile:
		var p FilePart
		if err := json.Unmarshal(rawPart, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal file part: %w", err)
		}
		return p, nil
	case KindData:
		var p DataPart
		if err := json.Unmarshal(rawPart, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data part: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown part kind: %q", kind)
}

// unmarshalParts decodes a heterogeneous part list.
func unmarshalParts(raw []json.RawMessage) ([]Part, error) {
	parts := make([]Part, 0, len(raw))
	for _, r := range raw {
		p, err := unmarshalPart(r)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// Message represents a single exchange between a user and an agent.
type Message struct {
	// Role indicates the message originator.
	Role MessageRole `json:"role"`
	// Parts is the message content, at least one part.
	Parts []Part `json:"parts"`
	// MessageID uniquely identifies the message.
	MessageID string `json:"messageId"`
	// TaskID optionally binds the message to a task.
	TaskID *string `json:"taskId,omitempty"`
	// ContextID optionally binds the message to a conversation context.
	ContextID *string `json:"contextId,omitempty"`
	// Kind is the type discriminator, always KindMessage.
	Kind string `json:"kind"`
	// Metadata is optional free-form metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// MarshalJSON implements custom marshalling, stamping the kind discriminator.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	b, err := json.Marshal(alias(m))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(b, "kind", KindMessage)
}

// UnmarshalJSON implements custom unmarshalling logic for Message to handle
// the polymorphic Part slice.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias struct {
		Role      MessageRole            `json:"role"`
		Parts     []json.RawMessage      `json:"parts"`
		MessageID string                 `json:"messageId"`
		TaskID    *string                `json:"taskId,omitempty"`
		ContextID *string                `json:"contextId,omitempty"`
		Kind      string                 `json:"kind"`
		Metadata  map[string]interface{} `json:"metadata,omitempty"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	parts, err := unmarshalParts(a.Parts)
	if err != nil {
		return err
	}
	m.Role = a.Role
	m.Parts = parts
	m.MessageID = a.MessageID
	m.TaskID = a.TaskID
	m.ContextID = a.ContextID
	m.Kind = KindMessage
	m.Metadata = a.Metadata
	return nil
}

// Artifact represents an output generated by a task.
type Artifact struct {
	// ArtifactID identifies the artifact within its task.
	ArtifactID string `json:"artifactId"`
	// Name is the optional human-readable artifact name.
	Name *string `json:"name,omitempty"`
	// Description is the optional artifact description.
	Description *string `json:"description,omitempty"`
	// Parts is the artifact content.
	Parts []Part `json:"parts"`
	// Metadata is optional free-form metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// UnmarshalJSON implements custom unmarshalling logic for Artifact to handle
// the polymorphic Part slice.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	type alias struct {
		ArtifactID  string                 `json:"artifactId"`
		Name        *string                `json:"name,omitempty"`
		Description *string                `json:"description,omitempty"`
		Parts       []json.RawMessage      `json:"parts"`
		Metadata    map[string]interface{} `json:"metadata,omitempty"`
	}
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parts, err := unmarshalParts(raw.Parts)
	if err != nil {
		return err
	}
	a.ArtifactID = raw.ArtifactID
	a.Name = raw.Name
	a.Description = raw.Description
	a.Parts = parts
	a.Metadata = raw.Metadata
	return nil
}

// TaskStatus represents the current status of a task.
type TaskStatus struct {
	// State is the lifecycle state.
	State TaskState `json:"state"`
	// Message is an optional agent-authored status message.
	Message *Message `json:"message,omitempty"`
	// Timestamp is the RFC 3339 time of the last state change.
	Timestamp string `json:"timestamp,omitempty"`
}

// Task represents a unit of work being processed by the agent.
type Task struct {
	// ID is the unique, immutable task identifier.
	ID string `json:"id"`
	// ContextID groups related tasks and messages.
	ContextID string `json:"contextId"`
	// Status is the current task status.
	Status TaskStatus `json:"status"`
	// Artifacts is the ordered artifact list.
	Artifacts []Artifact `json:"artifacts,omitempty"`
	// History is the ordered message history.
	History []Message `json:"history,omitempty"`
	// Kind is the type discriminator, always KindTask.
	Kind string `json:"kind"`
	// Metadata is optional free-form metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// MarshalJSON implements custom marshalling, stamping the kind discriminator.
func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	b, err := json.Marshal(alias(t))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(b, "kind", KindTask)
}

// UnmarshalJSON normalizes the kind discriminator after decoding.
func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = Task(a)
	t.Kind = KindTask
	return nil
}

// TaskStatusUpdateEvent indicates a change in the task's lifecycle state.
type TaskStatusUpdateEvent struct {
	// TaskID is the ID of the task.
	TaskID string `json:"taskId"`
	// ContextID is the context of the task.
	ContextID string `json:"contextId"`
	// Kind is the type discriminator, always KindTaskStatusUpdate.
	Kind string `json:"kind"`
	// Status is the new task status.
	Status TaskStatus `json:"status"`
	// Final is true if this is the last event for the task.
	Final bool `json:"final"`
	// Metadata is optional free-form metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IsFinal returns true if this is a final event.
func (e TaskStatusUpdateEvent) IsFinal() bool { return e.Final }

// MarshalJSON implements custom marshalling, stamping the kind discriminator.
func (e TaskStatusUpdateEvent) MarshalJSON() ([]byte, error) {
	type alias TaskStatusUpdateEvent
	b, err := json.Marshal(alias(e))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(b, "kind", KindTaskStatusUpdate)
}

// TaskArtifactUpdateEvent indicates a new or updated artifact chunk.
type TaskArtifactUpdateEvent struct {
	// TaskID is the ID of the task.
	TaskID string `json:"taskId"`
	// ContextID is the context of the task.
	ContextID string `json:"contextId"`
	// Kind is the type discriminator, always KindTaskArtifactUpdate.
	Kind string `json:"kind"`
	// Artifact is the new or replacing artifact entry.
	Artifact Artifact `json:"artifact"`
	// Append is true when the artifact replaces an earlier entry with the same ID.
	Append *bool `json:"append,omitempty"`
	// LastChunk is true when no further chunks follow for this artifact.
	LastChunk *bool `json:"lastChunk,omitempty"`
	// Metadata is optional free-form metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IsFinal returns true if this is the final artifact event.
func (e TaskArtifactUpdateEvent) IsFinal() bool {
	return e.LastChunk != nil && *e.LastChunk
}

// MarshalJSON implements custom marshalling, stamping the kind discriminator.
func (e TaskArtifactUpdateEvent) MarshalJSON() ([]byte, error) {
	type alias TaskArtifactUpdateEvent
	b, err := json.Marshal(alias(e))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(b, "kind", KindTaskArtifactUpdate)
}

// Event is the kind-discriminated union of everything a streaming listener
// may receive.
type Event interface {
	GetKind() string
}

// GetKind returns the kind of the message.
func (Message) GetKind() string { return KindMessage }

// GetKind returns the kind of the task.
func (Task) GetKind() string { return KindTask }

// GetKind returns the kind of the task status update event.
func (TaskStatusUpdateEvent) GetKind() string { return KindTaskStatusUpdate }

// GetKind returns the kind of the task artifact update event.
func (TaskArtifactUpdateEvent) GetKind() string { return KindTaskArtifactUpdate }

// UnaryMessageResult is the result of a message/send call: a Message or a Task.
type UnaryMessageResult interface {
	unaryMessageResultMarker()
	GetKind() string
}

func (Message) unaryMessageResultMarker() {}
func (Task) unaryMessageResultMarker()    {}

// StreamingMessageResult is the result type of a message/stream event.
type StreamingMessageResult interface {
	streamingMessageResultMarker()
	GetKind() string
}

func (Message) streamingMessageResultMarker()                 {}
func (Task) streamingMessageResultMarker()                    {}
func (TaskStatusUpdateEvent) streamingMessageResultMarker()   {}
func (TaskArtifactUpdateEvent) streamingMessageResultMarker() {}

// MessageResult carries the union type response of message/send.
type MessageResult struct {
	Result UnaryMessageResult
}

// MarshalJSON flattens the wrapper to the underlying result.
func (r MessageResult) MarshalJSON() ([]byte, error) {
	if r.Result == nil {
		return nil, fmt.Errorf("message result is empty")
	}
	return json.Marshal(r.Result)
}

// UnmarshalJSON dispatches on the kind discriminator.
func (r *MessageResult) UnmarshalJSON(data []byte) error {
	switch kind := gjson.GetBytes(data, "kind").String(); kind {
	case KindMessage:
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("failed to unmarshal message: %w", err)
		}
		r.Result = &m
	case KindTask:
		var t Task
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("failed to unmarshal task: %w", err)
		}
		r.Result = &t
	default:
		return fmt.Errorf("unsupported result kind: %q", kind)
	}
	return nil
}

// StreamingMessageEvent carries one event of a message/stream or
// tasks/resubscribe stream.
type StreamingMessageEvent struct {
	// Result is the event payload.
	Result StreamingMessageResult
	// Err is set instead of Result when the stream was terminated by a
	// JSON-RPC error envelope. It is a consumer-side signal and is never
	// serialized.
	Err error `json:"-"`
}

// MarshalJSON flattens the wrapper to the underlying result.
func (r StreamingMessageEvent) MarshalJSON() ([]byte, error) {
	if r.Result == nil {
		return nil, fmt.Errorf("streaming event is empty")
	}
	return json.Marshal(r.Result)
}

// UnmarshalJSON dispatches on the kind discriminator.
func (r *StreamingMessageEvent) UnmarshalJSON(data []byte) error {
	switch kind := gjson.GetBytes(data, "kind").String(); kind {
	case KindMessage:
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("failed to unmarshal message: %w", err)
		}
		r.Result = &m
	case KindTask:
		var t Task
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("failed to unmarshal task: %w", err)
		}
		r.Result = &t
	case KindTaskStatusUpdate:
		var e TaskStatusUpdateEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("failed to unmarshal task status update event: %w", err)
		}
		r.Result = &e
	case KindTaskArtifactUpdate:
		var e TaskArtifactUpdateEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("failed to unmarshal task artifact update event: %w", err)
		}
		r.Result = &e
	default:
		return fmt.Errorf("unsupported result kind: %q", kind)
	}
	return nil
}

// PushNotificationAuthenticationInfo describes how the server should
// authenticate to a push notification endpoint.
type PushNotificationAuthenticationInfo struct {
	// Schemes is the list of supported authentication schemes.
	Schemes []string `json:"schemes"`
	// Credentials are the actual authentication credentials.
	Credentials *string `json:"credentials,omitempty"`
}

// PushNotificationConfig represents the configuration for task push
// notifications.
type PushNotificationConfig struct {
	// URL is the endpoint notifications are delivered to.
	URL string `json:"url"`
	// Token is an optional client-supplied opaque token echoed on delivery.
	Token string `json:"token,omitempty"`
	// Authentication describes how to authenticate to the endpoint.
	Authentication *PushNotificationAuthenticationInfo `json:"authentication,omitempty"`
	// Metadata is optional free-form metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// TaskPushNotificationConfig associates a task ID with push notification
// settings.
type TaskPushNotificationConfig struct {
	// RPCID is the ID of the enclosing JSON-RPC request.
	RPCID string `json:"-"`
	// TaskID is the ID of the task the config applies to.
	TaskID string `json:"taskId"`
	// PushNotificationConfig is the delivery target.
	PushNotificationConfig PushNotificationConfig `json:"pushNotificationConfig"`
}

// SendMessageConfiguration defines optional configuration for message
// sending.
type SendMessageConfiguration struct {
	// Blocking requests blocking semantics where supported.
	Blocking *bool `json:"blocking,omitempty"`
	// HistoryLength is the number of history messages to include in results.
	HistoryLength *int `json:"historyLength,omitempty"`
	// PushNotificationConfig optionally sets a push target at send time.
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
	// AcceptedOutputModes lists the output MIME types the client accepts.
	AcceptedOutputModes []string `json:"acceptedOutputModes,omitempty"`
}

// SendMessageParams defines the parameters for the message/send and
// message/stream RPC methods.
type SendMessageParams struct {
	// RPCID is the ID of the enclosing JSON-RPC request.
	RPCID string `json:"-"`
	// Message is the message to send.
	Message Message `json:"message"`
	// Configuration contains optional sending configuration.
	Configuration *SendMessageConfiguration `json:"configuration,omitempty"`
	// Metadata is optional metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// TaskQueryParams defines the parameters for the tasks/get RPC method.
type TaskQueryParams struct {
	// RPCID is the ID of the enclosing JSON-RPC request.
	RPCID string `json:"-"`
	// ID is the ID of the task.
	ID string `json:"id"`
	// HistoryLength is the requested message history length.
	HistoryLength *int `json:"historyLength,omitempty"`
	// Metadata is optional metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// TaskIDParams defines parameters for methods needing only a task ID.
type TaskIDParams struct {
	// RPCID is the ID of the enclosing JSON-RPC request.
	RPCID string `json:"-"`
	// ID is the task ID.
	ID string `json:"id"`
	// Metadata is optional metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewTask creates a new Task in the initial submitted state.
func NewTask(id, contextID string) *Task {
	return &Task{
		ID:        id,
		ContextID: contextID,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: Timestamp(time.Now()),
		},
		Kind: KindTask,
	}
}

// NewMessage creates a new Message with the specified role and parts.
func NewMessage(role MessageRole, parts []Part) Message {
	return Message{
		Role:      role,
		Parts:     parts,
		MessageID: GenerateMessageID(),
		Kind:      KindMessage,
	}
}

// NewMessageWithContext creates a new Message bound to a task and context.
func NewMessageWithContext(role MessageRole, parts []Part, taskID, contextID *string) Message {
	return Message{
		Role:      role,
		Parts:     parts,
		MessageID: GenerateMessageID(),
		TaskID:    taskID,
		ContextID: contextID,
		Kind:      KindMessage,
	}
}

// NewTextPart creates a new TextPart containing the given text.
func NewTextPart(text string) TextPart {
	return TextPart{Kind: KindText, Text: text}
}

// NewFilePartWithBytes creates a new FilePart with embedded base64 content.
func NewFilePartWithBytes(name, mimeType, bytes string) FilePart {
	return FilePart{
		Kind: KindFile,
		File: &FileWithBytes{Name: &name, MimeType: &mimeType, Bytes: bytes},
	}
}

// NewFilePartWithURI creates a new FilePart referencing content by URI.
func NewFilePartWithURI(name, mimeType, uri string) FilePart {
	return FilePart{
		Kind: KindFile,
		File: &FileWithURI{Name: &name, MimeType: &mimeType, URI: uri},
	}
}

// NewDataPart creates a new DataPart with the given data.
func NewDataPart(data map[string]interface{}) DataPart {
	return DataPart{Kind: KindData, Data: data}
}

// NewTaskStatusUpdateEvent creates a new TaskStatusUpdateEvent.
func NewTaskStatusUpdateEvent(taskID, contextID string, status TaskStatus, final bool) TaskStatusUpdateEvent {
	return TaskStatusUpdateEvent{
		TaskID:    taskID,
		ContextID: contextID,
		Kind:      KindTaskStatusUpdate,
		Status:    status,
		Final:     final,
	}
}

// NewTaskArtifactUpdateEvent creates a new TaskArtifactUpdateEvent.
func NewTaskArtifactUpdateEvent(taskID, contextID string, artifact Artifact, append, lastChunk bool) TaskArtifactUpdateEvent {
	return TaskArtifactUpdateEvent{
		TaskID:    taskID,
		ContextID: contextID,
		Kind:      KindTaskArtifactUpdate,
		Artifact:  artifact,
		Append:    &append,
		LastChunk: &lastChunk,
	}
}
