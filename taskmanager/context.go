// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package taskmanager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/a2aserve/a2aserve/log"
	"github.com/a2aserve/a2aserve/protocol"
)

// errAlreadySettled guards the TaskContext after a direct message has
// answered the call: no further transitions, artifacts, or messages.
var errAlreadySettled = errors.New("call already answered by a direct message")

// TaskContext is the surface a MessageHandler works against: it drives the
// task state machine, records artifacts, and fans events out to attached
// stream listeners. One TaskContext serves exactly one inbound message.
//
// Task creation is lazy: no task record exists until the first status or
// artifact call. A handler that only calls SendDirectMessage never creates
// a task.
type TaskContext struct {
	manager     *Manager
	ctx         context.Context
	cancel      context.CancelFunc
	userMessage protocol.Message
	contextID   string
	metadata    map[string]interface{}
	streaming   bool

	// subscriber is the originating listener for streaming calls; nil in
	// blocking mode. It is registered under the task ID once the task
	// materializes.
	subscriber *TaskSubscriber

	mu            sync.Mutex
	taskID        string
	directMessage *protocol.Message
	settled       bool
}

// Context returns the context the handler should honor. It is canceled when
// the task is canceled out of band.
func (tc *TaskContext) Context() context.Context {
	return tc.ctx
}

// IsStreaming reports whether the inbound call is a streaming one.
func (tc *TaskContext) IsStreaming() bool {
	return tc.streaming
}

// TaskID returns the task ID, or an empty string if no task has been
// created yet.
func (tc *TaskContext) TaskID() string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.taskID
}

// ContextID returns the conversation context ID for this call.
func (tc *TaskContext) ContextID() string {
	return tc.contextID
}

// Metadata returns the metadata of the inbound request. May be nil.
func (tc *TaskContext) Metadata() map[string]interface{} {
	return tc.metadata
}

// UserMessage returns the inbound message the handler was invoked for.
func (tc *TaskContext) UserMessage() protocol.Message {
	return tc.userMessage
}

// ExtractUserText concatenates the text parts of the inbound message,
// separated by newlines.
func (tc *TaskContext) ExtractUserText() string {
	var texts []string
	for _, part := range tc.userMessage.Parts {
		if p, ok := part.(protocol.TextPart); ok {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ExtractUserFiles returns the file contents of the inbound message.
func (tc *TaskContext) ExtractUserFiles() []protocol.FileUnion {
	var files []protocol.FileUnion
	for _, part := range tc.userMessage.Parts {
		if p, ok := part.(protocol.FilePart); ok {
			files = append(files, p.File)
		}
	}
	return files
}

// ExtractUserData returns the structured data payloads of the inbound
// message.
func (tc *TaskContext) ExtractUserData() []map[string]interface{} {
	var data []map[string]interface{}
	for _, part := range tc.userMessage.Parts {
		if p, ok := part.(protocol.DataPart); ok {
			data = append(data, p.Data)
		}
	}
	return data
}

// SetWorking transitions the task to working. The text, if non-empty,
// becomes an agent-authored status message.
func (tc *TaskContext) SetWorking(text string) error {
	return tc.updateStatus(protocol.TaskStateWorking, text)
}

// SetInputRequired transitions the task to input-required with a message
// telling the user what is needed.
func (tc *TaskContext) SetInputRequired(text string) error {
	return tc.updateStatus(protocol.TaskStateInputRequired, text)
}

// SetAuthRequired transitions the task to auth-required.
func (tc *TaskContext) SetAuthRequired(text string) error {
	return tc.updateStatus(protocol.TaskStateAuthRequired, text)
}

// SetCompleted transitions the task to the terminal completed state and
// closes all attached listeners.
func (tc *TaskContext) SetCompleted(text string) error {
	return tc.updateStatus(protocol.TaskStateCompleted, text)
}

// SetFailed transitions the task to the terminal failed state and closes
// all attached listeners.
func (tc *TaskContext) SetFailed(text string) error {
	return tc.updateStatus(protocol.TaskStateFailed, text)
}

// SetRejected transitions the task to the terminal rejected state and
// closes all attached listeners.
func (tc *TaskContext) SetRejected(text string) error {
	return tc.updateStatus(protocol.TaskStateRejected, text)
}

// updateStatus applies a handler-initiated state transition. The canceled
// state is reachable only through the out-of-band cancel operation, never
// through here.
func (tc *TaskContext) updateStatus(state protocol.TaskState, text string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.settled {
		return errAlreadySettled
	}
	tc.ensureTaskCreatedLocked()

	var statusMsg *protocol.Message
	if text != "" {
		msg := protocol.NewMessageWithContext(
			protocol.MessageRoleAgent,
			[]protocol.Part{protocol.NewTextPart(text)},
			&tc.taskID, &tc.contextID,
		)
		statusMsg = &msg
	}

	status := protocol.TaskStatus{
		State:     state,
		Message:   statusMsg,
		Timestamp: protocol.Timestamp(tc.manager.now()),
	}

	var updateErr error
	tc.manager.store.Update(tc.taskID, func(task *protocol.Task) {
		if isFinalState(task.Status.State) {
			updateErr = fmt.Errorf("task %s is in terminal state %s and cannot transition to %s",
				task.ID, task.Status.State, state)
			return
		}
		task.Status = status
	})
	if updateErr != nil {
		return updateErr
	}

	log.Debugf("Task %s transitioned to %s", tc.taskID, state)
	tc.manager.metrics.StateTransitions.WithLabelValues(string(state)).Inc()

	final := isFinalState(state)
	if tc.streaming {
		event := protocol.NewTaskStatusUpdateEvent(tc.taskID, tc.contextID, status, final)
		tc.manager.registry.Publish(tc.taskID, protocol.StreamingMessageEvent{Result: &event})
	}
	if final {
		tc.manager.registry.CloseAll(tc.taskID)
		tc.manager.releaseTask(tc.taskID)
	}
	return nil
}

// AddTextArtifact records a text artifact chunk on the task.
func (tc *TaskContext) AddTextArtifact(name, text, description string, append, lastChunk bool) error {
	return tc.addArtifact(name, description, []protocol.Part{protocol.NewTextPart(text)}, append, lastChunk)
}

// AddFileArtifact records a file artifact on the task.
func (tc *TaskContext) AddFileArtifact(name, description string, file protocol.FilePart, append, lastChunk bool) error {
	return tc.addArtifact(name, description, []protocol.Part{file}, append, lastChunk)
}

// AddDataArtifact records a structured data artifact on the task.
func (tc *TaskContext) AddDataArtifact(name, description string, data map[string]interface{}, append, lastChunk bool) error {
	return tc.addArtifact(name, description, []protocol.Part{protocol.NewDataPart(data)}, append, lastChunk)
}

// addArtifact appends or replaces an artifact entry on the task and, in
// streaming mode, publishes an artifact update event.
//
// Artifact identity is derived from the name: with append=true the ID is
// the stable slug of the name, so a later chunk with the same name replaces
// the earlier entry; with append=false a fresh suffix is added and a new
// entry is always created.
func (tc *TaskContext) addArtifact(name, description string, parts []protocol.Part, append, lastChunk bool) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.settled {
		return errAlreadySettled
	}
	tc.ensureTaskCreatedLocked()

	artifact := protocol.Artifact{
		ArtifactID: artifactID(name, append),
		Name:       &name,
		Parts:      parts,
	}
	if description != "" {
		artifact.Description = &description
	}

	var updateErr error
	tc.manager.store.Update(tc.taskID, func(task *protocol.Task) {
		if isFinalState(task.Status.State) {
			updateErr = fmt.Errorf("task %s is in terminal state %s and cannot accept artifacts",
				task.ID, task.Status.State)
			return
		}
		if append {
			for i := range task.Artifacts {
				if task.Artifacts[i].ArtifactID == artifact.ArtifactID {
					task.Artifacts[i] = artifact
					return
				}
			}
		}
		task.Artifacts = appendArtifact(task.Artifacts, artifact)
	})
	if updateErr != nil {
		return updateErr
	}

	log.Debugf("Added artifact %s to task %s", artifact.ArtifactID, tc.taskID)
	if tc.streaming {
		event := protocol.NewTaskArtifactUpdateEvent(tc.taskID, tc.contextID, artifact, append, lastChunk)
		tc.manager.registry.Publish(tc.taskID, protocol.StreamingMessageEvent{Result: &event})
	}
	return nil
}

// SendDirectMessage answers the inbound message without going through the
// task system. In blocking mode the message becomes the whole response; in
// streaming mode it is delivered as a single message event and the stream
// ends immediately after.
func (tc *TaskContext) SendDirectMessage(text string, data map[string]interface{}) error {
	if text == "" && data == nil {
		return fmt.Errorf("direct message needs text or data")
	}
	var parts []protocol.Part
	if text != "" {
		parts = append(parts, protocol.NewTextPart(text))
	}
	if data != nil {
		parts = append(parts, protocol.NewDataPart(data))
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.settled {
		return errAlreadySettled
	}

	var taskID *string
	if tc.taskID != "" {
		taskID = &tc.taskID
	}
	msg := protocol.NewMessageWithContext(protocol.MessageRoleAgent, parts, taskID, &tc.contextID)
	if tc.taskID != "" {
		tc.manager.store.AppendHistory(tc.taskID, msg)
	}

	if !tc.streaming {
		tc.directMessage = &msg
		tc.settled = true
		return nil
	}

	event := protocol.StreamingMessageEvent{Result: &msg}
	if tc.taskID != "" {
		tc.manager.registry.Publish(tc.taskID, event)
		tc.manager.registry.CloseAll(tc.taskID)
	} else if tc.subscriber != nil {
		if err := tc.subscriber.Send(event); err != nil {
			return err
		}
		tc.subscriber.Close()
	}
	tc.settled = true
	return nil
}

// ensureTaskCreatedLocked materializes the task record on the first status
// or artifact call: stores the submitted task, records the originating user
// message in history, registers the per-task cancel hook, attaches the
// originating listener, and publishes the submitted snapshot as the first
// stream event. Callers must hold tc.mu.
func (tc *TaskContext) ensureTaskCreatedLocked() {
	if tc.taskID != "" {
		return
	}
	taskID := protocol.GenerateTaskID()
	tc.taskID = taskID

	task := protocol.NewTask(taskID, tc.contextID)
	task.Metadata = tc.metadata
	task.Status.Timestamp = protocol.Timestamp(tc.manager.now())
	tc.manager.store.Put(*task)

	userMsg := tc.userMessage
	userMsg.TaskID = &taskID
	tc.manager.store.AppendHistory(taskID, userMsg)

	tc.manager.bindTask(taskID, tc.cancel)
	tc.manager.metrics.TasksCreated.Inc()
	log.Debugf("Created task %s in context %s", taskID, tc.contextID)

	if tc.streaming && tc.subscriber != nil {
		tc.subscriber.bind(taskID)
		tc.manager.registry.Register(taskID, tc.subscriber)
		snapshot, ok := tc.manager.store.Snapshot(taskID, 0)
		if ok {
			tc.manager.registry.Publish(taskID, protocol.StreamingMessageEvent{Result: snapshot})
		}
	}
}

// isSettled reports whether a direct message already answered the call.
func (tc *TaskContext) isSettled() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.settled
}

func (tc *TaskContext) directResult() *protocol.Message {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.directMessage
}

// artifactID derives an artifact ID from the artifact name. Append mode
// uses the bare slug so successive chunks with the same name share one
// identity; otherwise a random suffix keeps entries distinct.
func artifactID(name string, append bool) string {
	slug := slugify(name)
	if slug == "" {
		slug = "artifact"
	}
	if append {
		return slug
	}
	return slug + "-" + uuid.New().String()[:8]
}

// slugify lowercases the name and collapses every non-alphanumeric run
// into a single dash.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// appendArtifact adds an artifact entry, named to avoid shadowing the
// builtin append inside Update closures.
func appendArtifact(list []protocol.Artifact, artifact protocol.Artifact) []protocol.Artifact {
	return append(list, artifact)
}
