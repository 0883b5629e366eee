// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package protocol

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestPartKindStamping(t *testing.T) {
	tests := []struct {
		name string
		part Part
		kind string
	}{
		{name: "text part", part: NewTextPart("hello"), kind: KindText},
		{name: "file part with bytes", part: NewFilePartWithBytes("f.txt", "text/plain", "aGVsbG8="), kind: KindFile},
		{name: "file part with uri", part: NewFilePartWithURI("f.txt", "text/plain", "https://example.com/f.txt"), kind: KindFile},
		{name: "data part", part: NewDataPart(map[string]interface{}{"k": "v"}), kind: KindData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.part)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, gjson.GetBytes(data, "kind").String())
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	taskID := "task-123"
	contextID := "ctx-456"
	original := NewMessageWithContext(MessageRoleUser, []Part{
		NewTextPart("analyze this"),
		NewFilePartWithBytes("input.csv", "text/csv", "YSxiCjEsMg=="),
		NewDataPart(map[string]interface{}{"threshold": "0.5"}),
	}, &taskID, &contextID)

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, KindMessage, gjson.GetBytes(data, "kind").String())

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded.Parts, 3)
	text, ok := decoded.Parts[0].(TextPart)
	require.True(t, ok, "first part should decode as TextPart")
	assert.Equal(t, "analyze this", text.Text)

	file, ok := decoded.Parts[1].(FilePart)
	require.True(t, ok, "second part should decode as FilePart")
	withBytes, ok := file.File.(*FileWithBytes)
	require.True(t, ok, "file union should decode as FileWithBytes")
	assert.Equal(t, "YSxiCjEsMg==", withBytes.Bytes)

	dataPart, ok := decoded.Parts[2].(DataPart)
	require.True(t, ok, "third part should decode as DataPart")
	assert.Equal(t, "0.5", dataPart.Data["threshold"])

	assert.Equal(t, original.MessageID, decoded.MessageID)
	require.NotNil(t, decoded.TaskID)
	assert.Equal(t, taskID, *decoded.TaskID)
	require.NotNil(t, decoded.ContextID)
	assert.Equal(t, contextID, *decoded.ContextID)
}

func TestFilePartURIRoundTrip(t *testing.T) {
	original := NewFilePartWithURI("report.pdf", "application/pdf", "https://example.com/report.pdf")

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded FilePart
	require.NoError(t, json.Unmarshal(data, &decoded))

	withURI, ok := decoded.File.(*FileWithURI)
	require.True(t, ok, "file union should decode as FileWithURI")
	assert.Equal(t, "https://example.com/report.pdf", withURI.URI)
	require.NotNil(t, withURI.MimeType)
	assert.Equal(t, "application/pdf", *withURI.MimeType)
}

func TestUnmarshalPartUnknownKind(t *testing.T) {
	var msg Message
	err := json.Unmarshal([]byte(`{
		"role": "user",
		"messageId": "msg-1",
		"kind": "message",
		"parts": [{"kind": "video", "uri": "https://example.com/clip"}]
	}`), &msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video")
}

func TestTaskRoundTrip(t *testing.T) {
	task := NewTask("task-1", "ctx-1")
	task.Status = TaskStatus{State: TaskStateWorking, Timestamp: task.Status.Timestamp}
	name := "result"
	task.Artifacts = []Artifact{{
		ArtifactID: "result",
		Name:       &name,
		Parts:      []Part{NewTextPart("partial output")},
	}}
	task.History = []Message{NewMessage(MessageRoleUser, []Part{NewTextPart("go")})}

	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Equal(t, KindTask, gjson.GetBytes(data, "kind").String())

	var decoded Task
	require.NoError(t, json.Unmarshal(data, &decoded))

	if diff := cmp.Diff(*task, decoded); diff != "" {
		t.Errorf("task round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamingMessageEventDispatch(t *testing.T) {
	status := TaskStatus{State: TaskStateCompleted, Timestamp: "2025-01-02T03:04:05Z"}
	statusEvent := NewTaskStatusUpdateEvent("task-1", "ctx-1", status, true)
	artifactEvent := NewTaskArtifactUpdateEvent("task-1", "ctx-1",
		Artifact{ArtifactID: "a1", Parts: []Part{NewTextPart("chunk")}}, false, true)
	message := NewMessage(MessageRoleAgent, []Part{NewTextPart("direct answer")})
	task := NewTask("task-1", "ctx-1")

	tests := []struct {
		name   string
		event  StreamingMessageEvent
		verify func(t *testing.T, result StreamingMessageResult)
	}{
		{
			name:  "status update",
			event: StreamingMessageEvent{Result: &statusEvent},
			verify: func(t *testing.T, result StreamingMessageResult) {
				e, ok := result.(*TaskStatusUpdateEvent)
				require.True(t, ok)
				assert.Equal(t, TaskStateCompleted, e.Status.State)
				assert.True(t, e.IsFinal())
			},
		},
		{
			name:  "artifact update",
			event: StreamingMessageEvent{Result: &artifactEvent},
			verify: func(t *testing.T, result StreamingMessageResult) {
				e, ok := result.(*TaskArtifactUpdateEvent)
				require.True(t, ok)
				assert.Equal(t, "a1", e.Artifact.ArtifactID)
				assert.True(t, e.IsFinal())
			},
		},
		{
			name:  "message",
			event: StreamingMessageEvent{Result: &message},
			verify: func(t *testing.T, result StreamingMessageResult) {
				m, ok := result.(*Message)
				require.True(t, ok)
				assert.Equal(t, MessageRoleAgent, m.Role)
			},
		},
		{
			name:  "task",
			event: StreamingMessageEvent{Result: task},
			verify: func(t *testing.T, result StreamingMessageResult) {
				decoded, ok := result.(*Task)
				require.True(t, ok)
				assert.Equal(t, TaskStateSubmitted, decoded.Status.State)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			require.NoError(t, err)

			var decoded StreamingMessageEvent
			require.NoError(t, json.Unmarshal(data, &decoded))
			tt.verify(t, decoded.Result)
		})
	}
}

func TestMessageResultDispatch(t *testing.T) {
	t.Run("task result", func(t *testing.T) {
		task := NewTask("task-9", "ctx-9")
		data, err := json.Marshal(MessageResult{Result: task})
		require.NoError(t, err)

		var decoded MessageResult
		require.NoError(t, json.Unmarshal(data, &decoded))
		result, ok := decoded.Result.(*Task)
		require.True(t, ok)
		assert.Equal(t, "task-9", result.ID)
	})

	t.Run("message result", func(t *testing.T) {
		message := NewMessage(MessageRoleAgent, []Part{NewTextPart("42")})
		data, err := json.Marshal(MessageResult{Result: message})
		require.NoError(t, err)

		var decoded MessageResult
		require.NoError(t, json.Unmarshal(data, &decoded))
		result, ok := decoded.Result.(*Message)
		require.True(t, ok)
		assert.Equal(t, message.MessageID, result.MessageID)
	})

	t.Run("unsupported kind", func(t *testing.T) {
		var decoded MessageResult
		err := json.Unmarshal([]byte(`{"kind":"status-update"}`), &decoded)
		require.Error(t, err)
	})
}

func TestTaskArtifactUpdateEventIsFinal(t *testing.T) {
	event := NewTaskArtifactUpdateEvent("t", "c", Artifact{ArtifactID: "a"}, true, false)
	assert.False(t, event.IsFinal())

	event.LastChunk = nil
	assert.False(t, event.IsFinal())

	last := true
	event.LastChunk = &last
	assert.True(t, event.IsFinal())
}

func TestGenerateIDs(t *testing.T) {
	assert.True(t, len(GenerateMessageID()) > len("msg-"))
	assert.True(t, len(GenerateTaskID()) > len("task-"))
	assert.True(t, len(GenerateContextID()) > len("ctx-"))
	assert.True(t, len(GenerateArtifactID()) > len("artifact-"))
	assert.NotEqual(t, GenerateTaskID(), GenerateTaskID())
}
