// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2aserve/a2aserve/internal/jsonrpc"
	"github.com/a2aserve/a2aserve/internal/sse"
	"github.com/a2aserve/a2aserve/protocol"
	"github.com/a2aserve/a2aserve/taskmanager"
)

func boolPtr(b bool) *bool { return &b }

func testAgentCard(streaming, push bool) AgentCard {
	desc := "test agent"
	return AgentCard{
		Name:        "test-agent",
		Description: &desc,
		URL:         "http://localhost:8080/",
		Version:     "0.1.0",
		Capabilities: AgentCapabilities{
			Streaming:         boolPtr(streaming),
			PushNotifications: boolPtr(push),
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
	}
}

func echoManager(t *testing.T) *taskmanager.Manager {
	t.Helper()
	manager, err := taskmanager.NewManager(taskmanager.MessageHandlerFunc(
		func(ctx context.Context, tc *taskmanager.TaskContext) error {
			if err := tc.SetWorking(""); err != nil {
				return err
			}
			return tc.AddTextArtifact("echo", tc.ExtractUserText(), "", false, true)
		}))
	require.NoError(t, err)
	return manager
}

func newTestServer(t *testing.T, card AgentCard, manager taskmanager.TaskManager, opts ...Option) *httptest.Server {
	t.Helper()
	a2aServer, err := NewA2AServer(card, manager, opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(a2aServer.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postRPC(t *testing.T, url, method string, params interface{}) *http.Response {
	t.Helper()
	paramsBytes, err := json.Marshal(params)
	require.NoError(t, err)
	request := jsonrpc.NewRequest(method, "req-1")
	request.Params = paramsBytes
	body, err := json.Marshal(request)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeRPC(t *testing.T, resp *http.Response) jsonrpc.RawResponse {
	t.Helper()
	defer resp.Body.Close()
	var rpcResp jsonrpc.RawResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	return rpcResp
}

func sendParams(text string) protocol.SendMessageParams {
	return protocol.SendMessageParams{
		Message: protocol.NewMessage(protocol.MessageRoleUser,
			[]protocol.Part{protocol.NewTextPart(text)}),
	}
}

func TestServerAgentCard(t *testing.T) {
	ts := newTestServer(t, testAgentCard(true, false), echoManager(t))

	for _, path := range []string{protocol.AgentCardPath, protocol.OldAgentCardPath} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var card AgentCard
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
		resp.Body.Close()
		assert.Equal(t, "test-agent", card.Name)
		require.NotNil(t, card.Description)
		assert.Equal(t, "test agent", *card.Description)
		assert.True(t, card.StreamingEnabled())
		assert.False(t, card.PushNotificationsEnabled())
	}
}

func TestServerMessageSend(t *testing.T) {
	ts := newTestServer(t, testAgentCard(true, false), echoManager(t))

	resp := postRPC(t, ts.URL, protocol.MethodMessageSend, sendParams("ping"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rpcResp := decodeRPC(t, resp)
	require.Nil(t, rpcResp.Error)

	var result protocol.MessageResult
	require.NoError(t, json.Unmarshal(rpcResp.Result, &result))
	task, ok := result.Result.(*protocol.Task)
	require.True(t, ok)
	assert.Equal(t, protocol.TaskStateCompleted, task.Status.State)
	require.Len(t, task.Artifacts, 1)
	text := task.Artifacts[0].Parts[0].(protocol.TextPart)
	assert.Equal(t, "ping", text.Text)
}

func TestServerMessageStream(t *testing.T) {
	ts := newTestServer(t, testAgentCard(true, false), echoManager(t))

	paramsBytes, err := json.Marshal(sendParams("stream me"))
	require.NoError(t, err)
	request := jsonrpc.NewRequest(protocol.MethodMessageStream, "stream-1")
	request.Params = paramsBytes
	body, err := json.Marshal(request)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var kinds []string
	reader := sse.NewEventReader(resp.Body)
	for {
		data, eventType, err := reader.ReadEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if len(data) == 0 {
			continue
		}
		if eventType == protocol.EventClose {
			break
		}
		var envelope jsonrpc.RawResponse
		require.NoError(t, json.Unmarshal(data, &envelope))
		require.Nil(t, envelope.Error)
		kinds = append(kinds, eventType)
	}

	// Snapshot, working, the artifact, and the final auto-complete status.
	require.Equal(t, []string{
		protocol.EventTask,
		protocol.EventStatusUpdate,
		protocol.EventArtifactUpdate,
		protocol.EventStatusUpdate,
	}, kinds)
}

func TestServerStreamingDisabled(t *testing.T) {
	ts := newTestServer(t, testAgentCard(false, false), echoManager(t))

	resp := postRPC(t, ts.URL, protocol.MethodMessageStream, sendParams("nope"))
	rpcResp := decodeRPC(t, resp)
	require.NotNil(t, rpcResp.Error)
	assert.Equal(t, taskmanager.ErrCodeUnsupportedOperation, rpcResp.Error.Code)

	resp = postRPC(t, ts.URL, protocol.MethodTasksResubscribe, protocol.TaskIDParams{ID: "task-1"})
	rpcResp = decodeRPC(t, resp)
	require.NotNil(t, rpcResp.Error)
	assert.Equal(t, taskmanager.ErrCodeUnsupportedOperation, rpcResp.Error.Code)
}

func TestServerPushNotificationsDisabled(t *testing.T) {
	ts := newTestServer(t, testAgentCard(true, false), echoManager(t))

	resp := postRPC(t, ts.URL, protocol.MethodTasksPushNotificationConfigSet,
		protocol.TaskPushNotificationConfig{
			TaskID:                 "task-1",
			PushNotificationConfig: protocol.PushNotificationConfig{URL: "https://example.com/hook"},
		})
	rpcResp := decodeRPC(t, resp)
	require.NotNil(t, rpcResp.Error)
	assert.Equal(t, taskmanager.ErrCodePushNotificationNotSupported, rpcResp.Error.Code)

	resp = postRPC(t, ts.URL, protocol.MethodTasksPushNotificationConfigGet,
		protocol.TaskIDParams{ID: "task-1"})
	rpcResp = decodeRPC(t, resp)
	require.NotNil(t, rpcResp.Error)
	assert.Equal(t, taskmanager.ErrCodePushNotificationNotSupported, rpcResp.Error.Code)
}

func TestServerTaskLifecycleOverRPC(t *testing.T) {
	manager := echoManager(t)
	ts := newTestServer(t, testAgentCard(true, true), manager)

	// Create a task through a blocking send.
	resp := postRPC(t, ts.URL, protocol.MethodMessageSend, sendParams("hello"))
	rpcResp := decodeRPC(t, resp)
	require.Nil(t, rpcResp.Error)
	var result protocol.MessageResult
	require.NoError(t, json.Unmarshal(rpcResp.Result, &result))
	taskID := result.Result.(*protocol.Task).ID

	t.Run("tasks/get", func(t *testing.T) {
		resp := postRPC(t, ts.URL, protocol.MethodTasksGet, protocol.TaskQueryParams{ID: taskID})
		rpcResp := decodeRPC(t, resp)
		require.Nil(t, rpcResp.Error)
		var task protocol.Task
		require.NoError(t, json.Unmarshal(rpcResp.Result, &task))
		assert.Equal(t, taskID, task.ID)
		assert.Equal(t, protocol.TaskStateCompleted, task.Status.State)
	})

	t.Run("tasks/get not found", func(t *testing.T) {
		resp := postRPC(t, ts.URL, protocol.MethodTasksGet, protocol.TaskQueryParams{ID: "missing"})
		rpcResp := decodeRPC(t, resp)
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, taskmanager.ErrCodeTaskNotFound, rpcResp.Error.Code)
	})

	t.Run("tasks/cancel terminal task", func(t *testing.T) {
		resp := postRPC(t, ts.URL, protocol.MethodTasksCancel, protocol.TaskIDParams{ID: taskID})
		rpcResp := decodeRPC(t, resp)
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, taskmanager.ErrCodeTaskNotCancelable, rpcResp.Error.Code)
	})

	t.Run("push config roundtrip", func(t *testing.T) {
		resp := postRPC(t, ts.URL, protocol.MethodTasksPushNotificationConfigSet,
			protocol.TaskPushNotificationConfig{
				TaskID:                 taskID,
				PushNotificationConfig: protocol.PushNotificationConfig{URL: "https://example.com/hook"},
			})
		rpcResp := decodeRPC(t, resp)
		require.Nil(t, rpcResp.Error)

		resp = postRPC(t, ts.URL, protocol.MethodTasksPushNotificationConfigGet,
			protocol.TaskIDParams{ID: taskID})
		rpcResp = decodeRPC(t, resp)
		require.Nil(t, rpcResp.Error)
		var config protocol.TaskPushNotificationConfig
		require.NoError(t, json.Unmarshal(rpcResp.Result, &config))
		assert.Equal(t, "https://example.com/hook", config.PushNotificationConfig.URL)
	})

	t.Run("push config not found", func(t *testing.T) {
		resp := postRPC(t, ts.URL, protocol.MethodTasksPushNotificationConfigGet,
			protocol.TaskIDParams{ID: "missing"})
		rpcResp := decodeRPC(t, resp)
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, taskmanager.ErrCodeTaskNotFound, rpcResp.Error.Code)
	})

	t.Run("tasks/resubscribe terminal task", func(t *testing.T) {
		paramsBytes, err := json.Marshal(protocol.TaskIDParams{ID: taskID})
		require.NoError(t, err)
		request := jsonrpc.NewRequest(protocol.MethodTasksResubscribe, "resub-1")
		request.Params = paramsBytes
		body, err := json.Marshal(request)
		require.NoError(t, err)

		resp, err := http.Post(ts.URL, "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

		reader := sse.NewEventReader(resp.Body)
		data, eventType, err := reader.ReadEvent()
		require.NoError(t, err)
		assert.Equal(t, protocol.EventTask, eventType)

		var envelope jsonrpc.RawResponse
		require.NoError(t, json.Unmarshal(data, &envelope))
		var task protocol.Task
		require.NoError(t, json.Unmarshal(envelope.Result, &task))
		assert.Equal(t, taskID, task.ID)
		assert.Equal(t, protocol.TaskStateCompleted, task.Status.State)
	})
}

func TestServerRequestValidation(t *testing.T) {
	ts := newTestServer(t, testAgentCard(true, false), echoManager(t))

	t.Run("wrong http method", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut, ts.URL, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		rpcResp := decodeRPC(t, resp)
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, jsonrpc.CodeMethodNotFound, rpcResp.Error.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		resp, err := http.Post(ts.URL, "text/plain", bytes.NewReader([]byte("{}")))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		rpcResp := decodeRPC(t, resp)
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, jsonrpc.CodeInvalidRequest, rpcResp.Error.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		resp, err := http.Post(ts.URL, "application/json", bytes.NewReader([]byte("{not json")))
		require.NoError(t, err)
		rpcResp := decodeRPC(t, resp)
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, jsonrpc.CodeParseError, rpcResp.Error.Code)
	})

	t.Run("wrong jsonrpc version", func(t *testing.T) {
		resp, err := http.Post(ts.URL, "application/json",
			bytes.NewReader([]byte(`{"jsonrpc":"1.0","id":"x","method":"message/send"}`)))
		require.NoError(t, err)
		rpcResp := decodeRPC(t, resp)
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, jsonrpc.CodeInvalidRequest, rpcResp.Error.Code)
	})

	t.Run("unknown method", func(t *testing.T) {
		resp := postRPC(t, ts.URL, "tasks/describe", struct{}{})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		rpcResp := decodeRPC(t, resp)
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, jsonrpc.CodeMethodNotFound, rpcResp.Error.Code)
	})
}

func TestServerAuthenticatedExtendedCard(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		ts := newTestServer(t, testAgentCard(true, false), echoManager(t))

		resp := postRPC(t, ts.URL, protocol.MethodAgentAuthenticatedExtendedCard, struct{}{})
		rpcResp := decodeRPC(t, resp)
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, taskmanager.ErrCodeAuthenticatedExtendedCardNotConfigured, rpcResp.Error.Code)
	})

	t.Run("configured with handler", func(t *testing.T) {
		card := testAgentCard(true, false)
		card.SupportsAuthenticatedExtendedCard = boolPtr(true)

		ts := newTestServer(t, card, echoManager(t),
			WithAuthenticatedExtendedCardHandler(
				func(ctx context.Context, baseCard AgentCard) (AgentCard, error) {
					baseCard.Name = baseCard.Name + "-extended"
					return baseCard, nil
				}))

		resp := postRPC(t, ts.URL, protocol.MethodAgentAuthenticatedExtendedCard, struct{}{})
		rpcResp := decodeRPC(t, resp)
		require.Nil(t, rpcResp.Error)

		var extended AgentCard
		require.NoError(t, json.Unmarshal(rpcResp.Result, &extended))
		assert.Equal(t, "test-agent-extended", extended.Name)
	})

	t.Run("handler error", func(t *testing.T) {
		card := testAgentCard(true, false)
		card.SupportsAuthenticatedExtendedCard = boolPtr(true)

		ts := newTestServer(t, card, echoManager(t),
			WithAuthenticatedExtendedCardHandler(
				func(ctx context.Context, baseCard AgentCard) (AgentCard, error) {
					return AgentCard{}, fmt.Errorf("directory lookup failed")
				}))

		resp := postRPC(t, ts.URL, protocol.MethodAgentAuthenticatedExtendedCard, struct{}{})
		rpcResp := decodeRPC(t, resp)
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, jsonrpc.CodeInternalError, rpcResp.Error.Code)
	})
}

func TestServerBasePathFromCardURL(t *testing.T) {
	card := testAgentCard(true, false)
	card.URL = "http://localhost:8080/agents/echo"

	ts := newTestServer(t, card, echoManager(t))

	resp, err := http.Get(ts.URL + "/agents/echo" + protocol.AgentCardPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2 := postRPC(t, ts.URL+"/agents/echo/", protocol.MethodMessageSend, sendParams("ping"))
	rpcResp := decodeRPC(t, resp2)
	require.Nil(t, rpcResp.Error)
}

func TestExtractBasePathFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "http://localhost:8080/", want: ""},
		{url: "http://localhost:8080", want: ""},
		{url: "http://localhost:8080/agent", want: "/agent"},
		{url: "http://localhost:8080/agent/api/v2/", want: "/agent/api/v2"},
		{url: "not-a-url", want: ""},
		{url: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractBasePathFromURL(tt.url), "url=%q", tt.url)
	}
}
