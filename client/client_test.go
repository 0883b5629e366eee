// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2aserve/a2aserve/internal/jsonrpc"
	"github.com/a2aserve/a2aserve/protocol"
	"github.com/a2aserve/a2aserve/server"
)

// mockRPCServer returns a test server that checks the incoming JSON-RPC
// method and replies with the given body, status, and headers.
func mockRPCServer(t *testing.T, wantMethod, body string, status int, headers map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, wantMethod, req.Method)
		assert.Equal(t, jsonrpc.Version, req.JSONRPC)

		for key, value := range headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

var sseHeaders = map[string]string{
	"Content-Type":  "text/event-stream",
	"Cache-Control": "no-cache",
	"Connection":    "keep-alive",
}

func TestNewA2AClientValidation(t *testing.T) {
	_, err := NewA2AClient("")
	require.Error(t, err)

	_, err = NewA2AClient("not a url")
	require.Error(t, err)

	client, err := NewA2AClient("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/", client.baseURL.String())
}

func TestClientSendMessage(t *testing.T) {
	t.Run("task result", func(t *testing.T) {
		task := protocol.NewTask("task-1", "ctx-1")
		task.Status.State = protocol.TaskStateCompleted
		resultBytes, err := json.Marshal(task)
		require.NoError(t, err)
		body := fmt.Sprintf(`{"jsonrpc":"2.0","id":"req-1","result":%s}`, resultBytes)

		ts := mockRPCServer(t, protocol.MethodMessageSend, body, http.StatusOK, nil)
		client, err := NewA2AClient(ts.URL)
		require.NoError(t, err)

		result, err := client.SendMessage(context.Background(), protocol.SendMessageParams{
			Message: protocol.NewMessage(protocol.MessageRoleUser,
				[]protocol.Part{protocol.NewTextPart("hi")}),
		})
		require.NoError(t, err)
		got, ok := result.Result.(*protocol.Task)
		require.True(t, ok)
		assert.Equal(t, "task-1", got.ID)
		assert.Equal(t, protocol.TaskStateCompleted, got.Status.State)
	})

	t.Run("json-rpc error", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":"req-1","error":{"code":-32001,"message":"task not found"}}`
		ts := mockRPCServer(t, protocol.MethodMessageSend, body, http.StatusOK, nil)
		client, err := NewA2AClient(ts.URL)
		require.NoError(t, err)

		_, err = client.SendMessage(context.Background(), protocol.SendMessageParams{
			Message: protocol.NewMessage(protocol.MessageRoleUser,
				[]protocol.Part{protocol.NewTextPart("hi")}),
		})
		require.Error(t, err)
		rpcErr, ok := err.(*jsonrpc.Error)
		require.True(t, ok)
		assert.Equal(t, -32001, rpcErr.Code)
	})
}

func TestClientGetTasks(t *testing.T) {
	task := protocol.NewTask("task-get-1", "ctx-1")
	resultBytes, err := json.Marshal(task)
	require.NoError(t, err)
	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":"req-1","result":%s}`, resultBytes)

	ts := mockRPCServer(t, protocol.MethodTasksGet, body, http.StatusOK, nil)
	client, err := NewA2AClient(ts.URL)
	require.NoError(t, err)

	got, err := client.GetTasks(context.Background(), protocol.TaskQueryParams{ID: "task-get-1"})
	require.NoError(t, err)
	assert.Equal(t, "task-get-1", got.ID)
}

func TestClientCancelTasks(t *testing.T) {
	task := protocol.NewTask("task-cancel-1", "ctx-1")
	task.Status.State = protocol.TaskStateCanceled
	resultBytes, err := json.Marshal(task)
	require.NoError(t, err)
	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":"req-1","result":%s}`, resultBytes)

	ts := mockRPCServer(t, protocol.MethodTasksCancel, body, http.StatusOK, nil)
	client, err := NewA2AClient(ts.URL)
	require.NoError(t, err)

	got, err := client.CancelTasks(context.Background(), protocol.TaskIDParams{ID: "task-cancel-1"})
	require.NoError(t, err)
	assert.Equal(t, protocol.TaskStateCanceled, got.Status.State)
}

func TestClientPushNotificationConfig(t *testing.T) {
	config := protocol.TaskPushNotificationConfig{
		TaskID:                 "task-1",
		PushNotificationConfig: protocol.PushNotificationConfig{URL: "https://example.com/hook"},
	}
	resultBytes, err := json.Marshal(config)
	require.NoError(t, err)
	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":"req-1","result":%s}`, resultBytes)

	t.Run("set", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req jsonrpc.Request
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, protocol.MethodTasksPushNotificationConfigSet, req.Method)
			// The request ID carrier must stay out of the wire params.
			assert.NotContains(t, string(req.Params), "rpc-55")
			assert.Equal(t, "rpc-55", req.ID)
			_, _ = w.Write([]byte(body))
		}))
		defer ts.Close()
		client, err := NewA2AClient(ts.URL)
		require.NoError(t, err)

		withID := config
		withID.RPCID = "rpc-55"
		got, err := client.SetPushNotification(context.Background(), withID)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/hook", got.PushNotificationConfig.URL)
	})

	t.Run("get", func(t *testing.T) {
		ts := mockRPCServer(t, protocol.MethodTasksPushNotificationConfigGet, body, http.StatusOK, nil)
		client, err := NewA2AClient(ts.URL)
		require.NoError(t, err)

		got, err := client.GetPushNotification(context.Background(), protocol.TaskIDParams{ID: "task-1"})
		require.NoError(t, err)
		assert.Equal(t, "task-1", got.TaskID)
	})
}

func streamBody(t *testing.T, taskID string) string {
	t.Helper()
	working, err := json.Marshal(protocol.NewTaskStatusUpdateEvent(taskID, "ctx-1",
		protocol.TaskStatus{State: protocol.TaskStateWorking}, false))
	require.NoError(t, err)
	artifact, err := json.Marshal(protocol.NewTaskArtifactUpdateEvent(taskID, "ctx-1",
		protocol.Artifact{ArtifactID: "a1", Parts: []protocol.Part{protocol.NewTextPart("chunk")}},
		false, true))
	require.NoError(t, err)
	completed, err := json.Marshal(protocol.NewTaskStatusUpdateEvent(taskID, "ctx-1",
		protocol.TaskStatus{State: protocol.TaskStateCompleted}, true))
	require.NoError(t, err)

	envelope := func(result []byte) string {
		return fmt.Sprintf(`{"jsonrpc":"2.0","id":"req-1","result":%s}`, result)
	}
	return fmt.Sprintf("event: task_status_update\ndata: %s\n\n"+
		"event: task_artifact_update\ndata: %s\n\n"+
		"event: task_status_update\ndata: %s\n\n",
		envelope(working), envelope(artifact), envelope(completed))
}

func collectStream(t *testing.T, ch <-chan protocol.StreamingMessageEvent) []protocol.StreamingMessageEvent {
	t.Helper()
	var events []protocol.StreamingMessageEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, event)
		case <-timeout:
			t.Fatal("timed out waiting for stream events")
		}
	}
}

func TestClientStreamMessage(t *testing.T) {
	ts := mockRPCServer(t, protocol.MethodMessageStream, streamBody(t, "task-s1"), http.StatusOK, sseHeaders)
	client, err := NewA2AClient(ts.URL)
	require.NoError(t, err)

	ch, err := client.StreamMessage(context.Background(), protocol.SendMessageParams{
		Message: protocol.NewMessage(protocol.MessageRoleUser,
			[]protocol.Part{protocol.NewTextPart("stream")}),
	})
	require.NoError(t, err)

	events := collectStream(t, ch)
	require.Len(t, events, 3)

	working, ok := events[0].Result.(*protocol.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, protocol.TaskStateWorking, working.Status.State)
	assert.False(t, working.IsFinal())

	artifact, ok := events[1].Result.(*protocol.TaskArtifactUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, "a1", artifact.Artifact.ArtifactID)

	completed, ok := events[2].Result.(*protocol.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.True(t, completed.IsFinal())
}

func TestClientResubscribeTask(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ts := mockRPCServer(t, protocol.MethodTasksResubscribe, streamBody(t, "task-r1"), http.StatusOK, sseHeaders)
		client, err := NewA2AClient(ts.URL)
		require.NoError(t, err)

		ch, err := client.ResubscribeTask(context.Background(), protocol.TaskIDParams{ID: "task-r1"})
		require.NoError(t, err)
		events := collectStream(t, ch)
		require.Len(t, events, 3)
	})

	t.Run("error envelope ends stream", func(t *testing.T) {
		working, err := json.Marshal(protocol.NewTaskStatusUpdateEvent("task-r2", "ctx-1",
			protocol.TaskStatus{State: protocol.TaskStateWorking}, false))
		require.NoError(t, err)
		body := fmt.Sprintf("event: task_status_update\ndata: {\"jsonrpc\":\"2.0\",\"id\":\"req-1\",\"result\":%s}\n\n"+
			"event: task_status_update\ndata: {\"jsonrpc\":\"2.0\",\"id\":\"req-1\",\"error\":{\"code\":-32001,\"message\":\"task not found\"}}\n\n"+
			"event: task_status_update\ndata: {\"jsonrpc\":\"2.0\",\"id\":\"req-1\",\"result\":%s}\n\n",
			working, working)

		ts := mockRPCServer(t, protocol.MethodTasksResubscribe, body, http.StatusOK, sseHeaders)
		client, err := NewA2AClient(ts.URL)
		require.NoError(t, err)

		ch, err := client.ResubscribeTask(context.Background(), protocol.TaskIDParams{ID: "task-r2"})
		require.NoError(t, err)

		// The error envelope terminates the stream: one event, then the
		// error, nothing after.
		events := collectStream(t, ch)
		require.Len(t, events, 2)
		assert.NotNil(t, events[0].Result)
		require.Error(t, events[1].Err)
		var rpcErr *jsonrpc.Error
		require.ErrorAs(t, events[1].Err, &rpcErr)
		assert.Equal(t, -32001, rpcErr.Code)
	})

	t.Run("http error", func(t *testing.T) {
		ts := mockRPCServer(t, protocol.MethodTasksResubscribe, "Not Found", http.StatusNotFound, nil)
		client, err := NewA2AClient(ts.URL)
		require.NoError(t, err)

		ch, err := client.ResubscribeTask(context.Background(), protocol.TaskIDParams{ID: "task-r1"})
		require.Error(t, err)
		assert.Nil(t, ch)
		assert.Contains(t, err.Error(), "unexpected http status 404")
	})

	t.Run("non-sse response", func(t *testing.T) {
		ts := mockRPCServer(t, protocol.MethodTasksResubscribe, "plain text", http.StatusOK, nil)
		client, err := NewA2AClient(ts.URL)
		require.NoError(t, err)

		ch, err := client.ResubscribeTask(context.Background(), protocol.TaskIDParams{ID: "task-r1"})
		require.Error(t, err)
		assert.Nil(t, ch)
		assert.Contains(t, err.Error(), "did not respond with Content-Type 'text/event-stream'")
	})
}

func TestClientGetAgentCard(t *testing.T) {
	name := "card-agent"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, protocol.AgentCardPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(server.AgentCard{Name: name, URL: "http://example.com/", Version: "1.0"})
	}))
	defer ts.Close()

	client, err := NewA2AClient(ts.URL)
	require.NoError(t, err)

	card, err := client.GetAgentCard(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, name, card.Name)
}

func TestClientGetAgentCardCustomPath(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/agent-info", r.URL.Path)
		_ = json.NewEncoder(w).Encode(server.AgentCard{Name: "custom", URL: "u", Version: "1"})
	}))
	defer ts.Close()

	client, err := NewA2AClient(ts.URL)
	require.NoError(t, err)

	card, err := client.GetAgentCard(context.Background(), "/api/v1/agent-info")
	require.NoError(t, err)
	assert.Equal(t, "custom", card.Name)
}

func TestClientRequestHeaders(t *testing.T) {
	var received http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"req-1","result":{"id":"t","contextId":"c","status":{"state":"completed"},"kind":"task"}}`))
	}))
	defer ts.Close()

	client, err := NewA2AClient(ts.URL, WithUserAgent("custom-agent/1.0"))
	require.NoError(t, err)

	_, err = client.GetTasks(context.Background(), protocol.TaskQueryParams{ID: "t"},
		WithRequestHeader("X-Trace-ID", "trace-1"),
		WithRequestHeaders(map[string]string{"X-Tenant": "acme"}))
	require.NoError(t, err)

	assert.Equal(t, "trace-1", received.Get("X-Trace-ID"))
	assert.Equal(t, "acme", received.Get("X-Tenant"))
	assert.Equal(t, "custom-agent/1.0", received.Get("User-Agent"))
	assert.Equal(t, "application/json", received.Get("Content-Type"))
}

func TestClientOptions(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		client, err := NewA2AClient("http://localhost:8080", WithTimeout(45*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 45*time.Second, client.httpClient.Timeout)
	})

	t.Run("nil http client keeps default", func(t *testing.T) {
		client, err := NewA2AClient("http://localhost:8080", WithHTTPClient(nil))
		require.NoError(t, err)
		assert.NotNil(t, client.httpClient)
	})

	t.Run("custom http client", func(t *testing.T) {
		custom := &http.Client{Timeout: 30 * time.Second}
		client, err := NewA2AClient("http://localhost:8080", WithHTTPClient(custom))
		require.NoError(t, err)
		assert.Equal(t, custom, client.httpClient)
	})

	t.Run("oauth2 client credentials", func(t *testing.T) {
		client, err := NewA2AClient("http://localhost:8080",
			WithOAuth2ClientCredentials("id", "secret-placeholder", "https://auth.example.com/token", nil))
		require.NoError(t, err)
		assert.NotNil(t, client.authProvider)
	})

	t.Run("api key auth attaches header", func(t *testing.T) {
		var received http.Header
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received = r.Header.Clone()
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"1","result":{"id":"t","contextId":"c","status":{"state":"completed"},"kind":"task"}}`))
		}))
		defer ts.Close()

		client, err := NewA2AClient(ts.URL, WithAPIKeyAuth("outbound-key", ""))
		require.NoError(t, err)

		_, err = client.GetTasks(context.Background(), protocol.TaskQueryParams{ID: "t"})
		require.NoError(t, err)
		assert.Equal(t, "outbound-key", received.Get("X-API-Key"))
	})
}
