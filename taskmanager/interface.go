// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package taskmanager

import (
	"context"

	"github.com/a2aserve/a2aserve/protocol"
)

// TaskManager is the operation surface the transport layer dispatches to.
// Manager is the in-memory implementation.
type TaskManager interface {
	// OnSendMessage handles a blocking message/send request.
	OnSendMessage(ctx context.Context, request protocol.SendMessageParams) (*protocol.MessageResult, error)
	// OnSendMessageStream handles a streaming message/stream request.
	OnSendMessageStream(ctx context.Context, request protocol.SendMessageParams) (<-chan protocol.StreamingMessageEvent, error)
	// OnGetTask handles a tasks/get request.
	OnGetTask(ctx context.Context, params protocol.TaskQueryParams) (*protocol.Task, error)
	// OnCancelTask handles a tasks/cancel request.
	OnCancelTask(ctx context.Context, params protocol.TaskIDParams) (*protocol.Task, error)
	// OnPushNotificationSet handles a tasks/pushNotificationConfig/set request.
	OnPushNotificationSet(ctx context.Context, params protocol.TaskPushNotificationConfig) (*protocol.TaskPushNotificationConfig, error)
	// OnPushNotificationGet handles a tasks/pushNotificationConfig/get request.
	OnPushNotificationGet(ctx context.Context, params protocol.TaskIDParams) (*protocol.TaskPushNotificationConfig, error)
	// OnResubscribe handles a tasks/resubscribe request.
	OnResubscribe(ctx context.Context, params protocol.TaskIDParams) (<-chan protocol.StreamingMessageEvent, error)
}

var _ TaskManager = (*Manager)(nil)
