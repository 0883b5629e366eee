// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package taskmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/a2aserve/a2aserve/internal/jsonrpc"
	"github.com/a2aserve/a2aserve/log"
	"github.com/a2aserve/a2aserve/metrics"
	"github.com/a2aserve/a2aserve/protocol"
)

// maskedCredentials replaces push notification credentials in responses.
const maskedCredentials = "***masked***"

// MessageHandler is the business logic collaborator: it consumes one
// inbound message through a TaskContext and reports progress and results by
// calling back into it. Implementations must be safe for concurrent calls.
type MessageHandler interface {
	HandleMessage(ctx context.Context, tc *TaskContext) error
}

// MessageHandlerFunc adapts a function to the MessageHandler interface.
type MessageHandlerFunc func(ctx context.Context, tc *TaskContext) error

// HandleMessage calls f.
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, tc *TaskContext) error {
	return f(ctx, tc)
}

// Manager owns the task store, the stream registry, and the push
// notification configs, and drives the MessageHandler for every inbound
// call. It is the only component that writes to the store and registry.
type Manager struct {
	handler  MessageHandler
	store    *TaskStore
	registry *StreamRegistry
	metrics  *metrics.Metrics
	now      func() time.Time

	// cancelMu protects cancels, the per-task cancellation hooks for
	// handlers still running.
	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc

	pushMu      sync.RWMutex
	pushConfigs map[string]protocol.TaskPushNotificationConfig

	autoComplete      bool
	subscriberBufSize int
}

// Option configures a Manager.
type Option func(*Manager)

// WithAutoComplete controls the fail-safe applied when a streaming handler
// returns with a live non-terminal task: enabled (the default), the task is
// promoted to completed with a final event; disabled, the stream closes
// without a state change, leaving states like input-required standing.
func WithAutoComplete(enabled bool) Option {
	return func(m *Manager) {
		m.autoComplete = enabled
	}
}

// WithSubscriberBufferSize sets the event buffer length of each stream
// listener.
func WithSubscriberBufferSize(size int) Option {
	return func(m *Manager) {
		m.subscriberBufSize = size
	}
}

// WithMetrics sets the metrics sink shared with the server.
func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// withClock overrides the clock. Used by tests.
func withClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager around the given handler.
func NewManager(handler MessageHandler, options ...Option) (*Manager, error) {
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}
	m := &Manager{
		handler:           handler,
		store:             NewTaskStore(),
		metrics:           metrics.New(),
		now:               time.Now,
		cancels:           make(map[string]context.CancelFunc),
		pushConfigs:       make(map[string]protocol.TaskPushNotificationConfig),
		autoComplete:      true,
		subscriberBufSize: defaultSubscriberBufferSize,
	}
	for _, option := range options {
		option(m)
	}
	m.registry = NewStreamRegistry(m.metrics)
	return m, nil
}

// OnSendMessage handles a blocking message/send request. The handler runs
// synchronously; the result is the final task snapshot or the handler's
// direct message.
func (m *Manager) OnSendMessage(
	ctx context.Context,
	request protocol.SendMessageParams,
) (*protocol.MessageResult, error) {
	log.Debugf("OnSendMessage for message %s", request.Message.MessageID)
	tc, err := m.newTaskContext(ctx, &request, false)
	if err != nil {
		return nil, err
	}
	defer tc.cancel()
	// The cancel hook only serves a running handler; drop it when the call
	// ends even if the task never reached a terminal state.
	defer func() {
		if taskID := tc.TaskID(); taskID != "" {
			m.releaseTask(taskID)
		}
	}()

	if err := m.runHandler(tc); err != nil {
		if taskID := tc.TaskID(); taskID != "" {
			// A live task absorbs the failure as its terminal state.
			if ferr := tc.SetFailed(err.Error()); ferr != nil {
				log.Warnf("Could not mark task %s failed: %v", taskID, ferr)
			}
		} else {
			return nil, jsonrpc.ErrInternalError(err.Error())
		}
	}

	if msg := tc.directResult(); msg != nil {
		return &protocol.MessageResult{Result: msg}, nil
	}
	taskID := tc.TaskID()
	if taskID == "" {
		return nil, ErrInvalidAgentResponse("handler produced neither a task nor a message")
	}
	if m.autoComplete {
		if task, ok := m.store.Get(taskID); ok && !isFinalState(task.Status.State) {
			if err := tc.SetCompleted(""); err != nil {
				log.Warnf("Auto-complete of task %s failed: %v", taskID, err)
			}
		}
	}
	historyLength := 0
	if request.Configuration != nil && request.Configuration.HistoryLength != nil {
		historyLength = *request.Configuration.HistoryLength
	}
	task, ok := m.store.Snapshot(taskID, historyLength)
	if !ok {
		return nil, ErrTaskNotFound(taskID)
	}
	return &protocol.MessageResult{Result: task}, nil
}

// OnSendMessageStream handles a message/stream request. The handler runs on
// its own goroutine; the returned channel carries the stream events and is
// closed when the stream ends.
func (m *Manager) OnSendMessageStream(
	ctx context.Context,
	request protocol.SendMessageParams,
) (<-chan protocol.StreamingMessageEvent, error) {
	log.Debugf("OnSendMessageStream for message %s", request.Message.MessageID)
	tc, err := m.newTaskContext(ctx, &request, true)
	if err != nil {
		return nil, err
	}

	go func() {
		defer tc.cancel()
		err := m.runHandler(tc)
		m.finishStream(tc, err)
		// The handler is done; its cancel hook has nothing left to signal.
		if taskID := tc.TaskID(); taskID != "" {
			m.releaseTask(taskID)
		}
	}()

	return tc.subscriber.Events(), nil
}

// OnGetTask handles a tasks/get request.
func (m *Manager) OnGetTask(ctx context.Context, params protocol.TaskQueryParams) (*protocol.Task, error) {
	historyLength := 0
	if params.HistoryLength != nil {
		historyLength = *params.HistoryLength
	}
	task, ok := m.store.Snapshot(params.ID, historyLength)
	if !ok {
		return nil, ErrTaskNotFound(params.ID)
	}
	return task, nil
}

// OnCancelTask handles a tasks/cancel request: it transitions a live task
// to canceled, publishes the final event, closes all listeners, and signals
// the running handler through its context. The record stays queryable; a
// second cancel gets the not-cancelable error.
func (m *Manager) OnCancelTask(ctx context.Context, params protocol.TaskIDParams) (*protocol.Task, error) {
	status := protocol.TaskStatus{
		State:     protocol.TaskStateCanceled,
		Timestamp: protocol.Timestamp(m.now()),
	}
	var stateErr *jsonrpc.Error
	found := m.store.Update(params.ID, func(task *protocol.Task) {
		if isFinalState(task.Status.State) {
			stateErr = ErrTaskNotCancelable(task.ID, task.Status.State)
			return
		}
		task.Status = status
	})
	if !found {
		return nil, ErrTaskNotFound(params.ID)
	}
	if stateErr != nil {
		return nil, stateErr
	}

	m.metrics.StateTransitions.WithLabelValues(string(protocol.TaskStateCanceled)).Inc()
	log.Infof("Task %s canceled", params.ID)

	task, _ := m.store.Get(params.ID)
	event := protocol.NewTaskStatusUpdateEvent(params.ID, task.ContextID, status, true)
	m.registry.Publish(params.ID, protocol.StreamingMessageEvent{Result: &event})
	m.registry.CloseAll(params.ID)
	m.releaseTask(params.ID)

	return task, nil
}

// OnPushNotificationSet handles a tasks/pushNotificationConfig/set request.
// The task must exist and the config must carry a URL. Credentials are
// masked in the response.
func (m *Manager) OnPushNotificationSet(
	ctx context.Context,
	params protocol.TaskPushNotificationConfig,
) (*protocol.TaskPushNotificationConfig, error) {
	if _, ok := m.store.Get(params.TaskID); !ok {
		return nil, ErrTaskNotFound(params.TaskID)
	}
	if params.PushNotificationConfig.URL == "" {
		return nil, jsonrpc.ErrInvalidParams("push notification config requires a url")
	}
	m.pushMu.Lock()
	m.pushConfigs[params.TaskID] = params
	m.pushMu.Unlock()
	log.Debugf("Push notification config set for task %s", params.TaskID)

	masked := maskPushConfig(params)
	return &masked, nil
}

// OnPushNotificationGet handles a tasks/pushNotificationConfig/get request.
// Credentials are masked in the response.
func (m *Manager) OnPushNotificationGet(
	ctx context.Context,
	params protocol.TaskIDParams,
) (*protocol.TaskPushNotificationConfig, error) {
	m.pushMu.RLock()
	config, ok := m.pushConfigs[params.ID]
	m.pushMu.RUnlock()
	if !ok {
		return nil, ErrPushNotificationConfigNotFound(params.ID)
	}
	masked := maskPushConfig(config)
	return &masked, nil
}

// OnResubscribe handles a tasks/resubscribe request: it attaches a fresh
// listener to an existing task. The listener's first event is the current
// task snapshot; if the task is already terminal the stream closes right
// after it.
func (m *Manager) OnResubscribe(
	ctx context.Context,
	params protocol.TaskIDParams,
) (<-chan protocol.StreamingMessageEvent, error) {
	task, ok := m.store.Snapshot(params.ID, 0)
	if !ok {
		return nil, ErrTaskNotFound(params.ID)
	}

	subscriber := NewTaskSubscriber(params.ID, m.subscriberBufSize)
	if err := subscriber.Send(protocol.StreamingMessageEvent{Result: task}); err != nil {
		subscriber.Close()
		return nil, jsonrpc.ErrInternalError(err.Error())
	}
	if isFinalState(task.Status.State) {
		subscriber.Close()
		return subscriber.Events(), nil
	}
	m.registry.Register(params.ID, subscriber)

	// The task may have reached a terminal state between the snapshot and
	// the registration, after CloseAll already swept the listener list. The
	// late listener would never be closed, so re-check and settle it here.
	if task, ok := m.store.Get(params.ID); ok && isFinalState(task.Status.State) {
		event := protocol.NewTaskStatusUpdateEvent(params.ID, task.ContextID, task.Status, true)
		if err := subscriber.Send(protocol.StreamingMessageEvent{Result: &event}); err != nil {
			log.Debugf("Late listener for task %s already closed: %v", params.ID, err)
		}
		m.registry.remove(params.ID, []*TaskSubscriber{subscriber})
	}
	return subscriber.Events(), nil
}

// TaskStore exposes the manager's store for read access by the transport
// layer and tests.
func (m *Manager) TaskStore() *TaskStore {
	return m.store
}

// newTaskContext validates the inbound message and builds the per-call
// TaskContext. The returned context carries a cancel hook that OnCancelTask
// fires once the task materializes.
func (m *Manager) newTaskContext(
	ctx context.Context,
	request *protocol.SendMessageParams,
	streaming bool,
) (*TaskContext, error) {
	if request.Message.Role == "" {
		return nil, jsonrpc.ErrInvalidParams("message role is required")
	}
	if len(request.Message.Parts) == 0 {
		return nil, jsonrpc.ErrInvalidParams("message must contain at least one part")
	}
	if request.Message.MessageID == "" {
		request.Message.MessageID = protocol.GenerateMessageID()
	}
	contextID := protocol.GenerateContextID()
	if request.Message.ContextID != nil && *request.Message.ContextID != "" {
		contextID = *request.Message.ContextID
	}
	request.Message.ContextID = &contextID

	handlerCtx, cancel := context.WithCancel(ctx)
	tc := &TaskContext{
		manager:     m,
		ctx:         handlerCtx,
		cancel:      cancel,
		userMessage: request.Message,
		contextID:   contextID,
		metadata:    request.Metadata,
		streaming:   streaming,
	}
	if streaming {
		tc.subscriber = NewTaskSubscriber("", m.subscriberBufSize)
	}
	return tc, nil
}

// runHandler invokes the business handler, converting a panic into an
// ordinary error.
func (m *Manager) runHandler(tc *TaskContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Handler panicked for message %s: %v", tc.userMessage.MessageID, r)
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return m.handler.HandleMessage(tc.ctx, tc)
}

// finishStream settles a streaming call after the handler returned: a
// handler error fails the task, a non-terminal task is auto-completed when
// the policy allows, and the originating listener is always closed.
func (m *Manager) finishStream(tc *TaskContext, handlerErr error) {
	defer func() {
		if tc.subscriber != nil {
			tc.subscriber.Close()
		}
	}()

	if tc.isSettled() {
		return
	}
	taskID := tc.TaskID()

	if handlerErr != nil {
		if taskID == "" {
			// No task to fail; surface the error as a message event so the
			// stream does not end silently.
			errMsg := protocol.NewMessageWithContext(
				protocol.MessageRoleAgent,
				[]protocol.Part{protocol.NewTextPart(handlerErr.Error())},
				nil, &tc.contextID,
			)
			if serr := tc.subscriber.Send(protocol.StreamingMessageEvent{Result: &errMsg}); serr != nil {
				log.Warnf("Could not deliver handler error to stream: %v", serr)
			}
			return
		}
		if err := tc.SetFailed(handlerErr.Error()); err != nil {
			log.Warnf("Could not mark task %s failed: %v", taskID, err)
		}
		return
	}

	if taskID == "" {
		return
	}
	task, ok := m.store.Get(taskID)
	if !ok || isFinalState(task.Status.State) {
		return
	}
	if m.autoComplete {
		if err := tc.SetCompleted(""); err != nil {
			log.Warnf("Auto-complete of task %s failed: %v", taskID, err)
		}
		return
	}
	// Policy disabled: leave the state standing, just end the stream.
	m.registry.CloseAll(taskID)
}

// bindTask records the cancel hook of a running handler under its task ID.
func (m *Manager) bindTask(taskID string, cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()
	m.cancels[taskID] = cancel
}

// releaseTask fires and removes the cancel hook for a task, if any. Called
// on every terminal transition.
func (m *Manager) releaseTask(taskID string) {
	m.cancelMu.Lock()
	cancel, ok := m.cancels[taskID]
	delete(m.cancels, taskID)
	m.cancelMu.Unlock()
	if ok {
		cancel()
	}
}

// isFinalState checks whether a state is terminal.
func isFinalState(state protocol.TaskState) bool {
	return state == protocol.TaskStateCompleted ||
		state == protocol.TaskStateFailed ||
		state == protocol.TaskStateCanceled ||
		state == protocol.TaskStateRejected
}

// maskPushConfig copies a push config with credentials replaced by a
// placeholder so secrets never travel back to callers.
func maskPushConfig(config protocol.TaskPushNotificationConfig) protocol.TaskPushNotificationConfig {
	if config.PushNotificationConfig.Authentication == nil ||
		config.PushNotificationConfig.Authentication.Credentials == nil {
		return config
	}
	auth := *config.PushNotificationConfig.Authentication
	masked := maskedCredentials
	auth.Credentials = &masked
	schemes := make([]string, len(auth.Schemes))
	copy(schemes, auth.Schemes)
	auth.Schemes = schemes
	config.PushNotificationConfig.Authentication = &auth
	return config
}
