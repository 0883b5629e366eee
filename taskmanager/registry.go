// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package taskmanager

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/a2aserve/a2aserve/log"
	"github.com/a2aserve/a2aserve/metrics"
	"github.com/a2aserve/a2aserve/protocol"
)

const defaultSubscriberBufferSize = 10

// TaskSubscriber is a single listener attached to a task's event stream.
// Events are delivered through a buffered channel; the transport layer
// drains it at its own pace.
type TaskSubscriber struct {
	taskID         string
	events         chan protocol.StreamingMessageEvent
	closed         atomic.Bool
	mu             sync.RWMutex
	lastAccessTime time.Time
}

// NewTaskSubscriber creates a new task subscriber with the specified buffer
// length. A non-positive length falls back to the default buffer size.
func NewTaskSubscriber(taskID string, length int) *TaskSubscriber {
	if length <= 0 {
		length = defaultSubscriberBufferSize
	}
	return &TaskSubscriber{
		taskID:         taskID,
		events:         make(chan protocol.StreamingMessageEvent, length),
		lastAccessTime: time.Now(),
	}
}

// TaskID returns the task the subscriber is attached to. Empty until the
// originating request materializes a task.
func (s *TaskSubscriber) TaskID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskID
}

func (s *TaskSubscriber) bind(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskID = taskID
}

// Events returns the receive side of the subscriber's event queue. The
// channel is closed when the stream ends.
func (s *TaskSubscriber) Events() <-chan protocol.StreamingMessageEvent {
	return s.events
}

// Send delivers an event to the subscriber without blocking. It fails when
// the subscriber is closed or its queue is full.
func (s *TaskSubscriber) Send(event protocol.StreamingMessageEvent) error {
	if s.IsClosed() {
		return fmt.Errorf("task subscriber is closed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.IsClosed() {
		return fmt.Errorf("task subscriber is closed")
	}
	s.lastAccessTime = time.Now()

	select {
	case s.events <- event:
		return nil
	default:
		return fmt.Errorf("event queue is full")
	}
}

// Close closes the subscriber's event queue. Safe to call more than once.
func (s *TaskSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed.Load() {
		s.closed.Store(true)
		close(s.events)
	}
}

// IsClosed reports whether the subscriber has been closed.
func (s *TaskSubscriber) IsClosed() bool {
	return s.closed.Load()
}

// GetLastAccessTime returns the time of the last successful send.
func (s *TaskSubscriber) GetLastAccessTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccessTime
}

// StreamRegistry associates active listeners with task IDs and multicasts
// events to them. It holds only the task ID to listener association, never
// a task record.
type StreamRegistry struct {
	mu        sync.RWMutex
	listeners map[string][]*TaskSubscriber
	metrics   *metrics.Metrics
}

// NewStreamRegistry creates an empty registry. The metrics argument may be
// nil, in which case subscriber gauges are not reported.
func NewStreamRegistry(m *metrics.Metrics) *StreamRegistry {
	return &StreamRegistry{
		listeners: make(map[string][]*TaskSubscriber),
		metrics:   m,
	}
}

// Register attaches a listener to a task ID. Used both by the originating
// streaming call and by later resubscriptions.
func (r *StreamRegistry) Register(taskID string, sub *TaskSubscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[taskID] = append(r.listeners[taskID], sub)
	if r.metrics != nil {
		r.metrics.ActiveSubscribers.Inc()
	}
}

// ListenerCount returns the number of listeners currently attached to a task.
func (r *StreamRegistry) ListenerCount(taskID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[taskID])
}

// Publish delivers an event to every listener registered for the task. A
// listener whose delivery fails is silently removed; failures never reach
// the caller.
func (r *StreamRegistry) Publish(taskID string, event protocol.StreamingMessageEvent) {
	r.mu.RLock()
	subs, exists := r.listeners[taskID]
	if !exists || len(subs) == 0 {
		r.mu.RUnlock()
		return
	}
	subsCopy := make([]*TaskSubscriber, len(subs))
	copy(subsCopy, subs)
	r.mu.RUnlock()

	log.Debugf("Publishing event to %d listeners for task %s (type: %T)", len(subsCopy), taskID, event.Result)
	if r.metrics != nil && event.Result != nil {
		r.metrics.EventsPublished.WithLabelValues(event.Result.GetKind()).Inc()
	}

	var failed []*TaskSubscriber
	for _, sub := range subsCopy {
		if sub.IsClosed() {
			failed = append(failed, sub)
			continue
		}
		if err := sub.Send(event); err != nil {
			log.Warnf("Failed to send event to listener for task %s: %v", taskID, err)
			failed = append(failed, sub)
		}
	}
	if len(failed) > 0 {
		r.remove(taskID, failed)
	}
}

// CloseAll closes every listener attached to the task and removes them.
// Idempotent: closing an unknown or already-closed task ID is a no-op.
func (r *StreamRegistry) CloseAll(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.listeners[taskID]
	for _, sub := range subs {
		sub.Close()
	}
	if len(subs) > 0 && r.metrics != nil {
		r.metrics.ActiveSubscribers.Sub(float64(len(subs)))
	}
	delete(r.listeners, taskID)
}

// remove drops the given listeners from the task's list.
func (r *StreamRegistry) remove(taskID string, failed []*TaskSubscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, exists := r.listeners[taskID]
	if !exists {
		return
	}
	filtered := make([]*TaskSubscriber, 0, len(subs))
	removed := 0
	for _, sub := range subs {
		drop := false
		for _, f := range failed {
			if sub == f {
				drop = true
				removed++
				break
			}
		}
		if drop {
			// Closing ends the listener's channel so a stalled consumer
			// sees the stream terminate instead of hanging.
			sub.Close()
		} else {
			filtered = append(filtered, sub)
		}
	}
	if removed > 0 {
		log.Debugf("Removed %d dead listeners for task %s", removed, taskID)
		if r.metrics != nil {
			r.metrics.ActiveSubscribers.Sub(float64(removed))
		}
		if len(filtered) == 0 {
			delete(r.listeners, taskID)
		} else {
			r.listeners[taskID] = filtered
		}
	}
}
