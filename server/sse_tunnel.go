// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a2aserve/a2aserve/internal/sse"
	"github.com/a2aserve/a2aserve/log"
	"github.com/a2aserve/a2aserve/protocol"
)

const (
	// sseBatchSize caps how many events are written per flush.
	sseBatchSize = 20
	// sseFlushInterval is the safety flush for a partially filled batch.
	sseFlushInterval = 1 * time.Second
)

// sseTunnel forwards streaming task events to an SSE client. Events are
// drained in batches so a burst of updates costs one flush, but any event
// that arrives alone is flushed immediately rather than waiting out the
// interval.
type sseTunnel struct {
	writer  io.Writer
	flusher http.Flusher
	rpcID   string
	batch   []sse.EventBatch
}

func newSSETunnel(w io.Writer, flusher http.Flusher, rpcID string) *sseTunnel {
	return &sseTunnel{
		writer:  w,
		flusher: flusher,
		rpcID:   rpcID,
		batch:   make([]sse.EventBatch, 0, sseBatchSize),
	}
}

// start consumes the event channel until it closes or the context is
// canceled, then emits a close event. It blocks the calling handler.
func (t *sseTunnel) start(ctx context.Context, events <-chan protocol.StreamingMessageEvent) {
	ticker := time.NewTicker(sseFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				t.flush()
				t.writeClose("stream completed")
				return
			}
			if err := t.add(event); err != nil {
				log.Warnf("Failed to stage SSE event (RPC ID: %s): %v", t.rpcID, err)
				continue
			}
			// Drain whatever else is already queued so one handler burst
			// becomes one client flush.
			if !t.drain(events) {
				t.flush()
				t.writeClose("stream completed")
				return
			}
			t.flush()
		case <-ticker.C:
			t.flush()
		case <-ctx.Done():
			log.Debugf("SSE client disconnected (RPC ID: %s)", t.rpcID)
			return
		}
	}
}

// drain moves immediately available events into the batch without blocking.
// It returns false once the channel is closed.
func (t *sseTunnel) drain(events <-chan protocol.StreamingMessageEvent) bool {
	for len(t.batch) < sseBatchSize {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			if err := t.add(event); err != nil {
				log.Warnf("Failed to stage SSE event (RPC ID: %s): %v", t.rpcID, err)
			}
		default:
			return true
		}
	}
	return true
}

func (t *sseTunnel) add(event protocol.StreamingMessageEvent) error {
	eventType, err := getEventType(event)
	if err != nil {
		return err
	}
	t.batch = append(t.batch, sse.EventBatch{
		EventType: eventType,
		ID:        t.rpcID,
		Data:      event,
	})
	return nil
}

// flush writes the staged batch to the client in one go.
func (t *sseTunnel) flush() {
	if len(t.batch) == 0 {
		return
	}
	if err := sse.FormatJSONRPCEventBatch(t.writer, t.batch); err != nil {
		log.Errorf("Failed to write SSE event batch (RPC ID: %s): %v", t.rpcID, err)
	}
	t.flusher.Flush()
	t.batch = t.batch[:0]
}

// writeClose emits the terminal close event so clients can distinguish a
// finished stream from a dropped connection.
func (t *sseTunnel) writeClose(reason string) {
	closeEvent := sse.EventBatch{
		EventType: protocol.EventClose,
		ID:        t.rpcID,
		Data:      sse.CloseEventData{ID: t.rpcID, Reason: reason},
	}
	if err := sse.FormatJSONRPCEventBatch(t.writer, []sse.EventBatch{closeEvent}); err != nil {
		log.Errorf("Failed to write SSE close event (RPC ID: %s): %v", t.rpcID, err)
	}
	t.flusher.Flush()
}

// getEventType maps a streaming event payload to its SSE event name.
func getEventType(event protocol.StreamingMessageEvent) (string, error) {
	switch event.Result.(type) {
	case *protocol.TaskStatusUpdateEvent:
		return protocol.EventStatusUpdate, nil
	case *protocol.TaskArtifactUpdateEvent:
		return protocol.EventArtifactUpdate, nil
	case *protocol.Message:
		return protocol.EventMessage, nil
	case *protocol.Task:
		return protocol.EventTask, nil
	default:
		return "", fmt.Errorf("%w: %T", errUnknownEvent, event.Result)
	}
}
