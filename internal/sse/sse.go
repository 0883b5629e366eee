// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

// Package sse provides reading and writing helpers for Server-Sent Events.
package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a2aserve/a2aserve/internal/jsonrpc"
	"github.com/a2aserve/a2aserve/log"
)

// CloseEventData is the payload carried by a close event when a stream
// terminates.
type CloseEventData struct {
	ID     string `json:"taskId"`
	Reason string `json:"reason"`
}

// EventReader parses text/event-stream bodies one event at a time.
type EventReader struct {
	scanner *bufio.Scanner
}

// Option configures an EventReader.
type Option func(*EventReader)

// WithBuffer sets the scanner's initial and maximum buffer sizes, for
// streams whose events exceed the default scanner limit.
func WithBuffer(initialBuf []byte, maxBufSize int) Option {
	return func(reader *EventReader) {
		reader.scanner.Buffer(initialBuf, maxBufSize)
	}
}

// NewEventReader wraps r in an SSE event parser.
func NewEventReader(r io.Reader, opts ...Option) *EventReader {
	scanner := bufio.NewScanner(r)
	reader := &EventReader{scanner: scanner}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// ReadEvent returns the next complete event's data and type. io.EOF
// marks the end of the stream.
func (r *EventReader) ReadEvent() (data []byte, eventType string, err error) {
	dataBuffer := bytes.Buffer{}
	eventType = "message" // Default when no event field appears.
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			// Blank line terminates the current event.
			if dataBuffer.Len() > 0 {
				// Strip the trailing newline the loop appended.
				d := dataBuffer.Bytes()
				if len(d) > 0 && d[len(d)-1] == '\n' {
					d = d[:len(d)-1]
				}
				return d, eventType, nil
			}
			// No pending data means this was a keep-alive, skip it.
			continue
		}
		if bytes.HasPrefix(line, []byte("event:")) {
			eventType = string(bytes.TrimSpace(line[len("event:"):]))
		} else if bytes.HasPrefix(line, []byte("data:")) {
			// Multiple data fields join with newlines.
			dataChunk := line[len("data:"):]
			if len(dataChunk) > 0 && dataChunk[0] == ' ' {
				dataChunk = dataChunk[1:]
			}
			dataBuffer.Write(dataChunk)
			dataBuffer.WriteByte('\n')
		} else if bytes.HasPrefix(line, []byte("id:")) {
			// Last-event-id bookkeeping, not needed here.
		} else if bytes.HasPrefix(line, []byte("retry:")) {
			// Reconnect hint, not needed here.
		} else if bytes.HasPrefix(line, []byte(":")) {
			// Comment, skip.
		} else {
			// Some producers emit bare lines without a field prefix.
			// Treat them as data rather than dropping them.
			log.Warnf("SSE line has no known field prefix: %s", string(line))
			dataBuffer.Write(line)
			dataBuffer.WriteByte('\n')
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, "", err
	}
	// Return whatever accumulated before EOF cut the stream short.
	if dataBuffer.Len() > 0 {
		d := dataBuffer.Bytes()
		if len(d) > 0 && d[len(d)-1] == '\n' {
			d = d[:len(d)-1]
		}
		return d, eventType, io.EOF
	}
	return nil, "", io.EOF
}

// FormatEvent writes data as JSON in SSE framing
// (event: type\ndata: json\n\n).
func FormatEvent(w io.Writer, eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling SSE event data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, string(jsonData)); err != nil {
		return fmt.Errorf("writing SSE event: %w", err)
	}
	return nil
}

// EventBatch represents a single event in a batch operation.
type EventBatch struct {
	EventType string
	ID        interface{}
	Data      interface{}
}

// FormatJSONRPCEventBatch formats multiple JSON-RPC events in a single write
// operation. This reduces the number of write calls for high-frequency event
// streams: all events are formatted into one buffer and written once.
func FormatJSONRPCEventBatch(w io.Writer, events []EventBatch) error {
	if len(events) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for _, event := range events {
		// Wrap each event payload in a JSON-RPC envelope.
		response := jsonrpc.NewNotificationResponse(event.ID, event.Data)
		jsonData, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("marshaling SSE batch event: %w", err)
		}
		if _, err := fmt.Fprintf(&buf, "event: %s\ndata: %s\n\n", event.EventType, string(jsonData)); err != nil {
			return fmt.Errorf("formatting SSE batch event: %w", err)
		}
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing SSE event batch: %w", err)
	}
	return nil
}
