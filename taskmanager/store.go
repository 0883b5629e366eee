// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package taskmanager

import (
	"sync"

	"github.com/a2aserve/a2aserve/protocol"
)

// TaskStore is in-memory keyed storage for task records and their message
// histories, safe for concurrent use. Tasks live for the process lifetime;
// there is no eviction.
type TaskStore struct {
	mu sync.RWMutex

	// tasks holds the latest record per task ID. Stored tasks never carry
	// history; history lives in its own map and is attached on read.
	tasks map[string]protocol.Task

	// histories holds the ordered message history per task ID.
	histories map[string][]protocol.Message
}

// NewTaskStore creates an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:     make(map[string]protocol.Task),
		histories: make(map[string][]protocol.Message),
	}
}

// Put inserts or overwrites the task keyed by its ID. Last write wins.
// Any history attached to the argument is ignored; history is managed
// through AppendHistory.
func (s *TaskStore) Put(task protocol.Task) {
	task.History = nil
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
}

// Get returns a copy of the current task record without history, or false
// if the ID is unknown.
func (s *TaskStore) Get(id string) (*protocol.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	copied := task
	if task.Artifacts != nil {
		copied.Artifacts = make([]protocol.Artifact, len(task.Artifacts))
		copy(copied.Artifacts, task.Artifacts)
	}
	return &copied, true
}

// Update applies fn to the stored task record under the store lock and
// writes the result back. Returns false if the ID is unknown. This is the
// read-modify-write primitive for status and artifact changes.
func (s *TaskStore) Update(id string, fn func(task *protocol.Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	fn(&task)
	s.tasks[id] = task
	return true
}

// AppendHistory appends a message to the ordered history of a task,
// creating the history if absent. The history may be written before the
// task record itself exists.
func (s *TaskStore) AppendHistory(taskID string, message protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[taskID] = append(s.histories[taskID], message)
}

// History returns a copy of the most recent limit messages for a task in
// oldest-to-newest order. A non-positive limit returns the full history.
func (s *TaskStore) History(taskID string, limit int) []protocol.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.histories[taskID]
	if len(history) == 0 {
		return nil
	}
	start := 0
	if limit > 0 && len(history) > limit {
		start = len(history) - limit
	}
	out := make([]protocol.Message, len(history)-start)
	copy(out, history[start:])
	return out
}

// Snapshot returns a copy of the task with its history attached, trimmed to
// the most recent historyLength messages. A non-positive historyLength
// attaches the full history.
func (s *TaskStore) Snapshot(id string, historyLength int) (*protocol.Task, bool) {
	task, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	task.History = s.History(id, historyLength)
	return task, true
}
