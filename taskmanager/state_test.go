// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package taskmanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/a2aserve/a2aserve/protocol"
)

// The handler-reachable transitions. Canceled is excluded: it is only
// reachable through the cancel operation.
var transitionStates = []protocol.TaskState{
	protocol.TaskStateWorking,
	protocol.TaskStateInputRequired,
	protocol.TaskStateAuthRequired,
	protocol.TaskStateCompleted,
	protocol.TaskStateFailed,
	protocol.TaskStateRejected,
}

func applyTransition(tc *TaskContext, state protocol.TaskState) error {
	switch state {
	case protocol.TaskStateWorking:
		return tc.SetWorking("")
	case protocol.TaskStateInputRequired:
		return tc.SetInputRequired("waiting")
	case protocol.TaskStateAuthRequired:
		return tc.SetAuthRequired("login required")
	case protocol.TaskStateCompleted:
		return tc.SetCompleted("")
	case protocol.TaskStateFailed:
		return tc.SetFailed("exploded")
	case protocol.TaskStateRejected:
		return tc.SetRejected("out of scope")
	}
	panic("unreachable")
}

// TestTaskStateTransitions drives random transition sequences through a task
// and checks the invariants: any transition out of a live state succeeds,
// terminal states accept nothing, and the stored state always matches the
// last successful transition.
func TestTaskStateTransitions(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sequence := rapid.SliceOfN(rapid.SampledFrom(transitionStates), 1, 12).Draw(rt, "sequence")

		expected := protocol.TaskStateSubmitted
		var taskID string

		manager, err := NewManager(MessageHandlerFunc(
			func(ctx context.Context, tc *TaskContext) error {
				for _, state := range sequence {
					err := applyTransition(tc, state)
					if isFinalState(expected) {
						if err == nil {
							rt.Fatalf("transition %s accepted out of terminal state %s", state, expected)
						}
						continue
					}
					if err != nil {
						rt.Fatalf("transition %s out of live state %s failed: %v", state, expected, err)
					}
					expected = state
				}
				taskID = tc.TaskID()
				return nil
			}), WithAutoComplete(false))
		require.NoError(t, err)

		_, err = manager.OnSendMessage(context.Background(), userMessageParams("run"))
		require.NoError(t, err)

		task, err := manager.OnGetTask(context.Background(), protocol.TaskQueryParams{ID: taskID})
		require.NoError(t, err)
		if task.Status.State != expected {
			rt.Fatalf("stored state %s does not match last successful transition %s",
				task.Status.State, expected)
		}

		// Cancel obeys the same terminal rule.
		_, err = manager.OnCancelTask(context.Background(), protocol.TaskIDParams{ID: taskID})
		if isFinalState(expected) {
			if err == nil {
				rt.Fatalf("cancel accepted on terminal state %s", expected)
			}
		} else {
			if err != nil {
				rt.Fatalf("cancel rejected on live state %s: %v", expected, err)
			}
			task, err := manager.OnGetTask(context.Background(), protocol.TaskQueryParams{ID: taskID})
			require.NoError(t, err)
			if task.Status.State != protocol.TaskStateCanceled {
				rt.Fatalf("cancel left state %s", task.Status.State)
			}
		}
	})
}
