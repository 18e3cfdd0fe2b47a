// ABOUTME: Worker failure types
// ABOUTME: Every failure from Handle is an *ExecutionError naming the worker
package agents

import (
	"errors"
	"fmt"
)

var (
	// ErrMaxSteps is returned when a worker's tool loop does not settle
	ErrMaxSteps = errors.New("worker exceeded max tool steps")
	// ErrEmptyReply is returned when the model answers with no content
	ErrEmptyReply = errors.New("worker produced an empty reply")
)

// ExecutionError wraps the cause of a failed worker turn
type ExecutionError struct {
	Worker string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("worker %s failed: %v", e.Worker, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
