// ABOUTME: Orchestrator error taxonomy
// ABOUTME: Contract violations and loop exhaustion are distinct from worker failures
package orchestrator

import "errors"

var (
	// ErrRoutingContract marks a routing decision outside the declared schema
	ErrRoutingContract = errors.New("routing contract violation")
	// ErrUnknownWorker marks a decision naming an unregistered worker.
	// It is always reported together with ErrRoutingContract.
	ErrUnknownWorker = errors.New("unknown worker")
	// ErrRoutingLoopExceeded is returned when the turn cap is hit before FINISH
	ErrRoutingLoopExceeded = errors.New("routing loop exceeded turn limit")
)
