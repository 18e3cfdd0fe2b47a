// ABOUTME: Routing decision and worker descriptor types for the orchestrator
// ABOUTME: A decision names either a registered worker or the FINISH sentinel
package models

// Finish is the sentinel a router returns when no further worker is needed
const Finish = "FINISH"

// RoutingDecision is the structured output of one routing call
type RoutingDecision struct {
	Next string `json:"next"`
}

// IsFinish reports whether the decision terminates the episode
func (d RoutingDecision) IsFinish() bool {
	return d.Next == Finish
}

// IsValid reports whether the decision names FINISH or one of the given workers
func (d RoutingDecision) IsValid(workers []string) bool {
	if d.IsFinish() {
		return true
	}
	for _, w := range workers {
		if w == d.Next {
			return true
		}
	}
	return false
}

// WorkerDescriptor is the static routing-table entry shown to the router
type WorkerDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
