// Package pipeline runs crawl jobs: it wires discovery, classification,
// extraction, normalization, and persistence behind an asynchronous job
// record with a strict state machine.
package pipeline

import (
	"fmt"

	"github.com/jonesrussell/shopcrawl/internal/domain"
)

// validTransitions is the job state machine. Transitions are monotonic and
// one-directional; completed and failed are terminal. There is no
// cancellation: a failed job is re-triggered as a new job.
var validTransitions = map[string][]string{
	domain.JobStatusPending:    {domain.JobStatusProcessing},
	domain.JobStatusProcessing: {domain.JobStatusCompleted, domain.JobStatusFailed},
	domain.JobStatusCompleted:  {},
	domain.JobStatusFailed:     {},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an error when a transition is not allowed.
func ValidateTransition(from, to string) error {
	allowed, known := validTransitions[from]
	if !known {
		return fmt.Errorf("unknown job status: %s", from)
	}

	for _, a := range allowed {
		if a == to {
			return nil
		}
	}

	return fmt.Errorf("invalid job status transition from %s to %s", from, to)
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == domain.JobStatusCompleted || status == domain.JobStatusFailed
}
