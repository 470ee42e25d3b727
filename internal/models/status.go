// Package models holds the domain entities shared by the repositories,
// services and API handlers.
//
// Job status graph:
//
//	OPEN ──► IN_PROGRESS ──► SUBMITTED ──► COMPLETED
//	  │            ▲             │    ├──► AUTO_RELEASED (scheduler)
//	  │            └─────────────┤    └──► DISPUTED
//	  └──► CANCELLED         (revision)
//
// COMPLETED, AUTO_RELEASED, CANCELLED and DISPUTED are terminal.
package models

import "fmt"

// JobStatus values mirror the status column of the jobs table.
type JobStatus string

const (
	StatusOpen         JobStatus = "OPEN"
	StatusInProgress   JobStatus = "IN_PROGRESS"
	StatusSubmitted    JobStatus = "SUBMITTED"
	StatusCompleted    JobStatus = "COMPLETED"
	StatusAutoReleased JobStatus = "AUTO_RELEASED"
	StatusDisputed     JobStatus = "DISPUTED"
	StatusCancelled    JobStatus = "CANCELLED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[JobStatus][]JobStatus{
	StatusOpen:       {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusSubmitted},
	StatusSubmitted:  {StatusCompleted, StatusAutoReleased, StatusDisputed, StatusInProgress},
	// COMPLETED, AUTO_RELEASED, DISPUTED and CANCELLED are terminal
}

// ParseJobStatus converts a raw string to a JobStatus, returning an error for
// unknown values.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case StatusOpen, StatusInProgress, StatusSubmitted, StatusCompleted,
		StatusAutoReleased, StatusDisputed, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// CanTransition returns true when moving from → to is permitted by the state
// machine.
func CanTransition(from, to JobStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s JobStatus) bool {
	return len(validTransitions[s]) == 0
}
