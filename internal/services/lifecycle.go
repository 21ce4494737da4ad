package services

import "fmt"

// AssignmentStatus is the lifecycle state of an internally-assigned form.
type AssignmentStatus string

const (
	AssignmentPending       AssignmentStatus = "pending"
	AssignmentInProgress    AssignmentStatus = "in_progress"
	AssignmentSubmitted     AssignmentStatus = "submitted"
	AssignmentApproved      AssignmentStatus = "approved"
	AssignmentEditRequested AssignmentStatus = "edit_requested"
)

// assignmentEdges is the only legal transition set. approved is terminal.
var assignmentEdges = map[AssignmentStatus][]AssignmentStatus{
	AssignmentPending:       {AssignmentInProgress},
	AssignmentInProgress:    {AssignmentSubmitted},
	AssignmentSubmitted:     {AssignmentApproved, AssignmentEditRequested},
	AssignmentEditRequested: {AssignmentInProgress, AssignmentSubmitted},
}

// CanTransition reports whether from -> to is a legal assignment edge.
func CanTransition(from, to AssignmentStatus) bool {
	for _, next := range assignmentEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates an assignment edge. Illegal edges are reported as a
// distinct error kind and never reach the store.
func Transition(from, to AssignmentStatus) error {
	if !CanTransition(from, to) {
		return NewIllegalTransitionError(fmt.Sprintf("assignment transition %s -> %s is not allowed", from, to))
	}
	return nil
}

// SubmissionStatus is the lifecycle state of a public-link submission.
// Public submissions are one-shot: reviewed acknowledges receipt and does
// not reopen editing.
type SubmissionStatus string

const (
	SubmissionDraft     SubmissionStatus = "draft"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionReviewed  SubmissionStatus = "reviewed"
)

var submissionEdges = map[SubmissionStatus][]SubmissionStatus{
	SubmissionDraft:     {SubmissionSubmitted},
	SubmissionSubmitted: {SubmissionReviewed},
}

// CanTransitionSubmission reports whether from -> to is a legal edge for a
// public submission.
func CanTransitionSubmission(from, to SubmissionStatus) bool {
	for _, next := range submissionEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSubmission validates a public-submission edge.
func TransitionSubmission(from, to SubmissionStatus) error {
	if !CanTransitionSubmission(from, to) {
		return NewIllegalTransitionError(fmt.Sprintf("submission transition %s -> %s is not allowed", from, to))
	}
	return nil
}
