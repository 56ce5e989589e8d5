package model

import (
	"errors"
	"fmt"
)

// ErrStaleResponse marks a collaborator response that arrived after a newer
// request superseded it on the same channel. Stale responses are discarded
// without being shown to the user.
var ErrStaleResponse = errors.New("stale response superseded by a newer request")

// ValidationError blocks an action locally, before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// TransportError wraps a network failure or a non-2xx status from the
// grading collaborator.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("collaborator %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BackendError is a 2xx response with success:false. Message carries the
// collaborator's error string verbatim and must be surfaced unchanged.
type BackendError struct {
	Action  string
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("collaborator rejected %s request", e.Action)
	}
	return e.Message
}
