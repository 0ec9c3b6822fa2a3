package workflow

import (
	"context"
	"errors"

	"github.com/pkazmirchuk/workbot/internal/files"
	"github.com/pkazmirchuk/workbot/internal/state"
	"github.com/pkazmirchuk/workbot/internal/store"
	"github.com/pkazmirchuk/workbot/internal/worksection"
)

// Kind classifies a workflow failure for reporting and metrics. Every error
// in the workflow is scoped to one session's current step; none is fatal to
// the process.
type Kind string

const (
	// KindValidation: bad user input, re-prompt the same phase.
	KindValidation Kind = "validation"
	// KindNotFound: unknown project or unregistered session.
	KindNotFound Kind = "not_found"
	// KindTransport: network failure, timeout or non-200 from a remote.
	KindTransport Kind = "transport"
	// KindData: response arrived but was not the expected shape.
	KindData Kind = "data"
	// KindPersistence: a local write failed. Distinguished because it can
	// happen after an irreversible remote side effect.
	KindPersistence Kind = "persistence"
)

// ValidationError carries the user-facing reason for a re-prompt.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// PersistenceError wraps a local write failure with the detail an operator
// needs to reconcile the stores manually.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "persistence: " + e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// Classify maps collaborator errors onto the workflow taxonomy.
func Classify(err error) Kind {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return KindValidation
	}
	var pErr *PersistenceError
	if errors.As(err, &pErr) {
		return KindPersistence
	}
	var apiErr *worksection.APIError
	if errors.As(err, &apiErr) {
		return KindData
	}
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, state.ErrNotFound):
		return KindNotFound
	case errors.Is(err, files.ErrTooLarge):
		return KindValidation
	case errors.Is(err, worksection.ErrMalformedResponse):
		return KindData
	case errors.Is(err, worksection.ErrRemoteStatus),
		errors.Is(err, context.DeadlineExceeded):
		return KindTransport
	default:
		return KindTransport
	}
}
