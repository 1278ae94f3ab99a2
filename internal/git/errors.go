package git

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRevisionNotFound is returned when a revision or object cannot be resolved.
	ErrRevisionNotFound = errors.New("revision not found")
	// ErrBlameUnavailable is returned when git cannot blame the requested lines.
	ErrBlameUnavailable = errors.New("blame unavailable")
	// ErrNotRepository is returned when a directory is not a git repository.
	ErrNotRepository = errors.New("not a git repository")
	// ErrSessionClosed is returned when a closed checkout session is used.
	ErrSessionClosed = errors.New("checkout session closed")
)

// CommandError describes a failed git invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Kind   error // one of the sentinel errors above, or nil
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s", strings.Join(e.Args, " "))
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

var revisionMarkers = []string{
	"unknown revision",
	"bad revision",
	"bad object",
	"invalid object name",
	"needed a single revision",
	"ambiguous argument",
	"not a valid object name",
}

// classify maps git's stderr to a sentinel error. fallback is used when
// nothing more specific matches.
func classify(stderr string, fallback error) error {
	lower := strings.ToLower(stderr)
	for _, marker := range revisionMarkers {
		if strings.Contains(lower, marker) {
			return ErrRevisionNotFound
		}
	}
	if strings.Contains(lower, "not a git repository") {
		return ErrNotRepository
	}
	return fallback
}
