package workout

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSession       = errors.New("invalid workout session")
	ErrSessionNotFound      = errors.New("workout session not found")
	ErrSessionMismatch      = errors.New("controller is bound to another session")
	ErrInvalidRoutine       = errors.New("invalid routine")
	ErrAlreadyStarted       = errors.New("session already started")
	ErrNoActiveExercise     = errors.New("no active exercise")
	ErrBusy                 = errors.New("another operation is in progress")
	ErrStaleResponse        = errors.New("response belongs to a previous view")
	ErrConfirmationRequired = errors.New("exit not confirmed")
	ErrSessionTerminated    = errors.New("session terminated")
	ErrSummaryUnavailable   = errors.New("summary available only for completed sessions")
	ErrNoRecommendation     = errors.New("no recommendation available")
	ErrSetIndexOutOfRange   = errors.New("set index out of range")
	ErrInvalidSetValue      = errors.New("invalid set value")
	ErrInvalidParams        = errors.New("invalid recommendation params")
)

// Operation names, used in OpError and metrics labels.
const (
	OpStart    = "start"
	OpLoad     = "load"
	OpSave     = "save"
	OpReorder  = "reorder"
	OpDiscard  = "discard"
	OpFinish   = "finish"
	OpSummary  = "summary"
	OpDetail   = "detail"
	OpAdvisor  = "advisor"
	OpValidate = "validate"
)

var opMessages = map[string]string{
	OpStart:    "Could not start the workout.",
	OpLoad:     "Could not load the exercise.",
	OpSave:     "Could not save the sets.",
	OpReorder:  "Could not save the new exercise order.",
	OpDiscard:  "Could not discard the workout.",
	OpFinish:   "Could not finish the workout.",
	OpSummary:  "Could not load the workout summary.",
	OpDetail:   "Could not load the workout details.",
	OpValidate: "Invalid workout.",
}

// OpError is a failed lifecycle operation, as shown to the user.
type OpError struct {
	Op        string
	Retryable bool
	Err       error
}

func newOpError(op string, retryable bool, err error) *OpError {
	return &OpError{Op: op, Retryable: retryable, Err: err}
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Message is the user facing text for the failed operation.
func (e *OpError) Message() string {
	if msg, ok := opMessages[e.Op]; ok {
		return msg
	}
	return "Something went wrong."
}
