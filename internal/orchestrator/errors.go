package orchestrator

import "fmt"

// Kind classifies orchestrator failures so callers can switch on cause
// without string matching.
type Kind int

const (
	KindValidationRejected Kind = iota
	KindInvalidTransition
	KindSequenceConflict
	KindResourceExhausted
	KindTimerRace
)

func (k Kind) String() string {
	switch k {
	case KindValidationRejected:
		return "validation-rejected"
	case KindInvalidTransition:
		return "invalid-transition"
	case KindSequenceConflict:
		return "sequence-conflict"
	case KindResourceExhausted:
		return "resource-exhausted"
	case KindTimerRace:
		return "timer-race"
	default:
		return "unknown"
	}
}

// CoreError wraps a failure with a Kind so callers can branch on cause.
type CoreError struct {
	Kind    Kind
	Message string
}

func (e *CoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func errRejected(format string, args ...interface{}) error {
	return &CoreError{Kind: KindValidationRejected, Message: fmt.Sprintf(format, args...)}
}

func errExhausted(format string, args ...interface{}) error {
	return &CoreError{Kind: KindResourceExhausted, Message: fmt.Sprintf(format, args...)}
}
