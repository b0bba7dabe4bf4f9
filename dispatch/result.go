package dispatch

import (
	"github.com/illuscio-dev/spanrespond-go/mimetype"
)

// Outcome tags a Result.
type Outcome int

const (
	// No registered handler matched any requested mimetype.
	OutcomeUnsupported Outcome = iota
	// A handler was selected and invoked.
	OutcomeHandled
)

func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeHandled:
		return "handled"
	case OutcomeUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

/*
Result is the outcome of a dispatch.

For OutcomeHandled, MimeType is the matched mimetype (to be echoed back as the response
Content-Type) and Output holds whatever the handler returned.

For OutcomeUnsupported, Requested carries the full AcceptSet the client sent.
*/
type Result struct {
	Outcome   Outcome
	MimeType  mimetype.MimeType
	Output    interface{}
	Requested mimetype.AcceptSet
}

// Handled reports whether a handler was selected. A nil Result is not handled.
func (result *Result) Handled() bool {
	return result != nil && result.Outcome == OutcomeHandled
}

// Unsupported reports whether no registered format matched the request.
func (result *Result) Unsupported() bool {
	return result != nil && result.Outcome == OutcomeUnsupported
}
