package broadcast

import (
	"errors"
	"fmt"
)

// Submission outcomes other than acceptance.
var (
	ErrTransport          = errors.New("transport error")
	ErrConsensusRejection = errors.New("consensus rejection")
)

// RejectionError means the node received the transaction and refused it.
// Reason is the node's message, verbatim.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("rejected by node: %s", e.Reason)
}

func (e *RejectionError) Unwrap() error { return ErrConsensusRejection }

// TransportError means no verdict was received. The transaction may or may
// not have reached the node.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// Outcome classifies the result of a submission attempt.
type Outcome int

// Outcomes.
const (
	OutcomeAccepted Outcome = iota
	OutcomeRejected
	OutcomeTransport
	OutcomeLocal // failed before anything was sent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTransport:
		return "transport"
	case OutcomeLocal:
		return "local"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Classify maps an error to its outcome. nil is OutcomeAccepted.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAccepted
	case errors.Is(err, ErrConsensusRejection):
		return OutcomeRejected
	case errors.Is(err, ErrTransport):
		return OutcomeTransport
	default:
		return OutcomeLocal
	}
}
