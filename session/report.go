package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"i4.energy/across/mfr/at"
	"i4.energy/across/mfr/modem"
)

// Kind is a machine-readable failure category.
type Kind string

const (
	// KindMalformedCommand: input text is not a command.
	KindMalformedCommand Kind = "malformed_command"
	// KindTransport: the link failed to complete an exchange.
	KindTransport Kind = "transport_error"
	// KindOperatorInterrupt: the operator aborted the session.
	KindOperatorInterrupt Kind = "operator_interrupt"
	// KindUnexpectedFault: anything else.
	KindUnexpectedFault Kind = "unexpected_fault"
)

// Classify maps err onto the failure taxonomy. err must not be nil.
func Classify(err error) Kind {
	var (
		malformed *at.MalformedCommandError
		transport *modem.TransportError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return KindOperatorInterrupt
	case errors.As(err, &malformed):
		return KindMalformedCommand
	case errors.As(err, &transport):
		return KindTransport
	default:
		return KindUnexpectedFault
	}
}

// FaultError carries a panic recovered from the session loop.
type FaultError struct {
	Value any
	Stack []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("unexpected fault: %v", e.Value)
}

// Report is the failure document written to the diagnostic stream.
type Report struct {
	Kind    Kind      `json:"kind"`
	Command string    `json:"command,omitempty"`
	Message string    `json:"message"`
	Trace   []string  `json:"trace,omitempty"`
	Time    time.Time `json:"time"`
}

// NewReport builds the Report for err, observed at t.
func NewReport(err error, t time.Time) Report {
	report := Report{
		Kind:    Classify(err),
		Message: err.Error(),
		Time:    t.UTC(),
	}

	var (
		malformed *at.MalformedCommandError
		transport *modem.TransportError
		fault     *FaultError
	)
	switch {
	case errors.As(err, &malformed):
		report.Command = malformed.Text
	case errors.As(err, &transport):
		report.Command = transport.Command
	case errors.As(err, &fault):
		report.Trace = strings.Split(strings.TrimSpace(string(fault.Stack)), "\n")
	}

	return report
}

// Write encodes the report as one line of JSON.
func (r Report) Write(w io.Writer) error {
	return json.NewEncoder(w).Encode(r)
}
