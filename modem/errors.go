package modem

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when a command is executed on a Modem
	// that is not switched on, or when the Dialer returned no Transport.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyOn is returned by SwitchOn when the modem is already on.
	ErrAlreadyOn = errors.New("modem already switched on")

	// ErrLineTooLong is returned when a modem response line exceeds the
	// maximum allowed length.
	//
	// This typically indicates malformed input, unexpected binary data,
	// or a protocol framing error.
	ErrLineTooLong = errors.New("response line too long")

	// ErrReadTimeout is returned by a Transport read that timed out with no
	// data. It is not fatal: the modem keeps waiting until the command
	// deadline.
	ErrReadTimeout = errors.New("serial read timeout")
)

// TransportError reports that the link failed to complete an exchange:
// a write or read failure, a timeout, or a closed transport. A modem that
// answers ERROR is not a TransportError.
type TransportError struct {
	// Command is the command text that was in flight.
	Command string
	// Err is the underlying cause.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("modem: %s: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
