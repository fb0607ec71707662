package modem

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Transport represents an established, bidirectional byte stream to a modem.
//
// A Transport is assumed to be already connected and ready for use. It provides
// the low-level I/O primitives required to send AT commands and receive responses.
// Typical implementations include serial ports, TCP connections to emulators,
// or in-memory fakes used for testing.
//
// A Read that times out without data should return ErrReadTimeout.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a modem.
//
// Dialer abstracts how the modem connection is created (for example, via a
// serial port, TCP-based emulator, or test double). The Modem dials on every
// SwitchOn.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

const defaultBaudRate = 115200

// SerialDialer opens a modem over a serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0".
	PortName string
	// BaudRate is used when Mode is nil. Defaults to 115200.
	BaudRate int
	// Mode overrides the 8N1 port settings built from BaudRate.
	Mode *serial.Mode
	// ReadTimeout bounds a single read. Zero blocks until data arrives.
	ReadTimeout time.Duration
}

// Dial opens and configures the serial port.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("modem: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud <= 0 {
			baud = defaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("modem: open %s: %w", d.PortName, err)
	}

	if d.ReadTimeout > 0 {
		if err := port.SetReadTimeout(d.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("modem: set read timeout on %s: %w", d.PortName, err)
		}
	}

	return serialTransport{Port: port}, nil
}

func (d SerialDialer) String() string {
	return d.PortName
}

// serialTransport maps the empty read of a timed-out serial port to
// ErrReadTimeout.
type serialTransport struct {
	serial.Port
}

func (s serialTransport) Read(p []byte) (int, error) {
	n, err := s.Port.Read(p)
	if n == 0 && err == nil {
		return 0, ErrReadTimeout
	}
	return n, err
}
