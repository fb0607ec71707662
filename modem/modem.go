package modem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"i4.energy/across/mfr/at"
)

// maxLineLength caps a single line of modem output.
const maxLineLength = 64 * 1024

// Modem is a cellular modem driven by AT commands over a Transport.
//
// A Modem is a single-owner resource: SwitchOn dials the transport and
// brings the modem up, Execute runs one command at a time, and SwitchOff
// powers it down and releases the transport. Modem is not safe for
// concurrent use.
type Modem struct {
	// config contains the modem configuration settings
	config Config
	// transport is the open connection, nil while switched off
	transport Transport
	// scanner tokenizes everything read from transport. It lives as long as
	// the connection so bytes read past a final result code are kept.
	scanner *bufio.Scanner
	// reader feeds scanner and carries the context of the current exchange
	reader *patientReader
}

// PollConfig defines configuration for polling operations like waiting for
// the modem to answer after power-on.
type PollConfig struct {
	// Interval is the time between polling attempts
	Interval time.Duration
	// Timeout is the maximum time to wait for the condition
	Timeout time.Duration
	// MaxRetries is the maximum number of polling attempts
	MaxRetries int
}

// New creates a switched-off Modem with the given configuration. No I/O
// happens until SwitchOn.
func New(config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	return &Modem{config: config}, nil
}

// SwitchOn dials the transport and runs the bring-up sequence: wait for the
// modem to answer AT, disable echo, enable verbose errors.
//
// On failure the transport is closed again and the modem stays off.
func (m *Modem) SwitchOn(ctx context.Context) error {
	if m.transport != nil {
		return ErrAlreadyOn
	}

	transport, err := m.config.Dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial modem: %w", err)
	}
	if transport == nil {
		return ErrNotInitialized
	}
	m.transport = transport
	m.resetScanner()

	initCtx, cancel := context.WithTimeout(ctx, m.config.InitTimeout)
	defer cancel()

	if err := m.init(initCtx); err != nil {
		m.transport, m.scanner, m.reader = nil, nil, nil
		transport.Close()
		return fmt.Errorf("initialize modem: %w", err)
	}

	return nil
}

// SwitchOff sends the configured shutdown command, if any, and closes the
// transport. It is safe to call on a modem that was never switched on or
// whose SwitchOn failed; such calls do nothing.
func (m *Modem) SwitchOff() error {
	if m.transport == nil {
		return nil
	}

	var shutdownErr error
	if m.config.ShutdownCommand != "" {
		cmd, err := at.Parse(m.config.ShutdownCommand)
		if err == nil {
			_, err = m.exec(context.Background(), cmd)
		}
		if err != nil {
			shutdownErr = fmt.Errorf("shutdown command: %w", err)
		}
	}

	transport := m.transport
	m.transport, m.scanner, m.reader = nil, nil, nil

	return errors.Join(shutdownErr, transport.Close())
}

// Execute sends cmd and blocks until the modem returns a final result code.
//
// A final ERROR or +CME ERROR is returned as a Response with a nil error.
// Write or read failures, timeouts and executing on a switched-off modem
// are returned as *TransportError. When ctx has no deadline the configured
// AT timeout applies.
func (m *Modem) Execute(ctx context.Context, cmd at.Command) (at.Response, error) {
	if m.transport == nil {
		return at.Response{Command: cmd}, &TransportError{Command: cmd.String(), Err: ErrNotInitialized}
	}
	return m.exec(ctx, cmd)
}

// On reports whether the modem is switched on.
func (m *Modem) On() bool {
	return m.transport != nil
}

func (m *Modem) String() string {
	return fmt.Sprintf("Modem{dialer:%v, on:%t, atTimeout:%s, initTimeout:%s, shutdown:%q}",
		m.config.Dialer, m.On(), m.config.ATTimeout, m.config.InitTimeout, m.config.ShutdownCommand)
}

// init performs the bring-up sequence for the modem hardware.
func (m *Modem) init(ctx context.Context) error {
	if err := m.waitForReady(ctx, PollConfig{Interval: m.config.PollInterval}); err != nil {
		return err
	}

	if !m.config.EchoOn {
		if err := m.expectOk(ctx, at.CmdEchoOff); err != nil {
			return fmt.Errorf("could not disable echo: %w", err)
		}
	}

	if err := m.expectOk(ctx, at.CmdVerboseErrors); err != nil {
		return fmt.Errorf("could not enable verbose errors: %w", err)
	}

	return nil
}

// exec writes cmd and reads tokens until the response is complete. Tokens
// already buffered from an earlier exchange, such as URCs that arrived
// after its final code, are consumed first.
func (m *Modem) exec(ctx context.Context, cmd at.Command) (at.Response, error) {
	resp := at.Response{Command: cmd}

	if _, ok := ctx.Deadline(); !ok && m.config.ATTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.ATTimeout)
		defer cancel()
	}

	if _, err := m.transport.Write(cmd.Wire()); err != nil {
		return resp, &TransportError{Command: cmd.String(), Err: fmt.Errorf("write: %w", err)}
	}

	m.reader.ctx = ctx
	defer func() { m.reader.ctx = context.Background() }()

	for {
		if err := ctx.Err(); err != nil {
			return resp, &TransportError{Command: cmd.String(), Err: fmt.Errorf("command timeout: %w", err)}
		}

		if !m.scanner.Scan() {
			err := m.scanner.Err()
			// A bufio.Scanner stops for good after an error.
			m.resetScanner()
			switch {
			case err == nil:
				err = io.EOF
			case errors.Is(err, bufio.ErrTooLong):
				err = ErrLineTooLong
			case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
				err = fmt.Errorf("command timeout: %w", err)
			default:
				err = fmt.Errorf("read: %w", err)
			}
			return resp, &TransportError{Command: cmd.String(), Err: err}
		}

		token := m.scanner.Text()
		if token == "" {
			continue
		}

		if resp.Add(token) {
			return resp, nil
		}
	}
}

// expectOk executes a link-internal command and requires an OK final code.
func (m *Modem) expectOk(ctx context.Context, text string) error {
	resp, err := m.exec(ctx, at.MustParse(text))
	if err != nil {
		return err
	}
	if resp.Final != at.OK {
		return fmt.Errorf("unexpected response: %q", resp.String())
	}
	return nil
}

// waitForReady pings the modem with AT until it answers OK. A freshly
// powered modem can take several seconds before its UART responds. Each
// ping is bounded by the AT timeout; the whole wait by config.Timeout or
// the context.
func (m *Modem) waitForReady(ctx context.Context, config PollConfig) error {
	var (
		pollInterval = config.Interval
		timeout      = config.Timeout
		maxRetries   = config.MaxRetries
	)

	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = m.config.InitTimeout
	}
	if maxRetries <= 0 {
		maxRetries = max(int(timeout/pollInterval), 1)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := m.ping(ctx)
		if err == nil {
			return nil
		}
		// A closed transport will not recover.
		if errors.Is(err, io.EOF) || errors.Is(err, ErrLineTooLong) {
			return fmt.Errorf("modem not responding: %w", err)
		}
		lastErr = err

		if attempt >= maxRetries {
			return fmt.Errorf("modem not responding after %d attempts: %w", attempt, lastErr)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("modem not responding: %w", errors.Join(ctx.Err(), lastErr))
		case <-ticker.C:
		}
	}
}

// resetScanner starts a fresh scanner over the open transport.
func (m *Modem) resetScanner() {
	m.reader = &patientReader{ctx: context.Background(), r: m.transport}
	m.scanner = bufio.NewScanner(m.reader)
	m.scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	m.scanner.Split(at.Splitter)
}

func (m *Modem) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.ATTimeout)
	defer cancel()
	return m.expectOk(ctx, at.CmdAt)
}

// patientReader retries reads that timed out on an idle port until the
// context ends, so a slow command is bounded by its deadline rather than
// by the port's read timeout.
type patientReader struct {
	ctx context.Context
	r   io.Reader
}

func (p *patientReader) Read(b []byte) (int, error) {
	for {
		n, err := p.r.Read(b)
		if n > 0 || !errors.Is(err, ErrReadTimeout) {
			return n, err
		}
		if err := p.ctx.Err(); err != nil {
			return 0, err
		}
	}
}
