package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"i4.energy/across/mfr/at"
)

// Outcome tags how a session ended.
type Outcome int

const (
	// Completed: the input ended.
	Completed Outcome = iota
	// Interrupted: the operator aborted.
	Interrupted
	// Failed: a malformed command, a transport error or an unexpected fault.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Interrupted:
		return "interrupted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is what Run returns.
type Result struct {
	Outcome Outcome
	// Err is the cause for Interrupted and Failed.
	Err error
	// Executed counts commands that completed an exchange.
	Executed int
}

// State is the lifecycle position of a Runner.
type State int

const (
	Idle State = iota
	PoweredOn
	Running
	Draining
	PoweredOff
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PoweredOn:
		return "powered_on"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case PoweredOff:
		return "powered_off"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Runner drives a Sequencer against a Link. It switches the link on before
// the first command and off exactly once when the session ends, whatever
// the reason.
type Runner struct {
	// Link is the modem, exclusively owned for the session.
	Link Link
	// Out receives responses and timings. Nil discards them.
	Out io.Writer
	// Diag receives the failure report. Nil suppresses it.
	Diag io.Writer
	// Logger receives verbose narrative. Nil discards it.
	Logger *slog.Logger
	// Now is the clock. Nil means time.Now.
	Now func() time.Time

	state State
}

// State returns where the Runner is in its lifecycle.
func (r *Runner) State() State {
	return r.state
}

// Run executes every command of seq in order and reports how the session
// ended. A Failed result has already been reported on Diag.
//
// Cancelling ctx interrupts the session at the next line read or before
// the next dispatch; an exchange already in flight runs to completion.
func (r *Runner) Run(ctx context.Context, seq *Sequencer) (res Result) {
	logger := r.logger()
	r.setState(Idle)

	executed := 0

	defer func() {
		if err := r.Link.SwitchOff(); err != nil {
			logger.Warn("Failed to switch off modem", "error", err)
		}
		r.setState(PoweredOff)
	}()
	defer seq.Close()
	defer func() {
		if p := recover(); p != nil {
			res = Result{Outcome: Failed, Err: &FaultError{Value: p, Stack: debug.Stack()}}
		}
		res.Executed = executed
		r.setState(Draining)
		r.finish(res)
	}()

	if err := r.Link.SwitchOn(ctx); err != nil {
		return r.result(fmt.Errorf("switch on modem: %w", err))
	}
	r.setState(PoweredOn)
	logger.Debug("Modem switched on", "modem", r.Link)

	for cmd, err := range seq.Commands(ctx) {
		if err != nil {
			return r.result(err)
		}
		if err := ctx.Err(); err != nil {
			return r.result(err)
		}

		r.setState(Running)
		if err := r.execute(ctx, cmd); err != nil {
			return r.result(err)
		}
		executed++
	}

	return Result{Outcome: Completed}
}

// execute runs one exchange and prints it. The exchange is detached from
// ctx cancellation; the link's own timeouts bound it.
func (r *Runner) execute(ctx context.Context, cmd at.Command) error {
	start := r.now()
	resp, err := r.Link.Execute(context.WithoutCancel(ctx), cmd)
	elapsed := r.now().Sub(start)

	r.logger().Debug("Command executed", "command", cmd.String(), "elapsed", elapsed, "error", err)
	if err != nil {
		return err
	}

	out := r.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintln(out, resp.String())
	fmt.Fprintf(out, "time: %0.3f\n", elapsed.Seconds())
	fmt.Fprintln(out)
	return nil
}

func (r *Runner) result(err error) Result {
	if Classify(err) == KindOperatorInterrupt {
		return Result{Outcome: Interrupted, Err: err}
	}
	return Result{Outcome: Failed, Err: err}
}

// finish emits the verbose note for an interrupt or the report for a
// failure.
func (r *Runner) finish(res Result) {
	logger := r.logger()

	switch res.Outcome {
	case Completed:
		logger.Debug("Session completed", "executed", res.Executed)
	case Interrupted:
		logger.Debug("Session interrupted", "executed", res.Executed)
	case Failed:
		if r.Diag == nil {
			return
		}
		if err := NewReport(res.Err, r.now()).Write(r.Diag); err != nil {
			logger.Error("Failed to write failure report", "error", err)
		}
	}
}

func (r *Runner) setState(s State) {
	r.state = s
	r.logger().Debug("Session state", "state", s)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
