package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"i4.energy/across/mfr/modem"
	"i4.energy/across/mfr/session"
)

// errSessionFailed means the failure report is already on stderr.
var errSessionFailed = errors.New("session failed")

type rootOptions struct {
	verbose    bool
	configPath string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errSessionFailed) {
			fmt.Fprintln(os.Stderr, "ge910:", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ge910 [SCRIPT]",
		Short: "Send AT commands to a Telit GE910 modem",
		Long: `ge910 powers up the modem, sends AT commands and prints each response
with its round-trip time. Commands are read from SCRIPT, one per line, or
typed at the "> " prompt when no script is given. In interactive mode an
empty line repeats the previous command.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, args, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Report session narrative on stderr")
	flags.StringVar(&opts.configPath, "config", DefaultConfigPath(), "Configuration file")
	flags.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flags.Int("baud-rate", 115200, "Baud rate for serial communication")
	flags.Duration("at-timeout", 0, "Timeout for a single AT command (default 5s)")
	flags.Duration("init-timeout", 0, "Timeout for modem bring-up (default 30s)")
	flags.Duration("read-timeout", 0, "Serial port read timeout (default 100ms)")
	flags.String("shutdown-command", "", "AT command sent before the port is closed (e.g. AT#SHDN)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newConfCommand(opts))
	return cmd
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (*Config, error) {
	return LoadConfig(WithDefaults(), WithFile(opts.configPath), WithEnv(), WithFlags(cmd.Flags()))
}

func newLogger(w io.Writer, config *Config, verbose bool) *slog.Logger {
	level := config.Level()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// startupFailure reports a fault raised before the session loop the same
// way the loop reports its own.
func startupFailure(w io.Writer, err error) error {
	if werr := session.NewReport(err, time.Now()).Write(w); werr != nil {
		return errors.Join(err, werr)
	}
	return fmt.Errorf("%w: %w", errSessionFailed, err)
}

func runSession(cmd *cobra.Command, args []string, opts *rootOptions) error {
	diag := cmd.ErrOrStderr()

	config, err := loadConfig(cmd, opts)
	if err != nil {
		return startupFailure(diag, fmt.Errorf("load configuration: %w", err))
	}

	logger := newLogger(diag, config, opts.verbose)

	modemConfig, err := config.ModemConfig()
	if err != nil {
		return startupFailure(diag, fmt.Errorf("create modem config: %w", err))
	}

	m, err := modem.New(modemConfig)
	if err != nil {
		return startupFailure(diag, fmt.Errorf("create modem: %w", err))
	}

	var src *session.Source
	if len(args) == 1 {
		if src, err = session.OpenScript(args[0]); err != nil {
			return startupFailure(diag, err)
		}
	} else {
		src = session.NewInteractive(cmd.InOrStdin())
	}

	seq := session.NewSequencer(src, session.WithConsole(cmd.OutOrStdout()))
	logger.Debug("Starting session", "modem", m, "mode", seq.Mode().String(), "script", src.Name())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &session.Runner{
		Link:   m,
		Out:    cmd.OutOrStdout(),
		Diag:   diag,
		Logger: logger.With("component", "session"),
	}

	if res := runner.Run(ctx, seq); res.Outcome == session.Failed {
		return errSessionFailed
	}
	return nil
}
