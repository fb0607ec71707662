package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"i4.energy/across/mfr/at"
)

// Sequencer turns the lines of a Source into a lazy, ordered, single-pass
// stream of commands.
//
// In interactive mode a bare line terminator repeats the previous command.
// In scripted mode blank lines are skipped and every command line is echoed
// before it is parsed. The first error ends the stream: Next returns it from
// then on, and io.EOF likewise once the input is exhausted.
type Sequencer struct {
	src    *Source
	parse  func(string) (at.Command, error)
	prompt func()
	echo   func(string)

	last string
	err  error
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithPrompt sets the hook called before each interactive read.
func WithPrompt(fn func()) Option {
	return func(s *Sequencer) {
		s.prompt = fn
	}
}

// WithEcho sets the hook called with each scripted command line before it
// is parsed.
func WithEcho(fn func(text string)) Option {
	return func(s *Sequencer) {
		s.echo = fn
	}
}

// WithConsole prompts with "> " and echoes script lines as "> TEXT" on w.
func WithConsole(w io.Writer) Option {
	return func(s *Sequencer) {
		s.prompt = func() { fmt.Fprint(w, at.Prompt) }
		s.echo = func(text string) { fmt.Fprintf(w, "%s%s\n", at.Prompt, text) }
	}
}

// WithParser replaces at.Parse as the command codec.
func WithParser(fn func(string) (at.Command, error)) Option {
	return func(s *Sequencer) {
		s.parse = fn
	}
}

// NewSequencer creates a Sequencer over src.
func NewSequencer(src *Source, opts ...Option) *Sequencer {
	s := &Sequencer{
		src:    src,
		parse:  at.Parse,
		prompt: func() {},
		echo:   func(string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the mode of the underlying Source.
func (s *Sequencer) Mode() Mode {
	return s.src.Mode()
}

// Next returns the next command. It returns io.EOF when the input has
// ended, ctx.Err() if ctx ends while waiting for a line, and the codec's
// error for a malformed line.
//
// A context error does not end the stream; any other error does.
func (s *Sequencer) Next(ctx context.Context) (at.Command, error) {
	if s.err != nil {
		return at.Command{}, s.err
	}
	if err := ctx.Err(); err != nil {
		return at.Command{}, err
	}

	var (
		text string
		err  error
	)
	switch s.src.Mode() {
	case Scripted:
		text, err = s.nextScripted(ctx)
	default:
		text, err = s.nextInteractive(ctx)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr == nil || !errors.Is(err, ctxErr) {
			s.err = err
		}
		return at.Command{}, err
	}

	cmd, err := s.parse(text)
	if err != nil {
		s.err = err
		return at.Command{}, err
	}
	return cmd, nil
}

func (s *Sequencer) nextInteractive(ctx context.Context) (string, error) {
	for {
		s.prompt()

		line, err := s.src.ReadLine(ctx)
		if err != nil {
			return "", err
		}

		if len(line) > 1 {
			s.last = strings.TrimSpace(line)
			return s.last, nil
		}
		// A bare terminator repeats the previous command, if there is one.
		if s.last != "" {
			return s.last, nil
		}
	}
}

func (s *Sequencer) nextScripted(ctx context.Context) (string, error) {
	for {
		line, err := s.src.ReadLine(ctx)
		if err == io.EOF {
			if cerr := s.src.Close(); cerr != nil {
				return "", fmt.Errorf("close script %s: %w", s.src.Name(), cerr)
			}
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}

		if len(line) == 1 {
			continue
		}

		text := strings.TrimSpace(line)
		s.echo(text)
		return text, nil
	}
}

// Commands returns the remaining commands as an iterator. The iterator
// stops silently at the end of input; any other error is yielded once with
// a zero Command, after which iteration stops.
func (s *Sequencer) Commands(ctx context.Context) iter.Seq2[at.Command, error] {
	return func(yield func(at.Command, error) bool) {
		for {
			cmd, err := s.Next(ctx)
			if err == io.EOF {
				return
			}
			if !yield(cmd, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the Source. It is safe to call after the Source was
// closed on exhaustion.
func (s *Sequencer) Close() error {
	return s.src.Close()
}

func (s *Sequencer) String() string {
	return fmt.Sprintf("Sequencer{source:%s}", s.src)
}
