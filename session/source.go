package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Mode selects how a Source behaves. It is fixed for the lifetime of a
// session.
type Mode int

const (
	// Interactive reads from a live terminal, one prompt per line, until
	// end of input.
	Interactive Mode = iota
	// Scripted reads from a finite file and ends when it is exhausted.
	Scripted
)

func (m Mode) String() string {
	switch m {
	case Interactive:
		return "interactive"
	case Scripted:
		return "scripted"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ErrSourceClosed is returned by ReadLine after Close.
var ErrSourceClosed = errors.New("source closed")

// Source yields raw lines of command text.
//
// Lines are read by a helper goroutine so that ReadLine can give up when
// its context ends while the operator has not typed anything yet.
type Source struct {
	mode   Mode
	name   string
	reader *bufio.Reader
	closer io.Closer

	start     sync.Once
	closeOnce sync.Once
	closeErr  error
	lines     chan rawLine
	done      chan struct{}
}

type rawLine struct {
	text string
	err  error
}

// NewInteractive returns an interactive Source reading from r, usually
// os.Stdin. The reader is never closed by the Source.
func NewInteractive(r io.Reader) *Source {
	return newSource(Interactive, "", r, nil)
}

// NewScript returns a scripted Source over rc. name is used for display
// only. rc is closed when the script is exhausted or the Source is closed.
func NewScript(name string, rc io.ReadCloser) *Source {
	return newSource(Scripted, name, rc, rc)
}

// OpenScript opens the named file as a scripted Source.
func OpenScript(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	return NewScript(path, f), nil
}

func newSource(mode Mode, name string, r io.Reader, closer io.Closer) *Source {
	return &Source{
		mode:   mode,
		name:   name,
		reader: bufio.NewReader(r),
		closer: closer,
		lines:  make(chan rawLine),
		done:   make(chan struct{}),
	}
}

// Mode returns the mode the Source was built with.
func (s *Source) Mode() Mode {
	return s.mode
}

// Name returns the script name, or "" for an interactive Source.
func (s *Source) Name() string {
	return s.name
}

// ReadLine returns the next raw line including its terminator. A CRLF
// terminator is reported as LF. An empty string with io.EOF marks the end
// of input; a partial last line without terminator is returned before
// that. If ctx ends first, ReadLine returns ctx.Err() and the pending
// line, if any, is kept for the next call.
func (s *Source) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.start.Do(func() { go s.pump() })

	select {
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return line.text, line.err
	case <-s.done:
		return "", ErrSourceClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// pump feeds lines from the reader until end of input, a read error or
// Close.
func (s *Source) pump() {
	defer close(s.lines)

	for {
		text, err := s.reader.ReadString('\n')
		if strings.HasSuffix(text, "\r\n") {
			text = strings.TrimSuffix(text, "\r\n") + "\n"
		}
		if text != "" {
			select {
			case s.lines <- rawLine{text: text}:
			case <-s.done:
				return
			}
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) {
			select {
			case s.lines <- rawLine{err: fmt.Errorf("read line: %w", err)}:
			case <-s.done:
			}
		}
		return
	}
}

// Close releases the underlying file, once. Later calls return the result
// of the first.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.closer != nil {
			s.closeErr = s.closer.Close()
		}
	})
	return s.closeErr
}

func (s *Source) String() string {
	return fmt.Sprintf("Source{mode:%s, name:%q}", s.mode, s.name)
}
