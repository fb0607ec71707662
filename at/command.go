package at

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedCommand is matched by every *MalformedCommandError.
var ErrMalformedCommand = errors.New("malformed AT command")

// MalformedCommandError is returned by Parse when the text cannot be sent
// to a modem as a command.
type MalformedCommandError struct {
	Text   string
	Reason string
}

func (e *MalformedCommandError) Error() string {
	return fmt.Sprintf("malformed AT command %q: %s", e.Text, e.Reason)
}

func (e *MalformedCommandError) Is(target error) bool {
	return target == ErrMalformedCommand
}

// Command is a single AT command ready to be written to a modem.
// The zero value is not a valid command; use Parse.
type Command struct {
	text string
}

// Parse builds a Command from operator text. Surrounding whitespace is
// ignored. The text must start with the "AT" prefix (any case) and may only
// contain printable ASCII.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)

	if text == "" {
		return Command{}, &MalformedCommandError{Text: text, Reason: "empty command"}
	}
	if len(text) < 2 || !strings.EqualFold(text[:2], CmdAt) {
		return Command{}, &MalformedCommandError{Text: text, Reason: "missing AT prefix"}
	}
	for i := 0; i < len(text); i++ {
		if c := text[i]; c < 0x20 || c > 0x7e {
			return Command{}, &MalformedCommandError{
				Text:   text,
				Reason: fmt.Sprintf("non-printable character 0x%02x at offset %d", c, i),
			}
		}
	}

	return Command{text: text}, nil
}

// MustParse is like Parse but panics on malformed text. Intended for
// constants and tests.
func MustParse(text string) Command {
	cmd, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return cmd
}

// String returns the command text as entered.
func (c Command) String() string {
	return c.text
}

// Wire returns the bytes written to the modem for this command.
func (c Command) Wire() []byte {
	return []byte(c.text + CR)
}

// IsZero reports whether c was never parsed.
func (c Command) IsZero() bool {
	return c.text == ""
}
