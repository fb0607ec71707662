package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter tokenizes modem output. It has the signature of bufio.SplitFunc
// so it can be used directly with bufio.Scanner.
//
// Lines end in CRLF. Some modems drop the CR on intermediate lines, so a
// bare LF also ends a line and a trailing CR is removed from the token. The
// SMS input prompt ("> ") is returned as its own token.
//
// The splitter assumes "No Echo" mode (ATE0). With echo on, the command
// echo shows up as a data line ahead of the response.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if bytes.HasPrefix(data, []byte(Prompt)) {
		return len(Prompt), data[0:len(Prompt)], nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, bytes.TrimSuffix(data[0:i], []byte(CR)), nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of a line of modem output.
func Classify(line string) ResponseType {
	if line == Prompt {
		return TypePrompt
	}

	switch line {
	case OK, ERROR, NoCarrier, NoDialtone, Busy, NoAnswer:
		return TypeFinal
	}

	switch {
	case strings.HasPrefix(line, CmeError), strings.HasPrefix(line, CmsError):
		return TypeFinal
	case strings.HasPrefix(line, UrcNewMsg), strings.HasPrefix(line, UrcMessageReport), line == UrcCall:
		return TypeURC
	default:
		return TypeData
	}
}
